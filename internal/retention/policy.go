// Package retention decides which message in a duplicate group survives a
// clean. Every policy must return exactly one member; "keep at least one"
// is a hard invariant regardless of policy.
package retention

import (
	"fmt"

	"github.com/nhle/mailsweep/internal/model"
)

// Policy selects the surviving message of a duplicate group.
type Policy interface {
	// Name is the machine-readable policy identifier, recorded in clean
	// results and history.
	Name() string

	// Survivor returns the index of the group member to keep. The group
	// is guaranteed non-empty; the returned index must be valid.
	Survivor(group *model.DuplicateGroup) int
}

// ParsePolicy maps a policy name to its implementation, rejecting unknown
// names.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "oldest", "":
		return KeepOldest{}, nil
	case "newest":
		return KeepNewest{}, nil
	case "first":
		return KeepFirst{}, nil
	default:
		return nil, fmt.Errorf("unknown retention policy %q", name)
	}
}

// KeepOldest keeps the member with the earliest known date. A message
// without a parsable date is never preferred unless every member lacks
// one, in which case the first by enumeration order survives. Date ties
// also fall back to enumeration order.
type KeepOldest struct{}

func (KeepOldest) Name() string { return "oldest" }

func (KeepOldest) Survivor(group *model.DuplicateGroup) int {
	best := -1
	for i := range group.Messages {
		m := &group.Messages[i]
		if !m.HasDate() {
			continue
		}
		if best < 0 || m.Date.Before(group.Messages[best].Date) ||
			(m.Date.Equal(group.Messages[best].Date) && m.Seq < group.Messages[best].Seq) {
			best = i
		}
	}
	if best < 0 {
		return firstBySeq(group)
	}
	return best
}

// KeepNewest keeps the member with the latest known date, with the same
// fallbacks as KeepOldest.
type KeepNewest struct{}

func (KeepNewest) Name() string { return "newest" }

func (KeepNewest) Survivor(group *model.DuplicateGroup) int {
	best := -1
	for i := range group.Messages {
		m := &group.Messages[i]
		if !m.HasDate() {
			continue
		}
		if best < 0 || m.Date.After(group.Messages[best].Date) ||
			(m.Date.Equal(group.Messages[best].Date) && m.Seq < group.Messages[best].Seq) {
			best = i
		}
	}
	if best < 0 {
		return firstBySeq(group)
	}
	return best
}

// KeepFirst keeps the member seen earliest during folder enumeration,
// regardless of dates.
type KeepFirst struct{}

func (KeepFirst) Name() string { return "first" }

func (KeepFirst) Survivor(group *model.DuplicateGroup) int {
	return firstBySeq(group)
}

func firstBySeq(group *model.DuplicateGroup) int {
	best := 0
	for i := range group.Messages {
		if group.Messages[i].Seq < group.Messages[best].Seq {
			best = i
		}
	}
	return best
}
