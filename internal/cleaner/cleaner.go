// Package cleaner removes non-survivor messages from duplicate groups.
// Removal is reversible (move to the store's trash location) and
// per-message independent: one failed removal never aborts the batch, and
// at least one member of every group always remains retrievable.
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/mailsweep/internal/mailstore"
	"github.com/nhle/mailsweep/internal/model"
	"github.com/nhle/mailsweep/internal/retention"
)

// Clean removes every non-survivor message of the selected groups in
// scan. groupIndices selects which groups to process; empty means all.
// The survivor of each group is chosen by policy and never touched.
//
// Opening the store again fails with the store-level error; everything
// past that point is recorded per message in the returned CleanResult.
func Clean(
	ctx context.Context,
	scan *model.ScanResult,
	groupIndices []int,
	policy retention.Policy,
) (*model.CleanResult, error) {
	if policy == nil {
		policy = retention.KeepOldest{}
	}

	store, err := mailstore.Open(scan.Folder)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	indices := groupIndices
	if len(indices) == 0 {
		indices = make([]int, len(scan.Groups))
		for i := range scan.Groups {
			indices[i] = i
		}
	}

	result := &model.CleanResult{SelectionMethod: policy.Name()}

	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if idx < 0 || idx >= len(scan.Groups) {
			result.ErrorCount++
			result.Outcomes = append(result.Outcomes, model.Outcome{
				Kind:   model.OutcomeError,
				Reason: fmt.Sprintf("invalid group index %d", idx),
			})
			continue
		}

		group := &scan.Groups[idx]
		keep := policy.Survivor(group)
		if keep < 0 || keep >= len(group.Messages) {
			// A policy returning an out-of-range survivor would delete the
			// whole group; refuse the group instead.
			result.ErrorCount++
			result.Outcomes = append(result.Outcomes, model.Outcome{
				Kind: model.OutcomeError,
				Reason: fmt.Sprintf(
					"retention policy %q returned invalid survivor %d for group %d",
					policy.Name(), keep, idx,
				),
			})
			continue
		}

		cleanGroup(store, group, keep, result)
	}

	return result, nil
}

// cleanGroup removes every member except the survivor, recording one
// outcome per message. Failures are recorded and skipped past.
func cleanGroup(
	store mailstore.Store,
	group *model.DuplicateGroup,
	keep int,
	result *model.CleanResult,
) {
	for i := range group.Messages {
		msg := &group.Messages[i]

		if i == keep {
			result.Outcomes = append(result.Outcomes, model.Outcome{
				Message: *msg,
				Kind:    model.OutcomeKept,
			})
			continue
		}

		trashRef, err := store.MoveToTrash(msg)
		switch {
		case err == nil:
			result.CleanedCount++
			result.Outcomes = append(result.Outcomes, model.Outcome{
				Message:  *msg,
				Kind:     model.OutcomeRemoved,
				TrashRef: trashRef,
			})
		case errors.Is(err, mailstore.ErrAlreadyGone):
			result.Outcomes = append(result.Outcomes, model.Outcome{
				Message: *msg,
				Kind:    model.OutcomeAlreadyGone,
			})
		default:
			result.ErrorCount++
			result.Outcomes = append(result.Outcomes, model.Outcome{
				Message: *msg,
				Kind:    model.OutcomeError,
				Reason:  err.Error(),
			})
		}
	}
}
