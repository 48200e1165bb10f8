package model

import "time"

// Fingerprint is the deterministic comparison key derived from a message's
// normalized fields under one detection criterion. Identical logical inputs
// always yield an identical fingerprint.
type Fingerprint string

// DuplicateGroup is an ordered set of two or more messages sharing one
// fingerprint. Members are sorted oldest-first with undated messages last.
type DuplicateGroup struct {
	// Fingerprint is the shared comparison key of the group.
	Fingerprint Fingerprint `json:"fingerprint"`

	// Messages are the group members in survivor-preference order.
	Messages []Message `json:"messages"`
}

// DuplicateCount returns the number of removable messages in the group
// (all members minus the one survivor).
func (g *DuplicateGroup) DuplicateCount() int {
	if len(g.Messages) == 0 {
		return 0
	}
	return len(g.Messages) - 1
}

// ScanResult aggregates one full scan of a folder. It is owned by the
// caller for the remainder of the session and passed back for cleaning;
// no scan state is shared beyond it.
type ScanResult struct {
	// Folder is the descriptor of the scanned folder.
	Folder FolderDescriptor `json:"folder"`

	// Criterion is the detection criterion used for the scan.
	Criterion Criterion `json:"criterion"`

	// TotalMessages is the number of messages enumerated, including
	// malformed ones.
	TotalMessages int `json:"total_messages"`

	// ParseErrors is the number of messages that could not be parsed and
	// were excluded from grouping.
	ParseErrors int `json:"parse_errors"`

	// Groups holds the duplicate groups in first-seen fingerprint order.
	Groups []DuplicateGroup `json:"groups"`

	// StartedAt and FinishedAt bound the scan pass.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// DuplicateMessages returns the total number of removable duplicates
// across all groups.
func (r *ScanResult) DuplicateMessages() int {
	n := 0
	for i := range r.Groups {
		n += r.Groups[i].DuplicateCount()
	}
	return n
}

// OutcomeKind classifies the result of one removal attempt.
type OutcomeKind string

const (
	// OutcomeRemoved means the message was moved to the trash location.
	OutcomeRemoved OutcomeKind = "removed"

	// OutcomeAlreadyGone means the message was no longer present in the
	// store when removal ran; re-cleaning a group is a no-op, not an error.
	OutcomeAlreadyGone OutcomeKind = "already_gone"

	// OutcomeKept means the message is the group's survivor and was
	// deliberately not touched.
	OutcomeKept OutcomeKind = "kept"

	// OutcomeError means the removal attempt failed; Reason carries detail.
	OutcomeError OutcomeKind = "error"
)

// Outcome records the fate of a single message during cleaning.
type Outcome struct {
	Message  Message     `json:"message"`
	Kind     OutcomeKind `json:"kind"`
	Reason   string      `json:"reason,omitempty"`
	TrashRef string      `json:"trash_ref,omitempty"`
}

// CleanResult aggregates one cleaning operation over a set of groups.
type CleanResult struct {
	// CleanedCount is the number of messages moved to trash.
	CleanedCount int `json:"cleaned_count"`

	// ErrorCount is the number of failed removal attempts.
	ErrorCount int `json:"error_count"`

	// SelectionMethod names the retention policy that chose survivors.
	SelectionMethod string `json:"selection_method"`

	// Outcomes holds the per-message results in processing order.
	Outcomes []Outcome `json:"outcomes"`
}
