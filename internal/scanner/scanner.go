// Package scanner enumerates a mail folder, fingerprints every message
// under a detection criterion, and groups duplicates. Grouping requires
// the complete folder stream, so the scan buffers one fingerprint bucket
// map per folder; the memory cost is proportional to folder size.
package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailsweep/internal/fingerprint"
	"github.com/nhle/mailsweep/internal/mailstore"
	"github.com/nhle/mailsweep/internal/model"
)

// progressInterval is how many processed messages pass between progress
// callbacks.
const progressInterval = 100

// ProgressFunc receives advisory scan progress: the number of messages
// processed so far in the current folder.
type ProgressFunc func(folder model.FolderDescriptor, processed int)

// Scanner runs duplicate scans over mail folders.
type Scanner struct {
	// Workers bounds the fingerprinting worker pool. Zero means one
	// worker per CPU.
	Workers int

	// Progress, when non-nil, is called roughly every progressInterval
	// messages during a folder scan.
	Progress ProgressFunc
}

// ScanFolder scans one folder for duplicate messages under the given
// criterion. The folder is read in stable order and never mutated;
// malformed messages are counted in ParseErrors and excluded from
// grouping. The returned ScanResult is an isolated session object owned
// by the caller.
func (s *Scanner) ScanFolder(
	ctx context.Context,
	fd model.FolderDescriptor,
	criterion model.Criterion,
) (*model.ScanResult, error) {
	if _, err := model.ParseCriterion(string(criterion)); err != nil {
		return nil, err
	}

	store, err := mailstore.Open(fd)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	result := &model.ScanResult{
		Folder:    store.Folder(),
		Criterion: criterion,
		StartedAt: time.Now(),
	}

	// Buffer the full stream: group membership cannot be known until all
	// messages are seen.
	var messages []model.Message
	err = store.Walk(func(msg model.Message) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.TotalMessages++
		if msg.ParseErr != nil {
			result.ParseErrors++
		} else {
			messages = append(messages, msg)
		}
		if s.Progress != nil && result.TotalMessages%progressInterval == 0 {
			s.Progress(result.Folder, result.TotalMessages)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", fd.Path, err)
	}

	prints := s.fingerprintAll(messages, criterion)

	// Merge sequentially so bucket order stays first-seen deterministic.
	buckets := make(map[model.Fingerprint][]model.Message)
	var order []model.Fingerprint
	for i := range messages {
		fp := prints[i]
		if _, seen := buckets[fp]; !seen {
			order = append(order, fp)
		}
		buckets[fp] = append(buckets[fp], messages[i])
	}

	for _, fp := range order {
		members := buckets[fp]
		if len(members) < 2 {
			continue
		}
		sortOldestFirst(members)
		result.Groups = append(result.Groups, model.DuplicateGroup{
			Fingerprint: fp,
			Messages:    members,
		})
	}

	if s.Progress != nil {
		s.Progress(result.Folder, result.TotalMessages)
	}
	result.FinishedAt = time.Now()
	return result, nil
}

// CollectMessages enumerates a folder and returns every message that
// parsed cleanly, in stable enumeration order. Used by callers that
// analyze folder contents without duplicate grouping.
func (s *Scanner) CollectMessages(
	ctx context.Context,
	fd model.FolderDescriptor,
) ([]model.Message, error) {
	store, err := mailstore.Open(fd)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var messages []model.Message
	err = store.Walk(func(msg model.Message) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if msg.ParseErr == nil {
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fd.Path, err)
	}
	return messages, nil
}

// ScanFolders scans several folders as independent units of work, one
// goroutine per folder. Each folder's scan stays internally sequential
// and keeps its own bucket map; results are returned in input order.
func (s *Scanner) ScanFolders(
	ctx context.Context,
	fds []model.FolderDescriptor,
	criterion model.Criterion,
) ([]*model.ScanResult, error) {
	results := make([]*model.ScanResult, len(fds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount())
	for i, fd := range fds {
		i, fd := i, fd
		g.Go(func() error {
			res, err := s.ScanFolder(ctx, fd, criterion)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fingerprintAll computes fingerprints for the buffered messages using a
// bounded worker pool. Fingerprinting is pure and side-effect free, so it
// parallelizes safely; each worker writes only its own slice slots.
func (s *Scanner) fingerprintAll(
	messages []model.Message,
	criterion model.Criterion,
) []model.Fingerprint {
	prints := make([]model.Fingerprint, len(messages))
	workers := s.workerCount()
	if workers > len(messages) {
		workers = len(messages)
	}
	if workers <= 1 {
		for i := range messages {
			prints[i] = fingerprint.Compute(&messages[i], criterion)
		}
		return prints
	}

	var g errgroup.Group
	chunk := (len(messages) + workers - 1) / workers
	for start := 0; start < len(messages); start += chunk {
		end := start + chunk
		if end > len(messages) {
			end = len(messages)
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				prints[i] = fingerprint.Compute(&messages[i], criterion)
			}
			return nil
		})
	}
	_ = g.Wait()
	return prints
}

func (s *Scanner) workerCount() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

// sortOldestFirst orders group members for survivor preference: known
// dates ascending, undated messages last, ties broken by enumeration
// order.
func sortOldestFirst(members []model.Message) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := &members[i], &members[j]
		switch {
		case a.HasDate() && !b.HasDate():
			return true
		case !a.HasDate() && b.HasDate():
			return false
		case a.HasDate() && b.HasDate() && !a.Date.Equal(b.Date):
			return a.Date.Before(b.Date)
		default:
			return a.Seq < b.Seq
		}
	})
}
