package mailstore

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-mbox"

	"github.com/nhle/mailsweep/internal/model"
)

// mboxStore reads a single mbox container file. The raw message bodies are
// buffered at open time so removal can rewrite the container; the memory
// cost is proportional to the container size.
type mboxStore struct {
	fd      model.FolderDescriptor
	raws    [][]byte
	removed map[string]bool
}

func openMbox(fd model.FolderDescriptor) (*mboxStore, error) {
	f, err := os.Open(fd.Path)
	if err != nil {
		return nil, &UnreadableError{
			Path:   fd.Path,
			Format: model.FormatMbox,
			Reason: "opening mbox file",
			Err:    err,
		}
	}
	defer f.Close()

	var raws [][]byte
	r := mbox.NewReader(f)
	for {
		mr, err := r.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &UnreadableError{
				Path:   fd.Path,
				Format: model.FormatMbox,
				Reason: "reading mbox container",
				Err:    err,
			}
		}
		raw, err := io.ReadAll(mr)
		if err != nil {
			return nil, &UnreadableError{
				Path:   fd.Path,
				Format: model.FormatMbox,
				Reason: "reading mbox message",
				Err:    err,
			}
		}
		raws = append(raws, raw)
	}

	return &mboxStore{
		fd:      fd,
		raws:    raws,
		removed: make(map[string]bool),
	}, nil
}

func (s *mboxStore) Folder() model.FolderDescriptor { return s.fd }

func (s *mboxStore) TrashPath() string { return s.fd.Path + ".trash" }

// Walk visits messages in container order. Message keys are the zero-based
// container positions at open time.
func (s *mboxStore) Walk(fn func(msg model.Message) error) error {
	seq := 0
	for i, raw := range s.raws {
		key := strconv.Itoa(i)
		if s.removed[key] {
			continue
		}
		msg := parseMessage(raw, s.fd.Path, key, seq)
		seq++
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

// MoveToTrash appends the message to the sibling trash mbox and rewrites
// the active container without it.
//
// Keys are container positions, and every removal compacts the container,
// so a key recorded by an earlier scan can go stale. The message parsed at
// the keyed position must still match the caller's message before anything
// is touched; a stale key whose message already sits in the trash container
// reports ErrAlreadyGone instead of removing whatever lives there now.
func (s *mboxStore) MoveToTrash(msg *model.Message) (string, error) {
	idx, err := strconv.Atoi(msg.Key)
	if err != nil || idx < 0 {
		return "", fmt.Errorf("invalid mbox message key %q", msg.Key)
	}
	if s.removed[msg.Key] {
		return "", ErrAlreadyGone
	}
	if idx >= len(s.raws) || !s.keyedMessageIs(idx, msg) {
		if s.trashHolds(msg) {
			return "", ErrAlreadyGone
		}
		return "", fmt.Errorf("mbox message %s missing from store", msg.Key)
	}

	if err := s.appendToTrash(s.raws[idx], msg); err != nil {
		return "", fmt.Errorf("moving message %s to trash: %w", msg.Key, err)
	}

	s.removed[msg.Key] = true
	if err := s.rewriteActive(); err != nil {
		// The message is already preserved in trash; surface the rewrite
		// failure so the caller records it.
		return "", fmt.Errorf("rewriting mbox %s: %w", s.fd.Path, err)
	}

	return s.TrashPath(), nil
}

// keyedMessageIs reports whether the raw at container position idx still
// parses to the message the caller scanned there.
func (s *mboxStore) keyedMessageIs(idx int, msg *model.Message) bool {
	if int64(len(s.raws[idx])) != msg.RawSize {
		return false
	}
	cur := parseMessage(s.raws[idx], s.fd.Path, msg.Key, 0)
	return sameIdentity(&cur, msg)
}

// trashHolds reports whether the trash container already holds a message
// with msg's identity. Sizes are not compared here; the mbox writer may
// quote From_ lines on the way into trash.
func (s *mboxStore) trashHolds(msg *model.Message) bool {
	f, err := os.Open(s.TrashPath())
	if err != nil {
		return false
	}
	defer f.Close()

	r := mbox.NewReader(f)
	for {
		mr, err := r.NextMessage()
		if err != nil {
			return false
		}
		raw, err := io.ReadAll(mr)
		if err != nil {
			return false
		}
		got := parseMessage(raw, s.TrashPath(), "", 0)
		if sameIdentity(&got, msg) {
			return true
		}
	}
}

// sameIdentity reports whether two parsed messages describe the same
// email. Message-ID decides when either side carries one; otherwise the
// subject, sender, and date stand in for it.
func sameIdentity(a, b *model.Message) bool {
	if a.MessageID != "" || b.MessageID != "" {
		return a.MessageID == b.MessageID
	}
	return a.Subject == b.Subject && a.From == b.From && a.Date.Equal(b.Date)
}

func (s *mboxStore) appendToTrash(raw []byte, msg *model.Message) error {
	f, err := os.OpenFile(s.TrashPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	w := mbox.NewWriter(f)
	mw, err := w.CreateMessage(fromLineAddress(msg.From), fromLineTime(msg.Date))
	if err != nil {
		return err
	}
	if _, err := mw.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

// rewriteActive rewrites the container to a temporary sibling file with
// all removed messages excluded, then swaps it into place.
func (s *mboxStore) rewriteActive() error {
	tmp := s.fd.Path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	w := mbox.NewWriter(f)
	for i, raw := range s.raws {
		if s.removed[strconv.Itoa(i)] {
			continue
		}
		msg := parseMessage(raw, s.fd.Path, strconv.Itoa(i), i)
		mw, err := w.CreateMessage(fromLineAddress(msg.From), fromLineTime(msg.Date))
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
		if _, err := mw.Write(raw); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.fd.Path)
}

func (s *mboxStore) Close() error { return nil }

// fromLineAddress yields the envelope sender for an mbox From_ line.
func fromLineAddress(from string) string {
	if from == "" {
		return "MAILER-DAEMON"
	}
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return "MAILER-DAEMON"
}

// fromLineTime yields the envelope date for an mbox From_ line.
func fromLineTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
