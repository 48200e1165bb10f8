// Package mailstore abstracts enumeration and reversible removal of
// messages across the on-disk mailbox formats the supported email clients
// use: mbox container files, maildir directories, and folders of
// individual eml/emlx files.
package mailstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhle/mailsweep/internal/model"
)

// UnreadableError indicates that a folder cannot be opened for scanning:
// the path is missing, not readable, or the format is unsupported. It is
// fatal for the scan of that folder and surfaced to the caller immediately.
type UnreadableError struct {
	Path   string
	Format model.FolderFormat
	Reason string
	Err    error
}

func (e *UnreadableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store %s unreadable: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("store %s unreadable: %s", e.Path, e.Reason)
}

func (e *UnreadableError) Unwrap() error { return e.Err }

// IsUnreadable reports whether err (or any error in its chain) is an
// UnreadableError.
func IsUnreadable(err error) bool {
	var ue *UnreadableError
	return errors.As(err, &ue)
}

// ErrAlreadyGone is returned by MoveToTrash when the message was removed
// by an earlier cleaning pass. Callers treat it as a no-op, not a failure.
var ErrAlreadyGone = errors.New("message already removed from store")

// Store is one openable mail folder. Enumeration is read-only and stable:
// walking the same unchanged folder twice visits the same messages in the
// same order. MoveToTrash is the only mutation and is reversible — the
// message is relocated to the store's trash location, never unlinked.
type Store interface {
	// Folder returns the descriptor this store was opened from.
	Folder() model.FolderDescriptor

	// Walk enumerates every message in stable order. A malformed message
	// is passed to fn with ParseErr set rather than aborting the walk.
	// Returning a non-nil error from fn stops the walk.
	Walk(fn func(msg model.Message) error) error

	// MoveToTrash relocates the message to the store's trash location and
	// returns a reference to where it went. Returns ErrAlreadyGone when
	// the message was already removed.
	MoveToTrash(msg *model.Message) (string, error)

	// TrashPath returns the recoverable location removed messages land in.
	TrashPath() string

	Close() error
}

// Open opens the folder described by fd. Unsupported or unreadable
// folders yield an UnreadableError rather than an empty store.
func Open(fd model.FolderDescriptor) (Store, error) {
	info, err := os.Stat(fd.Path)
	if err != nil {
		return nil, &UnreadableError{
			Path:   fd.Path,
			Format: fd.Format,
			Reason: "folder path not accessible",
			Err:    err,
		}
	}

	format := fd.Format
	if format == "" {
		format = DetectFormat(fd.Path)
		fd.Format = format
	}

	switch format {
	case model.FormatMbox:
		if info.IsDir() {
			return nil, &UnreadableError{
				Path:   fd.Path,
				Format: format,
				Reason: "mbox path is a directory",
			}
		}
		return openMbox(fd)
	case model.FormatMaildir:
		if !info.IsDir() {
			return nil, &UnreadableError{
				Path:   fd.Path,
				Format: format,
				Reason: "maildir path is not a directory",
			}
		}
		return openMaildir(fd)
	case model.FormatEML:
		// Either a folder of eml/emlx files or a single message file.
		return openEMLDir(fd)
	case model.FormatPST, model.FormatOST:
		return nil, &UnreadableError{
			Path:   fd.Path,
			Format: format,
			Reason: "reading Outlook PST/OST content is not supported",
		}
	default:
		return nil, &UnreadableError{
			Path:   fd.Path,
			Format: format,
			Reason: "unrecognized mail folder format",
		}
	}
}

// DetectFormat guesses the on-disk format of a path: a directory with a
// cur/ subdirectory is a maildir, any other directory is treated as a
// folder of eml files, and a plain file is treated as an mbox container.
func DetectFormat(path string) model.FolderFormat {
	info, err := os.Stat(path)
	if err != nil {
		return model.FormatMbox
	}
	if !info.IsDir() {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pst":
			return model.FormatPST
		case ".ost":
			return model.FormatOST
		case ".eml", ".emlx":
			return model.FormatEML
		}
		return model.FormatMbox
	}
	if fi, err := os.Stat(filepath.Join(path, "cur")); err == nil && fi.IsDir() {
		return model.FormatMaildir
	}
	return model.FormatEML
}
