package mailstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emersion/go-maildir"

	"github.com/nhle/mailsweep/internal/model"
)

// maildirEntry is one discovered maildir message file.
type maildirEntry struct {
	key    string // maildir key (filename up to the flag separator)
	subdir string // "cur" or "new"
	path   string
}

// maildirStore reads a maildir directory (cur/ and new/ subdirectories).
// Removal moves messages into a .Trash maildir inside the folder, which
// mail clients surface as a recoverable trash mailbox.
type maildirStore struct {
	fd      model.FolderDescriptor
	root    string
	entries []maildirEntry
}

func openMaildir(fd model.FolderDescriptor) (*maildirStore, error) {
	var entries []maildirEntry

	for _, subdir := range []string{"cur", "new"} {
		dir := filepath.Join(fd.Path, subdir)
		des, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) && subdir == "new" {
				continue
			}
			return nil, &UnreadableError{
				Path:   fd.Path,
				Format: model.FormatMaildir,
				Reason: "listing " + subdir,
				Err:    err,
			}
		}
		for _, de := range des {
			if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
				continue
			}
			entries = append(entries, maildirEntry{
				key:    maildirKey(de.Name()),
				subdir: subdir,
				path:   filepath.Join(dir, de.Name()),
			})
		}
	}

	// Lexicographic filename order keeps enumeration stable across runs.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].path < entries[j].path
	})

	return &maildirStore{fd: fd, root: fd.Path, entries: entries}, nil
}

func (s *maildirStore) Folder() model.FolderDescriptor { return s.fd }

func (s *maildirStore) TrashPath() string {
	return filepath.Join(s.root, ".Trash")
}

func (s *maildirStore) Walk(fn func(msg model.Message) error) error {
	seq := 0
	for _, e := range s.entries {
		raw, err := os.ReadFile(e.path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			msg := model.Message{
				SourcePath: e.path,
				Key:        e.key,
				Seq:        seq,
				ParseErr:   fmt.Errorf("reading maildir message %s: %w", e.key, err),
			}
			seq++
			if err := fn(msg); err != nil {
				return err
			}
			continue
		}
		msg := parseMessage(raw, e.path, e.key, seq)
		seq++
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

// MoveToTrash relocates the message file into the .Trash maildir.
func (s *maildirStore) MoveToTrash(msg *model.Message) (string, error) {
	trash := maildir.Dir(s.TrashPath())
	if err := trash.Init(); err != nil {
		return "", fmt.Errorf("initializing trash maildir: %w", err)
	}

	entry, ok := s.lookup(msg.Key)
	if !ok {
		// A fresh handle never lists messages removed by an earlier pass;
		// the trash maildir tells a stale key apart from a bad one.
		if s.keyInTrash(msg.Key) {
			return "", ErrAlreadyGone
		}
		return "", fmt.Errorf("unknown maildir key %q", msg.Key)
	}

	if _, err := os.Stat(entry.path); os.IsNotExist(err) {
		if s.keyInTrash(entry.key) {
			return "", ErrAlreadyGone
		}
		return "", fmt.Errorf("maildir message %s missing from store", msg.Key)
	}

	if entry.subdir == "cur" {
		if err := maildir.Dir(s.root).Move(trash, msg.Key); err != nil {
			return "", fmt.Errorf("moving message %s to trash: %w", msg.Key, err)
		}
		return s.TrashPath(), nil
	}

	// Messages still in new/ are moved by hand; go-maildir only relocates
	// messages that have reached cur.
	dst := filepath.Join(s.TrashPath(), "cur", filepath.Base(entry.path))
	if err := os.Rename(entry.path, dst); err != nil {
		return "", fmt.Errorf("moving message %s to trash: %w", msg.Key, err)
	}
	return s.TrashPath(), nil
}

func (s *maildirStore) Close() error { return nil }

func (s *maildirStore) lookup(key string) (maildirEntry, bool) {
	for _, e := range s.entries {
		if e.key == key {
			return e, true
		}
	}
	return maildirEntry{}, false
}

// keyInTrash reports whether a message with this maildir key already sits
// in the trash maildir. Flags may change on the move, so filenames are
// compared by key, not verbatim.
func (s *maildirStore) keyInTrash(key string) bool {
	for _, subdir := range []string{"cur", "new"} {
		des, err := os.ReadDir(filepath.Join(s.TrashPath(), subdir))
		if err != nil {
			continue
		}
		for _, de := range des {
			if maildirKey(de.Name()) == key {
				return true
			}
		}
	}
	return false
}

// maildirKey strips the info suffix (":2,FLAGS") from a maildir filename.
func maildirKey(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx]
	}
	return name
}
