package mailstore

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nhle/mailsweep/internal/model"
)

// emlStore reads a directory tree of individual message files (.eml, or
// Apple Mail .emlx), or a single such file. Removal renames the file into
// a .Trash directory next to the store root.
type emlStore struct {
	fd    model.FolderDescriptor
	root  string // directory containing the messages
	files []string
}

func openEMLDir(fd model.FolderDescriptor) (*emlStore, error) {
	info, err := os.Stat(fd.Path)
	if err != nil {
		return nil, &UnreadableError{
			Path:   fd.Path,
			Format: model.FormatEML,
			Reason: "folder path not accessible",
			Err:    err,
		}
	}

	if !info.IsDir() {
		return &emlStore{
			fd:    fd,
			root:  filepath.Dir(fd.Path),
			files: []string{filepath.Base(fd.Path)},
		}, nil
	}

	var files []string
	err = filepath.WalkDir(fd.Path, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			// Trash contents are not part of the active store.
			if de.Name() == ".Trash" {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(de.Name())) {
		case ".eml", ".emlx":
			rel, relErr := filepath.Rel(fd.Path, path)
			if relErr != nil {
				return relErr
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, &UnreadableError{
			Path:   fd.Path,
			Format: model.FormatEML,
			Reason: "walking eml folder",
			Err:    err,
		}
	}

	sort.Strings(files)
	return &emlStore{fd: fd, root: fd.Path, files: files}, nil
}

func (s *emlStore) Folder() model.FolderDescriptor { return s.fd }

func (s *emlStore) TrashPath() string {
	return filepath.Join(s.root, ".Trash")
}

func (s *emlStore) Walk(fn func(msg model.Message) error) error {
	seq := 0
	for _, rel := range s.files {
		path := filepath.Join(s.root, rel)
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			msg := model.Message{
				SourcePath: path,
				Key:        rel,
				Seq:        seq,
				ParseErr:   fmt.Errorf("reading message file %s: %w", rel, err),
			}
			seq++
			if err := fn(msg); err != nil {
				return err
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(rel), ".emlx") {
			raw = stripEmlxEnvelope(raw)
		}
		msg := parseMessage(raw, path, rel, seq)
		seq++
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

// MoveToTrash renames the message file into the .Trash directory,
// preserving its base name.
func (s *emlStore) MoveToTrash(msg *model.Message) (string, error) {
	src := filepath.Join(s.root, msg.Key)
	dst := filepath.Join(s.TrashPath(), filepath.Base(msg.Key))

	if _, err := os.Stat(src); os.IsNotExist(err) {
		if _, trashErr := os.Stat(dst); trashErr == nil {
			return "", ErrAlreadyGone
		}
		return "", fmt.Errorf("message file %s missing from store", msg.Key)
	}

	if err := os.MkdirAll(s.TrashPath(), 0o755); err != nil {
		return "", fmt.Errorf("creating trash directory: %w", err)
	}

	// Avoid clobbering an unrelated trashed file with the same name.
	final := dst
	for i := 1; ; i++ {
		if _, err := os.Stat(final); os.IsNotExist(err) {
			break
		}
		ext := filepath.Ext(dst)
		final = fmt.Sprintf("%s.%d%s", strings.TrimSuffix(dst, ext), i, ext)
	}

	if err := os.Rename(src, final); err != nil {
		return "", fmt.Errorf("moving message %s to trash: %w", msg.Key, err)
	}
	return final, nil
}

func (s *emlStore) Close() error { return nil }

// stripEmlxEnvelope unwraps an Apple Mail .emlx file: a byte-count line,
// the message itself, then a property-list blob of client metadata. The
// count bounds the message exactly; the plist must not leak into the body,
// or two copies of one message with different flag metadata stop being
// duplicates of each other.
func stripEmlxEnvelope(raw []byte) []byte {
	idx := bytes.IndexByte(raw, '\n')
	if idx < 0 {
		return raw
	}
	first := bytes.TrimSpace(raw[:idx])
	if len(first) == 0 {
		return raw
	}
	n, err := strconv.Atoi(string(first))
	if err != nil {
		return raw
	}
	rest := raw[idx+1:]
	if n < 0 || n > len(rest) {
		return rest
	}
	return rest[:n]
}
