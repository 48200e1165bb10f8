package mailstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nhle/mailsweep/internal/model"
)

func newTestEMLDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	date := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	files := map[string]string{
		"a.eml":        rawMessage("a@example.com", "jane@example.com", "Alpha", "first body", date),
		"b.eml":        rawMessage("b@example.com", "jane@example.com", "Beta", "second body", date.Add(time.Hour)),
		"nested/c.eml": rawMessage("c@example.com", "jane@example.com", "Gamma", "third body", date.Add(2*time.Hour)),
		"notes.txt":    "not a message",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func openTestEMLDir(t *testing.T, root string) Store {
	t.Helper()
	s, err := Open(model.FolderDescriptor{Path: root, Format: model.FormatEML})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEMLWalkSortedAndFiltered(t *testing.T) {
	root := newTestEMLDir(t)
	s := openTestEMLDir(t, root)

	msgs := collectMessages(t, s)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3 (non-eml files excluded)", len(msgs))
	}
	wantSubjects := []string{"Alpha", "Beta", "Gamma"}
	for i, want := range wantSubjects {
		if msgs[i].Subject != want {
			t.Errorf("position %d: subject %q, want %q", i, msgs[i].Subject, want)
		}
	}
}

func TestEMLMoveToTrash(t *testing.T) {
	root := newTestEMLDir(t)
	s := openTestEMLDir(t, root)
	msgs := collectMessages(t, s)

	trashRef, err := s.MoveToTrash(&msgs[1]) // b.eml
	if err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}
	want := filepath.Join(root, ".Trash", "b.eml")
	if trashRef != want {
		t.Errorf("trash ref = %q, want %q", trashRef, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("trashed file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "b.eml")); !os.IsNotExist(err) {
		t.Error("moved file still present in store")
	}

	// Trash contents stay out of subsequent scans.
	reopened := openTestEMLDir(t, root)
	if remaining := collectMessages(t, reopened); len(remaining) != 2 {
		t.Errorf("reopened store holds %d messages, want 2", len(remaining))
	}
}

func TestEMLMoveToTrashAlreadyGone(t *testing.T) {
	root := newTestEMLDir(t)
	s := openTestEMLDir(t, root)
	msgs := collectMessages(t, s)

	if _, err := s.MoveToTrash(&msgs[0]); err != nil {
		t.Fatalf("first MoveToTrash: %v", err)
	}
	if _, err := s.MoveToTrash(&msgs[0]); err != ErrAlreadyGone {
		t.Errorf("second MoveToTrash = %v, want ErrAlreadyGone", err)
	}
}

func TestEMLMoveToTrashExternallyDeleted(t *testing.T) {
	root := newTestEMLDir(t)
	s := openTestEMLDir(t, root)
	msgs := collectMessages(t, s)

	if err := os.Remove(filepath.Join(root, "a.eml")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MoveToTrash(&msgs[0]); err == nil || err == ErrAlreadyGone {
		t.Errorf("externally deleted message: got %v, want a hard error", err)
	}
}

func TestEMLTrashNameCollision(t *testing.T) {
	root := newTestEMLDir(t)

	// Pre-plant an unrelated trashed file with the same base name.
	if err := os.MkdirAll(filepath.Join(root, ".Trash"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".Trash", "a.eml"), []byte("older trash"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := openTestEMLDir(t, root)
	msgs := collectMessages(t, s)

	trashRef, err := s.MoveToTrash(&msgs[0])
	if err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}
	if trashRef == filepath.Join(root, ".Trash", "a.eml") {
		t.Error("collision with existing trashed file was not avoided")
	}
	if _, err := os.Stat(trashRef); err != nil {
		t.Errorf("trashed file missing at %s: %v", trashRef, err)
	}
}

func TestEMLSingleFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solo.eml")
	raw := rawMessage("solo@example.com", "jane@example.com", "Solo", "just one", time.Now())
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Open(model.FolderDescriptor{Path: path, Format: model.FormatEML})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	msgs := collectMessages(t, s)
	if len(msgs) != 1 || msgs[0].Subject != "Solo" {
		t.Fatalf("single-file store walk failed: %d messages", len(msgs))
	}
}

func TestEmlxEnvelopeStripped(t *testing.T) {
	root := t.TempDir()
	raw := rawMessage("x@example.com", "jane@example.com", "Wrapped", "emlx body", time.Now())
	content := fmt.Sprintf("%d\n%s", len(raw), raw)
	if err := os.WriteFile(filepath.Join(root, "1.emlx"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Open(model.FolderDescriptor{Path: root, Format: model.FormatEML})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	msgs := collectMessages(t, s)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].ParseErr != nil {
		t.Fatalf("emlx message failed to parse: %v", msgs[0].ParseErr)
	}
	if msgs[0].Subject != "Wrapped" {
		t.Errorf("Subject = %q, want Wrapped", msgs[0].Subject)
	}
}

func TestEmlxPlistExcludedFromBody(t *testing.T) {
	root := t.TempDir()
	date := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	raw := rawMessage("same@example.com", "jane@example.com", "Hello", "Hello there", date)

	// Two copies of one message whose trailing property lists differ, as
	// happens when Apple Mail records different flags per copy.
	plists := []string{
		"<?xml version=\"1.0\"?><plist><dict><key>flags</key><integer>0</integer></dict></plist>\n",
		"<?xml version=\"1.0\"?><plist><dict><key>flags</key><integer>8590195713</integer></dict></plist>\n",
	}
	for i, plist := range plists {
		content := fmt.Sprintf("%d\n%s%s", len(raw), raw, plist)
		name := fmt.Sprintf("%d.emlx", i+1)
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	s, err := Open(model.FolderDescriptor{Path: root, Format: model.FormatEML})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	msgs := collectMessages(t, s)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	for i, m := range msgs {
		if strings.Contains(m.BodyText, "plist") {
			t.Errorf("message %d body carries Apple metadata: %q", i, m.BodyText)
		}
	}
	if msgs[0].BodyText != msgs[1].BodyText {
		t.Errorf("bodies differ across copies: %q vs %q", msgs[0].BodyText, msgs[1].BodyText)
	}
	if msgs[0].RawSize != msgs[1].RawSize {
		t.Errorf("sizes differ across copies: %d vs %d", msgs[0].RawSize, msgs[1].RawSize)
	}
}
