package clients

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nhle/mailsweep/internal/mailstore"
	"github.com/nhle/mailsweep/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

const sampleMail = "From: a@example.com\nSubject: Hi\n\nbody\n"

func TestParseProfilesINI(t *testing.T) {
	base := t.TempDir()
	profileDir := filepath.Join(base, "abcd1234.default-release")
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		t.Fatal(err)
	}
	absProfile := t.TempDir()

	ini := "[General]\n" +
		"StartWithLastProfile=1\n" +
		"\n" +
		"[Profile0]\n" +
		"Name=default\n" +
		"IsRelative=1\n" +
		"Path=abcd1234.default-release\n" +
		"\n" +
		"[Profile1]\n" +
		"Name=work\n" +
		"IsRelative=0\n" +
		"Path=" + absProfile + "\n" +
		"\n" +
		"[Profile2]\n" +
		"Name=ghost\n" +
		"IsRelative=1\n" +
		"Path=missing-directory\n"
	iniPath := filepath.Join(base, "profiles.ini")
	writeFile(t, iniPath, ini)

	dirs := parseProfilesINI(iniPath, base)
	if len(dirs) != 2 {
		t.Fatalf("got %d profiles, want 2 (missing directory excluded): %v", len(dirs), dirs)
	}
	want := map[string]bool{profileDir: true, absProfile: true}
	for _, d := range dirs {
		if !want[d] {
			t.Errorf("unexpected profile dir %s", d)
		}
	}
}

func TestParseProfilesINIMissingFile(t *testing.T) {
	if dirs := parseProfilesINI(filepath.Join(t.TempDir(), "profiles.ini"), t.TempDir()); dirs != nil {
		t.Errorf("missing profiles.ini should yield nil, got %v", dirs)
	}
}

func TestDiscoverThunderbirdProfile(t *testing.T) {
	base := t.TempDir()
	profile := filepath.Join(base, "abcd.default")
	local := filepath.Join(profile, "Mail", "Local Folders")

	writeFile(t, filepath.Join(local, "Inbox"), sampleMail)
	writeFile(t, filepath.Join(local, "Inbox.msf"), "index")
	writeFile(t, filepath.Join(local, "Sent"), sampleMail)
	writeFile(t, filepath.Join(local, "Sent.msf"), "index")
	writeFile(t, filepath.Join(base, "profiles.ini"),
		"[Profile0]\nName=default\nIsRelative=1\nPath=abcd.default\n")

	folders, err := DiscoverFolders(model.FlavorThunderbird, base)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 {
		t.Fatalf("got %d folders, want 2: %+v", len(folders), folders)
	}
	for _, fd := range folders {
		if fd.Format != model.FormatMbox {
			t.Errorf("%s classified as %s, want mbox", fd.Path, fd.Format)
		}
		if fd.Flavor != model.FlavorThunderbird {
			t.Errorf("%s flavor = %s", fd.Path, fd.Flavor)
		}
	}
}

func TestDiscoverThunderbirdWithoutIndexes(t *testing.T) {
	// Mail files without .msf siblings are still picked up by the
	// extensionless fallback pass.
	profile := t.TempDir()
	local := filepath.Join(profile, "Mail", "Local Folders")
	writeFile(t, filepath.Join(local, "Inbox"), sampleMail)
	writeFile(t, filepath.Join(local, "msgFilterRules.dat.txt"), "rules")

	folders, err := DiscoverFolders(model.FlavorThunderbird, profile)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 1 {
		t.Fatalf("got %d folders, want 1: %+v", len(folders), folders)
	}
	if filepath.Base(folders[0].Path) != "Inbox" {
		t.Errorf("discovered %s, want Inbox", folders[0].Path)
	}
}

func TestDiscoverGenericTree(t *testing.T) {
	root := t.TempDir()

	// One maildir, one mbox file, one eml folder.
	writeFile(t, filepath.Join(root, "md", "cur", "1.msg:2,S"), sampleMail)
	if err := os.MkdirAll(filepath.Join(root, "md", "new"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "archive.mbox"),
		"From a@example.com Fri Mar  1 10:00:00 2024\n"+sampleMail)
	writeFile(t, filepath.Join(root, "exported", "one.eml"), sampleMail)
	writeFile(t, filepath.Join(root, "exported", "two.eml"), sampleMail)
	writeFile(t, filepath.Join(root, "README.txt"), "not mail")

	folders, err := DiscoverFolders(model.FlavorGeneric, root)
	if err != nil {
		t.Fatal(err)
	}

	byFormat := map[model.FolderFormat]int{}
	for _, fd := range folders {
		byFormat[fd.Format]++
	}
	if byFormat[model.FormatMaildir] != 1 {
		t.Errorf("maildir folders = %d, want 1", byFormat[model.FormatMaildir])
	}
	if byFormat[model.FormatMbox] != 1 {
		t.Errorf("mbox folders = %d, want 1", byFormat[model.FormatMbox])
	}
	if byFormat[model.FormatEML] != 1 {
		t.Errorf("eml folders = %d, want 1 (one per directory)", byFormat[model.FormatEML])
	}
}

func TestDiscoverGenericSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Inbox")
	writeFile(t, path, "From a@example.com Fri Mar  1 10:00:00 2024\n"+sampleMail)

	folders, err := DiscoverFolders(model.FlavorGeneric, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 1 || folders[0].Format != model.FormatMbox {
		t.Fatalf("single file discovery failed: %+v", folders)
	}
}

func TestDiscoverGenericMissingPath(t *testing.T) {
	_, err := DiscoverFolders(model.FlavorGeneric, filepath.Join(t.TempDir(), "nope"))
	if !mailstore.IsUnreadable(err) {
		t.Errorf("expected UnreadableError, got %v", err)
	}
}

func TestDiscoverOutlookDataFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "archive.pst"), "pst bytes")
	writeFile(t, filepath.Join(root, "cache.ost"), "ost bytes")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a data file")

	folders, err := DiscoverFolders(model.FlavorOutlook, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 {
		t.Fatalf("got %d folders, want 2: %+v", len(folders), folders)
	}
	for _, fd := range folders {
		if fd.Format != model.FormatPST && fd.Format != model.FormatOST {
			t.Errorf("%s classified as %s", fd.Path, fd.Format)
		}
	}
}

func TestDiscoverAppleMailLayout(t *testing.T) {
	root := t.TempDir()
	v := filepath.Join(root, "V10")
	writeFile(t, filepath.Join(v, "Mailboxes", "Inbox.mbox", "mbox"),
		"From a@example.com Fri Mar  1 10:00:00 2024\n"+sampleMail)
	writeFile(t, filepath.Join(v, "Mailboxes", "Archive.mbox", "Messages", "1.emlx"),
		"100\n"+sampleMail)

	folders, err := DiscoverFolders(model.FlavorAppleMail, root)
	if err != nil {
		t.Fatal(err)
	}
	byFormat := map[model.FolderFormat]int{}
	for _, fd := range folders {
		byFormat[fd.Format]++
	}
	if byFormat[model.FormatMbox] != 1 {
		t.Errorf("mbox folders = %d, want 1", byFormat[model.FormatMbox])
	}
	if byFormat[model.FormatEML] != 1 {
		t.Errorf("emlx folders = %d, want 1", byFormat[model.FormatEML])
	}
}
