package clients

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nhle/mailsweep/internal/model"
)

// discoverAppleMail finds mail folders inside Apple Mail's versioned data
// directories (~/Library/Mail/V2, V6, V8, ...), newest version first.
func discoverAppleMail(rootHint string) ([]model.FolderDescriptor, error) {
	bases := []string{rootHint}
	if rootHint == "" {
		bases = homePaths("Library/Mail")
	}

	var profiles []string
	for _, base := range existingDirs(bases) {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		type versionDir struct {
			version int
			path    string
		}
		var versions []versionDir
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), "V") {
				continue
			}
			n, err := strconv.Atoi(e.Name()[1:])
			if err != nil {
				continue
			}
			versions = append(versions, versionDir{n, filepath.Join(base, e.Name())})
		}
		sort.Slice(versions, func(i, j int) bool {
			return versions[i].version > versions[j].version
		})
		for _, v := range versions {
			profiles = append(profiles, v.path)
		}
	}
	if rootHint != "" && len(profiles) == 0 {
		profiles = append(profiles, rootHint)
	}

	var folders []model.FolderDescriptor
	for _, profile := range profiles {
		for _, sub := range []string{"Mailboxes", "IMAP", "POP"} {
			dir := filepath.Join(profile, sub)
			if dirExists(dir) {
				folders = append(folders, scanAppleMail(dir, sub)...)
			}
		}
	}
	return folders, nil
}

// scanAppleMail finds ".mbox" container directories (which hold an inner
// "mbox" file) and directories of individual ".emlx" messages.
func scanAppleMail(dir, label string) []model.FolderDescriptor {
	var folders []model.FolderDescriptor
	emlxDirs := make(map[string]bool)

	_ = filepath.WalkDir(dir, func(path string, de os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if de.IsDir() {
			if strings.HasSuffix(de.Name(), ".mbox") {
				inner := filepath.Join(path, "mbox")
				if nonEmptyFile(inner) {
					folders = append(folders, model.FolderDescriptor{
						Path:        inner,
						DisplayName: displayName(label, dir, path),
						Format:      model.FormatMbox,
						Flavor:      model.FlavorAppleMail,
					})
					return filepath.SkipDir
				}
			}
			return nil
		}
		if strings.HasSuffix(de.Name(), ".emlx") {
			emlxDirs[filepath.Dir(path)] = true
		}
		return nil
	})

	// One folder per directory holding emlx messages.
	dirs := make([]string, 0, len(emlxDirs))
	for d := range emlxDirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		folders = append(folders, model.FolderDescriptor{
			Path:        d,
			DisplayName: displayName(label, dir, d),
			Format:      model.FormatEML,
			Flavor:      model.FlavorAppleMail,
		})
	}
	return folders
}
