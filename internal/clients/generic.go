package clients

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nhle/mailsweep/internal/mailstore"
	"github.com/nhle/mailsweep/internal/model"
)

// discoverGeneric finds mbox files, maildir directories, and eml folders
// under common mail locations, or under an explicit rootHint.
func discoverGeneric(rootHint string) ([]model.FolderDescriptor, error) {
	bases := []string{rootHint}
	if rootHint == "" {
		bases = homePaths("Maildir", "mail", "Mail", ".mail")
	}

	roots := existingDirs(bases)
	if rootHint != "" && len(roots) == 0 {
		// The hint may name a single mail file rather than a directory.
		if nonEmptyFile(rootHint) {
			return []model.FolderDescriptor{{
				Path:        rootHint,
				DisplayName: filepath.Base(rootHint),
				Format:      mailstore.DetectFormat(rootHint),
				Flavor:      model.FlavorGeneric,
			}}, nil
		}
		return nil, &mailstore.UnreadableError{
			Path:   rootHint,
			Reason: "scan path does not exist",
		}
	}

	var folders []model.FolderDescriptor
	for _, root := range roots {
		folders = append(folders, scanGeneric(root, filepath.Base(root))...)
	}
	return folders, nil
}

// scanGeneric walks one directory tree classifying what it finds:
// maildirs (a directory with a cur/ subdirectory), mbox-shaped files
// (.mbox extension, extensionless, or named INBOX), and directories of
// .eml/.emlx files.
func scanGeneric(root, label string) []model.FolderDescriptor {
	var folders []model.FolderDescriptor
	emlxDirs := make(map[string]bool)

	_ = filepath.WalkDir(root, func(path string, de os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if de.IsDir() {
			if strings.HasPrefix(de.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if dirExists(filepath.Join(path, "cur")) {
				folders = append(folders, model.FolderDescriptor{
					Path:        path,
					DisplayName: displayName(label, root, path),
					Format:      model.FormatMaildir,
					Flavor:      model.FlavorGeneric,
				})
				return filepath.SkipDir
			}
			return nil
		}

		name := de.Name()
		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case ext == ".eml" || ext == ".emlx":
			emlxDirs[filepath.Dir(path)] = true
		case ext == ".mbox" || ext == "" || name == "INBOX":
			if nonEmptyFile(path) {
				folders = append(folders, model.FolderDescriptor{
					Path:        path,
					DisplayName: displayName(label, root, path),
					Format:      model.FormatMbox,
					Flavor:      model.FlavorGeneric,
				})
			}
		}
		return nil
	})

	dirs := make([]string, 0, len(emlxDirs))
	for d := range emlxDirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		folders = append(folders, model.FolderDescriptor{
			Path:        d,
			DisplayName: displayName(label, root, d),
			Format:      model.FormatEML,
			Flavor:      model.FlavorGeneric,
		})
	}
	return folders
}
