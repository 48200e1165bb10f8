package clients

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nhle/mailsweep/internal/model"
)

// discoverOutlook finds Outlook PST/OST data files. They are surfaced as
// folders so the caller can list them, but opening one for scanning fails
// with a store-unreadable error: parsing proprietary PST content is out
// of scope.
func discoverOutlook(rootHint string) ([]model.FolderDescriptor, error) {
	bases := []string{rootHint}
	if rootHint == "" {
		bases = homePaths(
			"Documents/Outlook Files",
			"AppData/Local/Microsoft/Outlook",
		)
	}

	var folders []model.FolderDescriptor
	for _, base := range existingDirs(bases) {
		_ = filepath.WalkDir(base, func(path string, de os.DirEntry, err error) error {
			if err != nil || de.IsDir() {
				return nil
			}
			format := model.FolderFormat("")
			switch strings.ToLower(filepath.Ext(de.Name())) {
			case ".pst":
				format = model.FormatPST
			case ".ost":
				format = model.FormatOST
			default:
				return nil
			}
			folders = append(folders, model.FolderDescriptor{
				Path:        path,
				DisplayName: displayName("Outlook Files", base, path),
				Format:      format,
				Flavor:      model.FlavorOutlook,
			})
			return nil
		})
	}
	return folders, nil
}
