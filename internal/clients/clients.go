// Package clients discovers candidate mail folders inside the profile
// layouts of supported email clients. Discovery is read-only and
// best-effort: a client that is not installed simply contributes no
// folders.
package clients

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/mailsweep/internal/model"
)

// DiscoverFolders returns the mail folders of one client flavor.
// rootHint, when non-empty, replaces the client's default profile
// locations; this is how callers point discovery at demo or test
// profiles.
func DiscoverFolders(
	flavor model.ClientFlavor,
	rootHint string,
) ([]model.FolderDescriptor, error) {
	switch flavor {
	case model.FlavorThunderbird:
		return discoverThunderbird(rootHint)
	case model.FlavorAppleMail:
		return discoverAppleMail(rootHint)
	case model.FlavorOutlook:
		return discoverOutlook(rootHint)
	case model.FlavorGeneric:
		return discoverGeneric(rootHint)
	default:
		return nil, fmt.Errorf("unknown email client %q", flavor)
	}
}

// DiscoverAllFolders aggregates the folders of every supported client.
// Per-client discovery errors are skipped; discovery never fails as a
// whole because one client's profile is unreadable.
func DiscoverAllFolders(rootHint string) []model.FolderDescriptor {
	var all []model.FolderDescriptor
	for _, flavor := range []model.ClientFlavor{
		model.FlavorThunderbird,
		model.FlavorAppleMail,
		model.FlavorOutlook,
		model.FlavorGeneric,
	} {
		folders, err := DiscoverFolders(flavor, rootHint)
		if err != nil {
			continue
		}
		all = append(all, folders...)
	}
	return all
}

// existingDirs filters paths down to those that exist and are
// directories.
func existingDirs(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// displayName joins a folder label with the path of an entry relative to
// base (e.g., "Local Folders/Archives/2024").
func displayName(label, base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." {
		return label
	}
	return label + "/" + filepath.ToSlash(rel)
}

// nonEmptyFile reports whether path is a regular file with content.
func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// homePaths expands each relative path against the user home directory.
func homePaths(rel ...string) []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(rel))
	for _, r := range rel {
		out = append(out, filepath.Join(home, filepath.FromSlash(r)))
	}
	return out
}
