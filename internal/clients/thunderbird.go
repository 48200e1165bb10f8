package clients

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/nhle/mailsweep/internal/model"
)

// discoverThunderbird finds mbox folders inside Thunderbird profiles.
// Profiles come from profiles.ini when present, with a directory scan
// fallback for ".default" profiles.
func discoverThunderbird(rootHint string) ([]model.FolderDescriptor, error) {
	bases := []string{rootHint}
	if rootHint == "" {
		bases = homePaths(
			".thunderbird",                // Linux
			"Library/Thunderbird",         // macOS
			"AppData/Roaming/Thunderbird", // Windows
		)
	}

	var profiles []string
	for _, base := range existingDirs(bases) {
		if found := parseProfilesINI(filepath.Join(base, "profiles.ini"), base); len(found) > 0 {
			profiles = append(profiles, found...)
			continue
		}
		// Fallback: older layouts keep "<hash>.default" directories.
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() && strings.HasSuffix(e.Name(), ".default") {
				profiles = append(profiles, filepath.Join(base, e.Name()))
			}
		}
	}
	if rootHint != "" && len(profiles) == 0 {
		// A hint may point straight at a profile directory.
		profiles = append(profiles, rootHint)
	}

	var folders []model.FolderDescriptor
	for _, profile := range profiles {
		mailDir := filepath.Join(profile, "Mail")
		if local := filepath.Join(mailDir, "Local Folders"); dirExists(local) {
			folders = append(folders, scanThunderbirdMail(local, "Local Folders")...)
		}
		if entries, err := os.ReadDir(mailDir); err == nil {
			for _, e := range entries {
				if e.IsDir() && e.Name() != "Local Folders" {
					folders = append(folders,
						scanThunderbirdMail(filepath.Join(mailDir, e.Name()), e.Name())...)
				}
			}
		}
		// Newer versions keep IMAP accounts under ImapMail/<server>.
		imapMail := filepath.Join(profile, "ImapMail")
		if entries, err := os.ReadDir(imapMail); err == nil {
			for _, e := range entries {
				if e.IsDir() {
					folders = append(folders, scanThunderbirdMail(
						filepath.Join(imapMail, e.Name()), "ImapMail/"+e.Name())...)
				}
			}
		}
	}
	return folders, nil
}

// parseProfilesINI extracts profile directories from a Thunderbird
// profiles.ini, resolving relative paths against base.
func parseProfilesINI(path, base string) []string {
	if !nonEmptyFile(path) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil
	}

	var dirs []string
	for section, raw := range v.AllSettings() {
		if !strings.HasPrefix(strings.ToLower(section), "profile") {
			continue
		}
		kv, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		p, _ := kv["path"].(string)
		if p == "" {
			continue
		}
		full := p
		if rel, _ := kv["isrelative"].(string); rel == "1" {
			full = filepath.Join(base, p)
		}
		if dirExists(full) {
			dirs = append(dirs, full)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// scanThunderbirdMail finds mbox files under one mail directory. The
// primary signal is a ".msf" index next to the mail file; a fallback pass
// picks up extensionless files for profiles without indexes (demo
// folders, non-standard setups).
func scanThunderbirdMail(dir, label string) []model.FolderDescriptor {
	var folders []model.FolderDescriptor

	walk := func(fn func(path string, name string, parent string)) {
		_ = filepath.WalkDir(dir, func(path string, de os.DirEntry, err error) error {
			if err != nil || de.IsDir() {
				return nil
			}
			fn(path, de.Name(), filepath.Dir(path))
			return nil
		})
	}

	walk(func(path, name, parent string) {
		if !strings.HasSuffix(name, ".msf") {
			return
		}
		mailFile := strings.TrimSuffix(path, ".msf")
		if nonEmptyFile(mailFile) {
			folders = append(folders, model.FolderDescriptor{
				Path:        mailFile,
				DisplayName: displayName(label, dir, mailFile),
				Format:      model.FormatMbox,
				Flavor:      model.FlavorThunderbird,
			})
		}
	})
	if len(folders) > 0 {
		return folders
	}

	walk(func(path, name, parent string) {
		switch {
		case strings.HasSuffix(name, ".msf"),
			strings.HasSuffix(name, ".html"),
			strings.HasSuffix(name, ".json"),
			strings.HasSuffix(name, ".sqlite"),
			strings.HasSuffix(name, ".txt"):
			return
		}
		if filepath.Ext(name) == "" && nonEmptyFile(path) {
			folders = append(folders, model.FolderDescriptor{
				Path:        path,
				DisplayName: displayName(label, dir, path),
				Format:      model.FormatMbox,
				Flavor:      model.FlavorThunderbird,
			})
		}
	})
	return folders
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
