package config

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// FindProjectConfig walks up from startDir looking for a .bulkrun.yaml file
// and returns its path, or "" when none is found before the filesystem root.
func FindProjectConfig(fs afero.Fs, startDir string) string {
	if startDir == "" {
		return ""
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if info, statErr := fs.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
