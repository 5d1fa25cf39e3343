package utils

import (
	"os"
	"path/filepath"
)

// EnsureParent creates the parent directory of path when it is missing.
func EnsureParent(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// EnsureDir creates the directory (and any missing ancestors) when it
// does not exist.
func EnsureDir(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}
