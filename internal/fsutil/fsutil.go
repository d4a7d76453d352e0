// Package fsutil provides small filesystem helpers shared by the CLI
// output paths.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if it does not already exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParent creates the parent directory of path if needed, so a
// subsequent file write cannot fail on a missing directory.
func EnsureParent(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// Exists reports whether a file or directory exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
