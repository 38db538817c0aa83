package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates path with any missing parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", path, err)
	}
	return nil
}

// SafeJoin joins name onto root with any directory components stripped
// from name, so a crafted filename cannot escape root.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}
