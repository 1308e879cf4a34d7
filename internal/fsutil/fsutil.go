// Package fsutil provides filesystem helpers shared by the file-backed
// stores. All durable documents are replaced whole, never patched in place.
package fsutil

import (
	"fmt"
	"os"
)

// AtomicWriteFile writes data to path by writing a temporary file in the
// same directory and renaming it over the target. The rename is atomic on
// POSIX filesystems, so readers never observe a half-written document.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}

// EnsureDir creates dir (and parents) with owner-only permissions if it
// does not already exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
