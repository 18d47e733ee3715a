// Package fsutil provides filesystem utilities for atomic, durable writes.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite writes data to a temporary file in the target directory,
// fsyncs it, then renames over the target path. The rename is the commit
// point: readers never observe a partially written file.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vest-tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write create tmp: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("atomic write: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("atomic write chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("atomic write fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomic write close: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic write rename: %w", err)
	}
	if err := FsyncDir(dir); err != nil {
		return fmt.Errorf("atomic write fsync dir: %w", err)
	}

	success = true
	return nil
}

// FsyncDir fsyncs a directory so a completed rename survives a crash.
func FsyncDir(dirPath string) error {
	d, err := os.Open(dirPath)
	if err != nil {
		return fmt.Errorf("fsync dir open: %w", err)
	}
	defer d.Close()
	return d.Sync()
}
