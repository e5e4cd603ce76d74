// Package fileutil writes converted records to disk.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// OwnerReadWrite is the file permission mode for converted records,
// which may carry user data (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// RejectSymlink returns an error if path exists and is a symlink.
func RejectSymlink(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking output path: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("refusing to write to symlink: %s", path)
	}
	return nil
}

// WriteOutput writes data to path with OwnerReadWrite permissions, refusing
// to follow a symlink at the destination.
func WriteOutput(path string, data []byte) error {
	cleaned := filepath.Clean(path)
	if err := RejectSymlink(cleaned); err != nil {
		return err
	}
	if err := os.WriteFile(cleaned, data, OwnerReadWrite); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
