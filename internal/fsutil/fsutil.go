package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"devicemgr/internal/logging"
)

const (
	// DefaultDirPermissions is used for report directories
	DefaultDirPermissions = 0o750
	// DefaultFilePermissions is used for written reports
	DefaultFilePermissions = 0o600
)

// AtomicWriteFile writes data to a file atomically by first writing to a temp file
// in the same directory and then renaming it to the target path.
// Missing parent directories are created.
func AtomicWriteFile(path string, data []byte, perm os.FileMode, logger *logging.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("fsutil.cleanup.failed", "Failed to remove temp file", map[string]interface{}{
				"path":  tmpPath,
				"error": removeErr.Error(),
			})
		}
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
