//go:build !windows

package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// atomicWriteFile writes data to path through a temp file and rename, creating
// the parent directory first.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating result directory: %w", err)
	}
	return renameio.WriteFile(path, data, perm)
}
