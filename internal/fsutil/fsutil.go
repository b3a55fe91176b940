// Package fsutil reads user-supplied files with a size cap.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxInputBytes bounds input documents and rules files. It matches the
// HTTP API's request body limit.
const MaxInputBytes = 8 << 20

// ErrTooLarge is returned when a file exceeds the read limit.
type ErrTooLarge struct {
	Path  string
	Limit int64
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("%s exceeds %d bytes", e.Path, e.Limit)
}

// ReadFileScoped reads a file through a root opened at the file's directory,
// so the name cannot escape it, and fails when it holds more than limit bytes.
// A non-positive limit uses MaxInputBytes.
func ReadFileScoped(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = MaxInputBytes
	}

	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file path: %q", path)
	}

	root, err := os.OpenRoot(filepath.Dir(cleaned))
	if err != nil {
		return nil, err
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &ErrTooLarge{Path: path, Limit: limit}
	}
	return data, nil
}
