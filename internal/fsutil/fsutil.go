// Package fsutil provides create-new file semantics: outputs are never
// silently overwritten.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// OutputConflictError indicates that an output path already exists.
type OutputConflictError struct {
	Path string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("output already exists: %s", e.Path)
}

// CreateNew creates path for writing, failing if it already exists.
func CreateNew(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &OutputConflictError{Path: path}
		}
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// MkdirNew creates directory path, failing if anything exists there.
func MkdirNew(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &OutputConflictError{Path: path}
		}
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// CheckFree returns an OutputConflictError for the first path that exists.
func CheckFree(paths ...string) error {
	for _, p := range paths {
		_, err := os.Lstat(p)
		if err == nil {
			return &OutputConflictError{Path: p}
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
