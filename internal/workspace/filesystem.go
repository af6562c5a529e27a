package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem reads sources and creates new files, optionally confined to a workspace root.
// It never truncates or replaces an existing file.
type Filesystem struct {
	guard *PathGuard
}

// NewFilesystem builds a filesystem confined to baseDir. An empty baseDir disables confinement.
func NewFilesystem(baseDir string) (*Filesystem, error) {
	if baseDir == "" {
		return &Filesystem{}, nil
	}
	guard, err := NewPathGuard(baseDir)
	if err != nil {
		return nil, err
	}
	return &Filesystem{guard: guard}, nil
}

// Resolve returns the absolute form of path after workspace checks.
func (f *Filesystem) Resolve(path string) (string, error) {
	if f.guard != nil {
		return f.guard.Resolve(path)
	}
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	return filepath.Abs(path)
}

// ReadFile returns file contents as string.
func (f *Filesystem) ReadFile(path string) (string, error) {
	resolved, err := f.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Exists reports whether anything is present at path.
func (f *Filesystem) Exists(path string) (bool, error) {
	resolved, err := f.Resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Lstat(resolved)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// CreateFile writes content to a new file. It fails with an error matching fs.ErrExist
// if the path is already taken, and removes a partially written file on failure.
func (f *Filesystem) CreateFile(path, content string) (err error) {
	resolved, err := f.Resolve(path)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(resolved, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(resolved)
		}
	}()

	_, err = file.WriteString(content)
	return err
}
