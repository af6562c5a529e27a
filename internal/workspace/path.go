package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard ensures operations stay within a base directory.
type PathGuard struct {
	BaseDir string
}

// NewPathGuard constructs a guard rooted at baseDir (defaults to current working directory).
func NewPathGuard(baseDir string) (*PathGuard, error) {
	if baseDir == "" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	resolvedBase, err := evalExisting(absBase)
	if err != nil {
		return nil, err
	}
	return &PathGuard{BaseDir: resolvedBase}, nil
}

// Resolve validates and returns an absolute path inside BaseDir with symlinks resolved.
// Relative paths are taken relative to the current working directory, like any CLI argument.
func (g *PathGuard) Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := evalExisting(abs)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(resolved, g.BaseDir+string(os.PathSeparator)) && resolved != g.BaseDir {
		return "", fmt.Errorf("path %s escapes workspace %s", p, g.BaseDir)
	}
	return resolved, nil
}

// evalExisting resolves symlinks in the longest existing prefix of an absolute path and
// appends the missing tail unchanged.
func evalExisting(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p, nil
	}
	resolvedParent, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(p)), nil
}
