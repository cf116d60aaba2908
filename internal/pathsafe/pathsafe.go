// Package pathsafe validates workspace-relative include paths.
//
// Prompt templates name the files they pull in, which makes every include
// path caller-supplied input. Validation is purely syntactic: a safe path is
// non-empty, relative, and contains no parent-directory component. No
// filesystem access occurs.
package pathsafe

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for paths that could escape the workspace root.
var ErrUnsafePath = errors.New("unsafe path")

// Validate reports whether path is safe to resolve against the workspace
// root. A nil return means safe. Current-directory markers and redundant
// separators are tolerated; any parent-directory marker is rejected.
func Validate(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafePath)
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return fmt.Errorf("%w: absolute path %q", ErrUnsafePath, path)
	}
	for _, seg := range strings.FieldsFunc(path, isSeparator) {
		if seg == ".." {
			return fmt.Errorf("%w: parent directory reference in %q", ErrUnsafePath, path)
		}
	}
	return nil
}

// IsSafe is a convenience wrapper for advisory callers that treat an unsafe
// path as absent rather than as an error.
func IsSafe(path string) bool {
	return Validate(path) == nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
