// Package security validates user-supplied paths before they are opened.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for paths containing shell metacharacters.
var ErrUnsafePath = errors.New("unsafe file path")

const forbiddenChars = ";&|$`(){}<>!\n\r"

// CleanPath rejects empty or metacharacter-bearing paths and returns the
// absolute, symlink-resolved form. Paths that do not exist yet are returned cleaned.
func CleanPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafePath)
	}
	if i := strings.IndexAny(path, forbiddenChars); i >= 0 {
		return "", fmt.Errorf("%w: forbidden character %q in %s", ErrUnsafePath, path[i], path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return resolved, nil
}

// Open opens path for reading after CleanPath. "-" opens standard input.
func Open(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	clean, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.Open(clean)
}
