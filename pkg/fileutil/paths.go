package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve turns a path from step parameters into an absolute, cleaned path.
// "~/" expands to the user's home directory and other relative paths are
// joined with baseDir, the directory of the workflow document (or the working
// directory when baseDir is empty).
func Resolve(baseDir, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %q: %w", path, err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	if baseDir == "" {
		return filepath.Abs(path)
	}
	return filepath.Abs(filepath.Join(baseDir, path))
}
