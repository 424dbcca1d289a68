// Package validation guards filesystem paths built from portal data.
// Manifest file names come from the API and must never be trusted to
// stay inside the download directory on their own.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename validates a bare filename (not a path) before it is
// used in filepath.Join. Rejects empty names, path separators, null
// bytes, and the literal "..". Names like "report..v2.csv" are fine
// since separators are already excluded.
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %s", filename)
	}
	if strings.ContainsRune(filename, '/') || strings.ContainsRune(filename, '\\') {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}
	if filename == ".." {
		return fmt.Errorf("filename cannot be '..'")
	}
	return nil
}

// ValidatePathInDirectory verifies that path, resolved against baseDir,
// stays inside baseDir. Relative paths resolve under baseDir; absolute
// paths are compared directly.
func ValidatePathInDirectory(path, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	cleanBase := filepath.Clean(baseDir)
	if !filepath.IsAbs(cleanBase) {
		abs, err := filepath.Abs(cleanBase)
		if err != nil {
			return fmt.Errorf("failed to resolve base directory: %w", err)
		}
		cleanBase = abs
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cleanBase, resolved)
	}

	rel, err := filepath.Rel(cleanBase, resolved)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}
	return nil
}
