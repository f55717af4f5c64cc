// Package pathutil converts between absolute paths and the slash-separated,
// root-relative paths shown to users and matched against globs.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts a path to slash-separated form relative to rootDir. Paths that
// are already relative, lie outside the root, or cannot be converted are returned
// in slash form unchanged.
//
// Examples:
//   - ToRelative("/srv/app/src/Kernel.php", "/srv/app") → "src/Kernel.php"
//   - ToRelative("/other/lib.php", "/srv/app") → "/other/lib.php"
//   - ToRelative("src/Kernel.php", "/srv/app") → "src/Kernel.php"
func ToRelative(path, rootDir string) string {
	if path == "" || rootDir == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}

	path = filepath.Clean(path)
	relPath, err := filepath.Rel(filepath.Clean(rootDir), path)
	if err != nil {
		// Different volumes on Windows
		return filepath.ToSlash(path)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(relPath)
}

// ToAbsolute joins a slash-separated relative path onto rootDir. Absolute paths are
// returned cleaned.
func ToAbsolute(path, rootDir string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(rootDir, filepath.FromSlash(path))
}
