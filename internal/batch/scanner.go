package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/astrw/internal/debug"
)

// Matcher applies include/exclude globs to slash-separated paths relative to the
// project root
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher creates a matcher. Invalid patterns never match.
func NewMatcher(include, exclude []string) *Matcher {
	return &Matcher{
		include: append([]string(nil), include...),
		exclude: append([]string(nil), exclude...),
	}
}

// Excluded reports whether any exclusion pattern matches rel
func (m *Matcher) Excluded(rel string) bool {
	for _, pattern := range m.exclude {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			// A bad pattern shouldn't break scanning
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Included reports whether rel matches an inclusion pattern. No patterns include everything.
func (m *Matcher) Included(rel string) bool {
	if len(m.include) == 0 {
		return true
	}
	for _, pattern := range m.include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// Match reports whether a file is selected
func (m *Matcher) Match(rel string) bool {
	return m.Included(rel) && !m.Excluded(rel)
}

// PruneDir reports whether nothing under the directory can be selected
func (m *Matcher) PruneDir(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	// A child name no pattern is written against stands in for "anything below"
	return m.Excluded(rel) || m.Excluded(rel+"/\x00")
}

// Scan walks root and returns the selected files as slash-separated relative paths, sorted
func Scan(ctx context.Context, root string, m *Matcher, followSymlinks bool) ([]string, error) {
	var files []string
	visitedDirs := make(map[string]bool)

	var walk func(dir, relDir string) error
	walk = func(dir, relDir string) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				debug.LogBatch("Scanner error for %s: %v", path, err)
				return nil
			}

			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(filepath.Join(relDir, rel))

			if d.IsDir() {
				// Symlink cycles are only possible when following links
				if realPath, err := filepath.EvalSymlinks(path); err == nil {
					if visitedDirs[realPath] {
						return filepath.SkipDir
					}
					visitedDirs[realPath] = true
				}
				if m.PruneDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				if !followSymlinks {
					return nil
				}
				target, err := filepath.EvalSymlinks(path)
				if err != nil {
					debug.LogBatch("Skipping unresolvable symlink: %s (error: %v)", path, err)
					return nil
				}
				info, err := os.Stat(target)
				if err != nil {
					return nil
				}
				if info.IsDir() {
					if m.PruneDir(rel) {
						return nil
					}
					return walk(target, rel)
				}
			}

			if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			if m.Match(rel) {
				files = append(files, rel)
			}
			return nil
		})
	}

	if err := walk(root, "."); err != nil {
		return nil, err
	}

	sort.Strings(files)
	debug.LogBatch("Scanned %s: %d files selected", root, len(files))
	return files, nil
}
