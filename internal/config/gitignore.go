package config

import (
	"bufio"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadGitignorePatterns converts the root .gitignore into doublestar exclusion globs.
// A missing file is not an error. Negated entries cannot be expressed as exclusions
// and are skipped.
func LoadGitignorePatterns(rootPath string) ([]string, error) {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "!") {
			log.Printf("gitignore: negated pattern %q is not supported, skipping", line)
			continue
		}
		patterns = append(patterns, gitignoreToGlob(line)...)
	}
	return patterns, scanner.Err()
}

// gitignoreToGlob maps one gitignore entry onto globs matched against
// slash-separated paths relative to the project root
func gitignoreToGlob(line string) []string {
	line = strings.TrimPrefix(line, `\`)

	dirOnly := strings.HasSuffix(line, "/")
	line = strings.TrimSuffix(line, "/")

	// A separator anywhere but the end anchors the entry to the root
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return nil
	}

	base := line
	if !anchored && !strings.HasPrefix(line, "**/") {
		base = "**/" + line
	}

	if dirOnly {
		return []string{base + "/**"}
	}
	// Either a file or a directory with that name
	return []string{base, base + "/**"}
}
