package config

import (
	"path/filepath"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitignoreToGlob(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"cache/", []string{"**/cache/**"}},
		{"*.log", []string{"**/*.log", "**/*.log/**"}},
		{"/build", []string{"build", "build/**"}},
		{"docs/generated/", []string{"docs/generated/**"}},
		{"**/tmp", []string{"**/tmp", "**/tmp/**"}},
		{`\#notes`, []string{"**/#notes", "**/#notes/**"}},
		{"/", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, gitignoreToGlob(tt.line))
		})
	}
}

func TestGitignoreGlobsMatch(t *testing.T) {
	tests := []struct {
		line    string
		path    string
		matches bool
	}{
		{"cache/", "app/cache/x.php", true},
		{"cache/", "cache.php", false},
		{"/build", "build/out.php", true},
		{"/build", "src/build/out.php", false},
		{"*.generated.php", "src/Model.generated.php", true},
	}
	for _, tt := range tests {
		t.Run(tt.line+" "+tt.path, func(t *testing.T) {
			matched := false
			for _, glob := range gitignoreToGlob(tt.line) {
				if ok, _ := doublestar.Match(glob, tt.path); ok {
					matched = true
				}
			}
			assert.Equal(t, tt.matches, matched)
		})
	}
}

func TestLoadGitignorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "# comment\n\n/vendor/\n!keep.php\n*.cache\n")

	patterns, err := LoadGitignorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "**/*.cache", "**/*.cache/**"}, patterns)

	patterns, err = LoadGitignorePatterns(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, patterns)
}
