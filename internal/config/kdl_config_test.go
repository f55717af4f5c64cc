package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("", "/work/shop")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/work/shop", cfg.Project.Root)
	assert.Equal(t, "shop", cfg.Project.Name)
	assert.Equal(t, []string{"**/*.php"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "**/vendor/**")
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.Processing.MaxFileSize)
	assert.True(t, cfg.Processing.RespectGitignore)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, DefaultWatchDebounceMs, cfg.Watch.DebounceMs)
}

func TestParseKDL_FullConfig(t *testing.T) {
	kdlContent := `
project {
    root "app"
    name "shop"
}
include "src/**/*.php" "lib/**/*.php"
exclude "**/fixtures/**"
rules "rewrite.toml"
rules "legacy.toml"
processing {
    workers 3
    max_file_size "2MB"
    follow_symlinks true
    respect_gitignore false
    sample true
}
watch {
    enabled true
    debounce_ms 150
}
debug {
    trace "namespace" "call"
    log_file "astrw.log"
}
`
	cfg, err := parseKDL(kdlContent, "/work")
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Project.Root)
	assert.Equal(t, "shop", cfg.Project.Name)
	assert.Equal(t, []string{"src/**/*.php", "lib/**/*.php"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "**/fixtures/**")
	assert.Contains(t, cfg.Exclude, "**/vendor/**")
	assert.Equal(t, []string{"rewrite.toml", "legacy.toml"}, cfg.Rules)

	assert.Equal(t, 3, cfg.Processing.Workers)
	assert.Equal(t, int64(2*1024*1024), cfg.Processing.MaxFileSize)
	assert.True(t, cfg.Processing.FollowSymlinks)
	assert.False(t, cfg.Processing.RespectGitignore)
	assert.True(t, cfg.Processing.Sample)

	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 150, cfg.Watch.DebounceMs)

	assert.Equal(t, []string{"namespace", "call"}, cfg.Debug.Trace)
	assert.Equal(t, "astrw.log", cfg.Debug.LogFile)
}

func TestParseKDL_BlockExclude(t *testing.T) {
	kdlContent := `
exclude {
    "**/generated/**"
    "**/cache/**"
}
`
	cfg, err := parseKDL(kdlContent, "/work")
	require.NoError(t, err)

	assert.Contains(t, cfg.Exclude, "**/generated/**")
	assert.Contains(t, cfg.Exclude, "**/cache/**")
}

func TestParseKDL_IntegerFileSize(t *testing.T) {
	cfg, err := parseKDL("processing { max_file_size 1024; }", "/work")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), cfg.Processing.MaxFileSize)
}

func TestParseKDL_Invalid(t *testing.T) {
	_, err := parseKDL("project {", "/work")
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10", 10},
		{"10B", 10},
		{"2KB", 2048},
		{"3mb", 3 * 1024 * 1024},
		{" 1GB ", 1024 * 1024 * 1024},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseSize("lots")
	assert.Error(t, err)
}

func TestLoadKDL(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadKDL(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("relative root resolves against the file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
			[]byte(`project { root "src"; }`), 0o644))

		cfg, err := LoadKDL(dir)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, filepath.Join(dir, "src"), cfg.Project.Root)
		assert.Equal(t, "src", cfg.Project.Name)
	})

	t.Run("no root keeps the directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
			[]byte(`watch { enabled true; }`), 0o644))

		cfg, err := LoadKDL(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, cfg.Project.Root)
		assert.True(t, cfg.Watch.Enabled)
	})

	t.Run("parse error names the file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ConfigFileName)
		require.NoError(t, os.WriteFile(path, []byte(`project {`), 0o644))

		_, err := LoadKDL(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}
