package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: "/test/root"},
		Exclude: []string{"**/vendor/**"},
	}

	validator := NewValidator()
	require.NoError(t, validator.ValidateAndSetDefaults(cfg))

	assert.Positive(t, cfg.Processing.Workers)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.Processing.MaxFileSize)
	assert.Equal(t, DefaultWatchDebounceMs, cfg.Watch.DebounceMs)
	assert.Equal(t, "root", cfg.Project.Name)
	assert.Equal(t, []string{"**/*.php"}, cfg.Include)
}

func TestValidateAndSetDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Default("/test/root")
	cfg.Processing.Workers = 7
	cfg.Watch.DebounceMs = 50

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, 7, cfg.Processing.Workers)
	assert.Equal(t, 50, cfg.Watch.DebounceMs)
}

func TestValidateAndSetDefaults_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty root", func(c *Config) { c.Project.Root = "" }, "project"},
		{"bad include", func(c *Config) { c.Include = []string{"src/[a-"} }, "include"},
		{"bad exclude", func(c *Config) { c.Exclude = append(c.Exclude, "{unclosed") }, "exclude"},
		{"negative workers", func(c *Config) { c.Processing.Workers = -1 }, "processing"},
		{"too many workers", func(c *Config) { c.Processing.Workers = 1000 }, "processing"},
		{"negative file size", func(c *Config) { c.Processing.MaxFileSize = -5 }, "processing"},
		{"huge file size", func(c *Config) { c.Processing.MaxFileSize = 1 << 40 }, "processing"},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -1 }, "watch"},
		{"unknown trace", func(c *Config) { c.Debug.Trace = []string{"namespace", "everything"} }, "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/test/root")
			tt.modify(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)

			var cfgErr *astrwerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateAndSetDefaults_TraceAll(t *testing.T) {
	cfg := Default("/test/root")
	cfg.Debug.Trace = []string{"all"}
	assert.NoError(t, ValidateConfig(cfg))
}
