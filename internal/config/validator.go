package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/astrw/internal/debug"
	astrwerrors "github.com/standardbeagle/astrw/internal/errors"
)

const (
	maxFileSizeLimit = 64 * 1024 * 1024
	maxWorkers       = 256
	maxDebounceMs    = 60_000
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return astrwerrors.NewConfigError("project", cfg.Project.Root, err)
	}

	if err := v.validatePatterns(cfg.Include); err != nil {
		return astrwerrors.NewConfigError("include", "", err)
	}

	if err := v.validatePatterns(cfg.Exclude); err != nil {
		return astrwerrors.NewConfigError("exclude", "", err)
	}

	if err := v.validateProcessingConfig(&cfg.Processing); err != nil {
		return astrwerrors.NewConfigError("processing", "", err)
	}

	if err := v.validateWatchConfig(&cfg.Watch); err != nil {
		return astrwerrors.NewConfigError("watch", "", err)
	}

	if err := v.validateDebugConfig(&cfg.Debug); err != nil {
		return astrwerrors.NewConfigError("debug", strings.Join(cfg.Debug.Trace, ","), err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

// validateProjectConfig validates project configuration
func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

// validatePatterns rejects globs doublestar cannot compile
func (v *Validator) validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// validateProcessingConfig validates processing configuration
func (v *Validator) validateProcessingConfig(proc *Processing) error {
	// Workers: 0 means auto-detect (will be set by smart defaults)
	if proc.Workers < 0 {
		return fmt.Errorf("Workers cannot be negative, got %d", proc.Workers)
	}
	if proc.Workers > maxWorkers {
		return fmt.Errorf("Workers should not exceed %d, got %d", maxWorkers, proc.Workers)
	}

	if proc.MaxFileSize < 0 {
		return fmt.Errorf("MaxFileSize cannot be negative, got %d", proc.MaxFileSize)
	}
	if proc.MaxFileSize > maxFileSizeLimit {
		return fmt.Errorf("MaxFileSize should not exceed 64MB, got %d", proc.MaxFileSize)
	}

	return nil
}

// validateWatchConfig validates watch configuration
func (v *Validator) validateWatchConfig(watch *Watch) error {
	if watch.DebounceMs < 0 || watch.DebounceMs > maxDebounceMs {
		return fmt.Errorf("DebounceMs must be between 0 and %d, got %d", maxDebounceMs, watch.DebounceMs)
	}
	return nil
}

// validateDebugConfig validates trace category names
func (v *Validator) validateDebugConfig(dbg *Debug) error {
	for category := range debug.ParseTraceCategories(strings.Join(dbg.Trace, ",")) {
		if !debug.KnownTraceCategory(category) {
			return fmt.Errorf("unknown trace category %q", category)
		}
	}
	return nil
}

// setSmartDefaults applies smart defaults based on system capabilities
func (v *Validator) setSmartDefaults(cfg *Config) {
	// Leave one core free for the OS and other applications
	if cfg.Processing.Workers == 0 {
		cfg.Processing.Workers = max(1, runtime.NumCPU()-1)
	}

	if cfg.Processing.MaxFileSize == 0 {
		cfg.Processing.MaxFileSize = DefaultMaxFileSize
	}

	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultWatchDebounceMs
	}

	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}

	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**/*.php"}
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
