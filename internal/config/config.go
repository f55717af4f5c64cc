package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the project configuration file looked up in the project root
// and in the user's home directory
const ConfigFileName = ".astrw.kdl"

const (
	DefaultMaxFileSize     = 4 * 1024 * 1024
	DefaultWatchDebounceMs = 300
)

type Config struct {
	Version    int
	Project    Project
	Include    []string
	Exclude    []string
	Rules      []string // rule files, relative to the project root unless absolute
	Processing Processing
	Watch      Watch
	Debug      Debug
}

type Project struct {
	Root string
	Name string
}

type Processing struct {
	Workers          int   // 0 = auto-detect (NumCPU-1)
	MaxFileSize      int64 // bytes; larger files are reported and skipped
	FollowSymlinks   bool
	RespectGitignore bool // add .gitignore entries to the exclusions
	Sample           bool // register the debug sample visitor
}

type Watch struct {
	Enabled    bool
	DebounceMs int // Debounce time for file change events
}

type Debug struct {
	Trace   []string // trace categories, see debug.ParseTraceCategories
	LogFile string
}

// Default returns the configuration used when no file is present
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Include: []string{"**/*.php"},
		Exclude: defaultExclusions(),
		Processing: Processing{
			Workers:          0,
			MaxFileSize:      DefaultMaxFileSize,
			RespectGitignore: true,
		},
		Watch: Watch{
			DebounceMs: DefaultWatchDebounceMs,
		},
	}
}

func defaultExclusions() []string {
	return []string{
		// Git metadata
		"**/.git/**",

		// Hidden directories (catch-all for dot directories)
		"**/.*/**",

		// Dependencies
		"**/vendor/**",
		"**/node_modules/**",

		// Generated PHP
		"**/var/cache/**",           // Symfony
		"**/storage/framework/**",   // Laravel compiled views and caches
		"**/bootstrap/cache/**",     // Laravel
		"**/*.blade.php",            // templates, not plain PHP
		"**/*.twig.php",             // compiled Twig
		"**/.phpunit.cache/**",      // PHPUnit
		"**/.php-cs-fixer.cache/**", // PHP CS Fixer
	}
}

// Load reads the configuration for the current directory
func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot reads the configuration for rootDir. An explicit path wins over the
// project file; the global ~/.astrw.kdl is merged underneath either.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}
	absSearch, err := filepath.Abs(searchDir)
	if err == nil {
		searchDir = absSearch
	}

	// Step 1: global base config
	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != searchDir {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	// Step 2: project config, explicit file first
	var projectConfig *Config
	if path != "" {
		projectConfig, err = LoadKDLFile(path, searchDir)
		if err != nil {
			return nil, err
		}
	} else {
		projectConfig, err = LoadKDL(searchDir)
		if err != nil {
			return nil, err
		}
	}

	// Step 3: merge (project overrides base, exclusions accumulate)
	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Project.Root = searchDir
		baseConfig.Project.Name = filepath.Base(searchDir)
		cfg = baseConfig
	default:
		cfg = Default(searchDir)
	}

	cfg.EnrichExclusionsWithBuildArtifacts()
	if cfg.Processing.RespectGitignore {
		cfg.EnrichExclusionsWithGitignore()
	}
	return cfg, nil
}

// mergeConfigs merges a base config with a project config
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	merged.Exclude = DeduplicatePatterns(append(append([]string{}, base.Exclude...), project.Exclude...))

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	// Rule files from the global config apply everywhere
	merged.Rules = DeduplicatePatterns(append(append([]string{}, base.Rules...), project.Rules...))

	if len(project.Debug.Trace) == 0 {
		merged.Debug.Trace = base.Debug.Trace
	}

	return &merged
}

// RulePaths returns the rule files with relative paths resolved against the project root
func (c *Config) RulePaths() []string {
	paths := make([]string, 0, len(c.Rules))
	for _, p := range c.Rules {
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Project.Root, p)
		}
		paths = append(paths, filepath.Clean(p))
	}
	return paths
}

// EffectiveWorkers resolves the auto-detect worker count
func (c *Config) EffectiveWorkers() int {
	if c.Processing.Workers > 0 {
		return c.Processing.Workers
	}
	return max(1, runtime.NumCPU()-1)
}

// EnrichExclusionsWithBuildArtifacts detects generated directories from project
// manifests and adds them to the exclusion list
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	if detected := detector.DetectOutputDirectories(); len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// EnrichExclusionsWithGitignore adds the project's .gitignore entries to the exclusions
func (c *Config) EnrichExclusionsWithGitignore() {
	if c.Project.Root == "" {
		return
	}

	patterns, err := LoadGitignorePatterns(c.Project.Root)
	if err != nil || len(patterns) == 0 {
		return
	}
	c.Exclude = DeduplicatePatterns(append(c.Exclude, patterns...))
}
