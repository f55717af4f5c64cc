// Generated-code detection from PHP project manifests
// Parses composer.json and framework markers to find directories that hold vendored
// or compiled PHP which must never be rewritten
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// BuildArtifactDetector finds framework and package-manager output directories
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans for manifests and returns glob patterns to exclude
// (e.g., "**/lib/vendor/**")
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string

	// Composer: config.vendor-dir / config.bin-dir
	patterns = append(patterns, bad.detectComposerOutputs()...)

	// Framework caches keyed on their entry points
	patterns = append(patterns, bad.detectFrameworkOutputs()...)

	return patterns
}

type composerManifest struct {
	Config struct {
		VendorDir string `json:"vendor-dir"`
		BinDir    string `json:"bin-dir"`
		CacheDir  string `json:"cache-dir"`
	} `json:"config"`
	Extra struct {
		InstallerPaths map[string][]string `json:"installer-paths"`
	} `json:"extra"`
}

// detectComposerOutputs reads composer.json for relocated dependency directories
func (bad *BuildArtifactDetector) detectComposerOutputs() []string {
	var patterns []string

	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "composer.json"))
	if err != nil {
		return nil
	}
	var manifest composerManifest
	if json.Unmarshal(data, &manifest) != nil {
		return nil
	}

	for _, dir := range []string{manifest.Config.VendorDir, manifest.Config.BinDir, manifest.Config.CacheDir} {
		if pattern := dirPattern(dir); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}

	// installer-paths hold third-party packages, e.g. "web/modules/contrib/{$name}"
	for path := range manifest.Extra.InstallerPaths {
		if i := strings.Index(path, "{"); i >= 0 {
			path = path[:i]
		}
		if pattern := dirPattern(path); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}

	return patterns
}

// detectFrameworkOutputs adds compiled caches of frameworks found in the root
func (bad *BuildArtifactDetector) detectFrameworkOutputs() []string {
	var patterns []string

	// Laravel
	if bad.exists("artisan") {
		patterns = append(patterns, "storage/**", "bootstrap/cache/**")
	}

	// Symfony
	if bad.exists(filepath.Join("bin", "console")) {
		patterns = append(patterns, "var/**")
	}

	// WordPress core
	if bad.exists("wp-config.php") || bad.exists("wp-settings.php") {
		patterns = append(patterns, "wp-admin/**", "wp-includes/**")
	}

	return patterns
}

func (bad *BuildArtifactDetector) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(bad.projectRoot, rel))
	return err == nil
}

// dirPattern turns a manifest directory into a root-anchored exclusion glob
func dirPattern(dir string) string {
	dir = strings.Trim(filepath.ToSlash(strings.TrimSpace(dir)), "/")
	dir = strings.TrimPrefix(dir, "./")
	if dir == "" || dir == "." || strings.HasPrefix(dir, "..") || filepath.IsAbs(dir) {
		return ""
	}
	return dir + "/**"
}

// DeduplicatePatterns removes duplicate exclusion patterns, keeping the first occurrence
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
