package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from the .astrw.kdl file in projectRoot.
// A missing file yields nil, nil.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ConfigFileName)

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}
	return LoadKDLFile(kdlPath, projectRoot)
}

// LoadKDLFile loads an explicit configuration file. A relative project root in the
// file is resolved against the file's directory.
func LoadKDLFile(path string, defaultRoot string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content), defaultRoot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Project.Root != defaultRoot {
		if !filepath.IsAbs(cfg.Project.Root) {
			cfg.Project.Root = filepath.Join(filepath.Dir(path), cfg.Project.Root)
		}
		if abs, err := filepath.Abs(cfg.Project.Root); err == nil {
			cfg.Project.Root = abs
		}
		if cfg.Project.Name == filepath.Base(defaultRoot) {
			cfg.Project.Name = filepath.Base(cfg.Project.Root)
		}
	}
	return cfg, nil
}

// parseKDL decodes the configuration document on top of Default(defaultRoot).
//
//	project { root "."; name "shop"; }
//	include "src/**/*.php"
//	exclude "**/tests/**" "**/fixtures/**"
//	rules "rewrite.toml"
//	processing { workers 4; max_file_size "2MB"; respect_gitignore true; sample false; }
//	watch { enabled true; debounce_ms 300; }
//	debug { trace "namespace" "call"; log_file "astrw.log"; }
func parseKDL(content string, defaultRoot string) (*Config, error) {
	cfg := Default(defaultRoot)

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	includeSet := false
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "include":
			// The first include replaces the default; later ones accumulate
			if !includeSet {
				cfg.Include = nil
				includeSet = true
			}
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		case "rules":
			cfg.Rules = append(cfg.Rules, collectStringArgs(n)...)
		case "processing":
			parseProcessing(cfg, n)
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "debug":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "trace":
					cfg.Debug.Trace = append(cfg.Debug.Trace, collectStringArgs(cn)...)
				case "log_file":
					if s, ok := firstStringArg(cn); ok {
						cfg.Debug.LogFile = s
					}
				}
			}
		default:
			log.Printf("WARNING: unknown node '%s' in KDL config", nodeName(n))
		}
	}

	cfg.Exclude = DeduplicatePatterns(cfg.Exclude)
	return cfg, nil
}

func parseProcessing(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Processing.Workers = v
			}
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Processing.MaxFileSize = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.Processing.MaxFileSize = sz
				} else {
					log.Printf("WARNING: invalid max_file_size %q in KDL config: %v", s, err)
				}
			}
		case "follow_symlinks":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Processing.FollowSymlinks = b
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Processing.RespectGitignore = b
			}
		case "sample":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Processing.Sample = b
			}
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs reads inline arguments, or block children for the
// exclude { "pattern" } form where the node name is the value
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
