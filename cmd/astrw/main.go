package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/astrw/internal/config"
	"github.com/standardbeagle/astrw/internal/debug"
	"github.com/standardbeagle/astrw/internal/rules"
	"github.com/standardbeagle/astrw/internal/version"
)

var cleanupFuncs []func()

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	cfg, err := config.LoadWithRoot(configPath, c.String("root"))
	if err != nil {
		if configPath == "" {
			configPath = config.ConfigFileName
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if ruleFlags := c.StringSlice("rules"); len(ruleFlags) > 0 {
		for _, r := range ruleFlags {
			// Rule files named on the command line are relative to the working directory
			abs, err := filepath.Abs(r)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve rule file %q: %w", r, err)
			}
			cfg.Rules = append(cfg.Rules, abs)
		}
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if c.IsSet("workers") {
		cfg.Processing.Workers = c.Int("workers")
	}
	if c.Bool("sample") {
		cfg.Processing.Sample = true
	}
	if trace := c.String("trace"); trace != "" {
		cfg.Debug.Trace = nil
		for category := range debug.ParseTraceCategories(trace) {
			cfg.Debug.Trace = append(cfg.Debug.Trace, category)
		}
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and the rule sets it names, and applies the debug settings
func setup(c *cli.Context) (*config.Config, []*rules.Set, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, nil, err
	}

	if len(cfg.Debug.Trace) > 0 {
		debug.SetTraceCategories(cfg.Debug.Trace)
	}
	if cfg.Debug.LogFile != "" && !debug.MCPMode {
		if _, err := debug.OpenLogFile(cfg.Debug.LogFile); err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, func() { debug.CloseLogFile() })
	}

	sets, err := rules.LoadFiles(cfg.RulePaths())
	if err != nil {
		return nil, nil, err
	}
	if err := rules.CheckRenames(sets); err != nil {
		return nil, nil, err
	}
	return cfg, sets, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "astrw",
		Usage:                  "Rewrite PHP syntax trees with registered visitors",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: " + config.ConfigFileName + " in the project root)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.php')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/tests/**')",
			},
			&cli.StringSliceFlag{
				Name:  "rules",
				Usage: "Additional TOML rule files",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of parallel workers (0 = auto)",
			},
			&cli.BoolFlag{
				Name:  "sample",
				Usage: "Register the sample visitor for " + rules.SampleFunction,
			},
			&cli.StringFlag{
				Name:  "trace",
				Usage: "Trace categories (namespace,use,call,replacement,ast or all); needs an astrwdebug build",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "rewrite",
				Aliases:   []string{"rw"},
				Usage:     "Rewrite project files, or only the given ones",
				ArgsUsage: "[files...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
					&cli.BoolFlag{
						Name:    "dump",
						Aliases: []string{"d"},
						Usage:   "Print the rewritten syntax tree of every file",
					},
					&cli.StringFlag{
						Name:  "changed",
						Usage: "Only rewrite files git reports as changed: staged, wip, commit or range",
					},
					&cli.StringFlag{
						Name:  "base",
						Usage: "Commit for --changed commit, or range start for --changed range",
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "Range end for --changed range (default: HEAD)",
					},
				},
				Action: rewriteCommand,
			},
			{
				Name:  "visitors",
				Usage: "List registered visitors",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "space",
						Usage: "Only list one space: kind, function or attribute",
					},
					&cli.StringFlag{
						Name:  "suggest",
						Usage: "Suggest registered keys close to this one (requires --space)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of suggestions",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: visitorsCommand,
			},
			{
				Name:   "config",
				Usage:  "Show the effective configuration",
				Action: configCommand,
			},
			{
				Name:   "watch",
				Usage:  "Rewrite the project, then rewrite files again as they change",
				Action: watchCommand,
			},
			{
				Name:  "version",
				Usage: "Show build information",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: versionCommand,
			},
			{
				Name:  "mcp",
				Usage: "Start MCP (Model Context Protocol) server with stdio transport",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "log-dir",
						Usage: "Directory for the diagnostic log (default: astrw-mcp-logs in the temp directory)",
					},
				},
				Action: mcpCommand,
			},
		},
		After: func(c *cli.Context) error {
			for i := len(cleanupFuncs) - 1; i >= 0; i-- {
				cleanupFuncs[i]()
			}
			cleanupFuncs = nil
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
