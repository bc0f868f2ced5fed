package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/disposeflow/internal/config"
	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadWithRoot(c.String("config"), c.String("root"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = config.DeduplicatePatterns(append(cfg.Exclude, excludeFlags...))
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if c.IsSet("workers") {
		cfg.Performance.Workers = c.Int("workers")
	}
	if c.IsSet("scope") {
		cfg.Analysis.Scope = c.String("scope")
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "disposeflow",
		Usage:                  "Find IDisposable leaks in C# code by tracking where values flow",
		Version:                version.Current().Short(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.kdl or .toml); default is " + config.KDLFileName + " or " + config.TOMLFileName + " in the root",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.cs')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/Migrations/**')",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Parallel parse and check workers",
			},
			&cli.StringFlag{
				Name:  "scope",
				Usage: "How far value walks follow calls: toplevel, type, recursive",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a rotating log file in the temp directory",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				debug.SetEnabled(true)
				fmt.Fprintf(c.App.ErrWriter, "debug log: %s\n", path)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Report disposal diagnostics for files or directories",
				ArgsUsage: "[paths...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, compact, json",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "fixes",
						Usage: "List suggested fixes under each diagnostic",
					},
					&cli.StringFlag{
						Name:  "min-severity",
						Usage: "Hide diagnostics below this severity",
					},
				},
				Action: checkCommand,
			},
			{
				Name:  "values",
				Usage: "List the values that may be assigned to a member, local or parameter",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "Type.member, or a local name with --at",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "at",
						Usage: "path:line; only assignments before this statement count",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: valuesCommand,
			},
			{
				Name:  "returns",
				Usage: "List the values a method or property may return",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "method",
						Aliases:  []string{"m"},
						Usage:    "Type.Method or Type.Property",
						Required: true,
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: returnsCommand,
			},
			{
				Name:   "watch",
				Usage:  "Check the project and re-check whenever C# files change",
				Action: watchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the checks as MCP tools over stdio",
				Action: mcpCommand,
			},
			{
				Name:   "rules",
				Usage:  "List the disposal rules and their configured severity",
				Action: rulesCommand,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration as TOML",
				Action: configCommand,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
