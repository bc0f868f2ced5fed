package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/disposeflow/internal/analysis"
	"github.com/standardbeagle/disposeflow/internal/config"
	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/display"
	"github.com/standardbeagle/disposeflow/internal/disposal"
	"github.com/standardbeagle/disposeflow/internal/indexing"
	"github.com/standardbeagle/disposeflow/internal/mcp"
	"github.com/standardbeagle/disposeflow/internal/types"
)

// withTimeout bounds a command by performance.timeout_sec
func withTimeout(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.Performance.TimeoutSec <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(cfg.Performance.TimeoutSec)*time.Second)
}

func checkCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	minSeverity := types.SeverityHidden
	if s := c.String("min-severity"); s != "" {
		if minSeverity, err = types.ParseSeverity(s); err != nil {
			return err
		}
	}

	ctx, cancel := withTimeout(c.Context, cfg)
	defer cancel()

	scanner := indexing.NewFileScanner(cfg)
	var files []string
	if c.NArg() > 0 {
		files, err = scanner.ScanPaths(ctx, c.Args().Slice())
	} else {
		files, err = scanner.Scan(ctx)
	}
	if err != nil {
		return err
	}

	report, err := analysis.NewRunner(analysis.OptionsFromConfig(cfg)).Run(ctx, files)
	if err != nil {
		return err
	}
	if minSeverity > types.SeverityHidden {
		kept := report.Diagnostics[:0]
		for _, d := range report.Diagnostics {
			if d.Severity >= minSeverity {
				kept = append(kept, d)
			}
		}
		report.Diagnostics = kept
	}

	formatter := display.NewReportFormatter(display.FormatterOptions{
		Format:    c.String("format"),
		Root:      cfg.Project.Root,
		ShowFixes: c.Bool("fixes"),
	})
	fmt.Fprint(c.App.Writer, formatter.Format(report))

	if report.HasErrors() {
		return cli.Exit("", 1)
	}
	return nil
}

// projectSnapshot analyses the whole project for a value query
func projectSnapshot(ctx context.Context, cfg *config.Config) (*analysis.Snapshot, error) {
	files, err := indexing.NewFileScanner(cfg).Scan(ctx)
	if err != nil {
		return nil, err
	}
	runner := analysis.NewRunner(analysis.OptionsFromConfig(cfg))
	if _, err := runner.Run(ctx, files); err != nil {
		return nil, err
	}
	return runner.Last(), nil
}

func valuesCommand(c *cli.Context) error {
	return valueQuery(c, func(ctx context.Context, snap *analysis.Snapshot) (*types.ValueReport, error) {
		return snap.AssignedValues(ctx, c.String("symbol"), c.String("at"))
	})
}

func returnsCommand(c *cli.Context) error {
	return valueQuery(c, func(ctx context.Context, snap *analysis.Snapshot) (*types.ValueReport, error) {
		return snap.ReturnValues(ctx, c.String("method"))
	})
}

func valueQuery(c *cli.Context, query func(context.Context, *analysis.Snapshot) (*types.ValueReport, error)) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c.Context, cfg)
	defer cancel()

	snap, err := projectSnapshot(ctx, cfg)
	if err != nil {
		return err
	}
	report, err := query(ctx, snap)
	if err != nil {
		return err
	}

	format := "text"
	if c.Bool("json") {
		format = "json"
	}
	formatter := display.NewReportFormatter(display.FormatterOptions{Format: format, Root: cfg.Project.Root})
	fmt.Fprint(c.App.Writer, formatter.FormatValues(report))
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner := indexing.NewFileScanner(cfg)
	runner := analysis.NewRunner(analysis.OptionsFromConfig(cfg))
	formatter := display.NewReportFormatter(display.FormatterOptions{Root: cfg.Project.Root})

	check := func(ctx context.Context) {
		files, err := scanner.Scan(ctx)
		if err != nil {
			fmt.Fprintf(c.App.ErrWriter, "scan failed: %v\n", err)
			return
		}
		report, err := runner.Run(ctx, files)
		if err != nil {
			fmt.Fprintf(c.App.ErrWriter, "check failed: %v\n", err)
			return
		}
		fmt.Fprint(c.App.Writer, formatter.Format(report))
	}

	check(ctx)
	watcher, err := indexing.NewFileWatcher(scanner, time.Duration(cfg.Watch.DebounceMs)*time.Millisecond,
		func(ctx context.Context, batch indexing.Batch) {
			debug.LogIndexing("re-checking after %d changes\n", len(batch))
			fmt.Fprintf(c.App.Writer, "\n%d file(s) changed, re-checking\n", len(batch))
			check(ctx)
		})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "watching %s, press Ctrl+C to stop\n", cfg.Project.Root)

	<-ctx.Done()
	return watcher.Stop()
}

func mcpCommand(c *cli.Context) error {
	// stdio belongs to the protocol from here on
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v\n", err)
	}
	server, err := mcp.NewServer(cfg)
	if err != nil {
		return debug.Fatal("failed to create MCP server: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	debug.LogMCP("MCP server stopped\n")
	return nil
}

func rulesCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	disabled := make(map[string]bool, len(cfg.Rules.Disabled))
	for _, id := range cfg.Rules.Disabled {
		disabled[strings.ToUpper(id)] = true
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEVERITY\tENABLED\tTITLE")
	for _, r := range disposal.Rules {
		severity := r.Severity.String()
		if s, ok := cfg.Rules.Severities[r.ID]; ok {
			severity = s
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", r.ID, severity, !disabled[r.ID], r.Title)
	}
	return w.Flush()
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	data, err := config.MarshalTOML(cfg)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}
