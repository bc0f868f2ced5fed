package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	dfdebug "github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/display"
	"github.com/standardbeagle/disposeflow/internal/disposal"
	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/internal/version"
	"github.com/standardbeagle/disposeflow/pkg/pathutil"
)

// decodeArgs unmarshals tool arguments, treating missing arguments as {}
func decodeArgs(req *mcp.CallToolRequest, v any) error {
	args := req.Params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

func (s *Server) handleCheckDisposal(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("check_disposal", func() (*mcp.CallToolResult, error) {
		var params CheckParams
		if err := decodeArgs(req, &params); err != nil {
			return createErrorResponse("check_disposal", err)
		}
		minSeverity := types.SeverityHidden
		if params.MinSeverity != "" {
			sev, err := types.ParseSeverity(params.MinSeverity)
			if err != nil {
				return createErrorResponse("check_disposal", err)
			}
			minSeverity = sev
		}

		dfdebug.LogMCP("check_disposal paths=%v min=%s\n", params.Paths, minSeverity)
		report, err := s.analyse(ctx, params.Paths)
		if err != nil {
			return createErrorResponse("check_disposal", err)
		}
		report = filterSeverity(report, minSeverity)

		if params.Format == "compact" {
			formatter := display.NewReportFormatter(display.FormatterOptions{Format: "compact", Root: s.cfg.Project.Root})
			text := formatter.Format(report) + display.Summary(report) + "\n"
			for _, w := range warningMessages(params.Warnings) {
				text += "warning: " + w + "\n"
			}
			return createTextResponse(text), nil
		}
		return createJSONResponse(withWarnings(map[string]any{
			"root":        report.Root,
			"files":       report.Files,
			"skipped":     report.Skipped,
			"diagnostics": pathutil.ToRelativeDiagnostics(report.Diagnostics, s.cfg.Project.Root),
			"errors":      report.Errors,
			"summary":     display.Summary(report),
		}, params.Warnings))
	})
}

func (s *Server) handleAssignedValues(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("assigned_values", func() (*mcp.CallToolResult, error) {
		var params AssignedValuesParams
		if err := decodeArgs(req, &params); err != nil {
			return createErrorResponse("assigned_values", err)
		}
		if strings.TrimSpace(params.Symbol) == "" {
			return createErrorResponse("assigned_values", fmt.Errorf("symbol is required"))
		}

		snap, err := s.snapshot(ctx)
		if err != nil {
			return createErrorResponse("assigned_values", err)
		}
		values, err := snap.AssignedValues(ctx, params.Symbol, params.At)
		if err != nil {
			return createErrorResponse("assigned_values", err)
		}
		return createJSONResponse(withWarnings(s.valuesResponse(values), params.Warnings))
	})
}

func (s *Server) handleReturnValues(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("return_values", func() (*mcp.CallToolResult, error) {
		var params ReturnValuesParams
		if err := decodeArgs(req, &params); err != nil {
			return createErrorResponse("return_values", err)
		}
		if strings.TrimSpace(params.Method) == "" {
			return createErrorResponse("return_values", fmt.Errorf("method is required"))
		}

		snap, err := s.snapshot(ctx)
		if err != nil {
			return createErrorResponse("return_values", err)
		}
		values, err := snap.ReturnValues(ctx, params.Method)
		if err != nil {
			return createErrorResponse("return_values", err)
		}
		return createJSONResponse(withWarnings(s.valuesResponse(values), params.Warnings))
	})
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rules := make([]map[string]any, 0, len(disposal.Rules))
	for _, r := range disposal.Rules {
		severity := r.Severity.String()
		if override, ok := s.cfg.Rules.Severities[r.ID]; ok {
			severity = override
		}
		rules = append(rules, map[string]any{
			"id":       r.ID,
			"title":    r.Title,
			"severity": severity,
			"enabled":  !containsFold(s.cfg.Rules.Disabled, r.ID),
		})
	}
	hits, misses := s.runner.CacheStats()
	build := version.Current()
	if build.GoVersion == "" {
		build.GoVersion = runtime.Version()
	}
	return createJSONResponse(map[string]any{
		"server_version": build.String(),
		"build":          build,
		"project_root":   s.cfg.Project.Root,
		"scope":          s.cfg.SearchScope().String(),
		"rules":          rules,
		"cache":          map[string]int64{"hits": hits, "misses": misses},
	})
}

// valuesResponse renders a value report with root-relative paths
func (s *Server) valuesResponse(report *types.ValueReport) map[string]any {
	out := map[string]any{
		"kind":   report.Kind,
		"query":  report.Query,
		"symbol": report.Symbol,
		"scope":  report.Scope,
		"values": pathutil.ToRelativeValues(report.Values, s.cfg.Project.Root),
	}
	if report.At != "" {
		out["at"] = report.At
	}
	return out
}

// resolve makes tool paths absolute against the project root
func (s *Server) resolve(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = pathutil.ToAbsolute(p, s.cfg.Project.Root)
	}
	return out
}

func filterSeverity(report *types.Report, min types.Severity) *types.Report {
	if min == types.SeverityHidden {
		return report
	}
	filtered := *report
	filtered.Diagnostics = nil
	for _, d := range report.Diagnostics {
		if d.Severity >= min {
			filtered.Diagnostics = append(filtered.Diagnostics, d)
		}
	}
	return &filtered
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
