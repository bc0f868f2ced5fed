// Package display renders analysis reports and value queries for terminals
// and tools.
package display

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/pkg/pathutil"
)

// ReportFormatter formats reports for display
type ReportFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls report formatting
type FormatterOptions struct {
	Format    string // "text", "json", "compact"
	Root      string // paths are shown relative to Root when set
	ShowFixes bool   // list fix titles under each diagnostic
	Indent    string // Indentation string
}

// NewReportFormatter creates a new report formatter
func NewReportFormatter(options FormatterOptions) *ReportFormatter {
	if options.Indent == "" {
		options.Indent = "  "
	}
	return &ReportFormatter{options: options}
}

// Format formats an analysis report
func (rf *ReportFormatter) Format(report *types.Report) string {
	if report == nil {
		return "No report available"
	}

	switch rf.options.Format {
	case "json":
		return rf.formatJSON(report)
	case "compact":
		return rf.formatCompact(report)
	default:
		return rf.formatText(report)
	}
}

// formatText groups diagnostics by file as a tree, followed by file errors
// and a summary line
func (rf *ReportFormatter) formatText(report *types.Report) string {
	var sb strings.Builder

	byPath := report.ByPath()
	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		sb.WriteString(rf.relative(p))
		sb.WriteString("\n")
		diags := byPath[p]
		for i, d := range diags {
			branch, cont := "├─→ ", "│   "
			if i == len(diags)-1 {
				branch, cont = "└─→ ", "    "
			}
			fmt.Fprintf(&sb, "%s%s%d:%d %s %s: %s\n", rf.options.Indent, branch,
				d.Location.Line, d.Location.Column, d.Severity, d.Rule, d.Message)
			if rf.options.ShowFixes {
				for _, fix := range d.Fixes {
					fmt.Fprintf(&sb, "%s%s  fix: %s\n", rf.options.Indent, cont, fix.Title)
				}
			}
		}
	}

	if len(report.Errors) > 0 {
		if len(paths) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Errors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(&sb, "%s%s: %s\n", rf.options.Indent, rf.relative(e.Path), e.Message)
		}
	}

	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(Summary(report))
	sb.WriteString("\n")
	return sb.String()
}

// formatCompact writes one line per diagnostic in the path:line:col form
// editors recognise
func (rf *ReportFormatter) formatCompact(report *types.Report) string {
	var sb strings.Builder
	for _, d := range report.Diagnostics {
		fmt.Fprintf(&sb, "%s:%d:%d: %s %s: %s\n", rf.relative(d.Location.Path),
			d.Location.Line, d.Location.Column, d.Severity, d.Rule, d.Message)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(&sb, "%s: error: %s\n", rf.relative(e.Path), e.Message)
	}
	return sb.String()
}

func (rf *ReportFormatter) formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", rf.options.Indent)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data) + "\n"
}

// FormatValues formats the answer to a value query
func (rf *ReportFormatter) FormatValues(report *types.ValueReport) string {
	if report == nil {
		return "No values available"
	}

	switch rf.options.Format {
	case "json":
		return rf.formatJSON(report)
	case "compact":
		var sb strings.Builder
		for _, v := range report.Values {
			fmt.Fprintf(&sb, "%s:%d:%d: %s\n", rf.relative(v.Location.Path), v.Location.Line, v.Location.Column, v.Expr)
		}
		return sb.String()
	}

	var sb strings.Builder
	what := "Assigned values of"
	if report.Kind == types.QueryReturn {
		what = "Return values of"
	}
	fmt.Fprintf(&sb, "%s '%s'", what, report.Symbol)
	if report.At != "" {
		fmt.Fprintf(&sb, " before %s", report.At)
	}
	fmt.Fprintf(&sb, " (scope %s)\n", report.Scope)

	if len(report.Values) == 0 {
		sb.WriteString(rf.options.Indent + "(none)\n")
		return sb.String()
	}
	for i, v := range report.Values {
		branch := "├─→ "
		if i == len(report.Values)-1 {
			branch = "└─→ "
		}
		fmt.Fprintf(&sb, "%s%s%s [%s:%d]\n", rf.options.Indent, branch, v.Expr, rf.relative(v.Location.Path), v.Location.Line)
	}
	return sb.String()
}

// Summary is the one-line totals of a report
func Summary(report *types.Report) string {
	return fmt.Sprintf("%d files analysed, %d skipped: %s, %s, %s in %s",
		report.Files, report.Skipped,
		plural(report.Count(types.SeverityError), "error"),
		plural(report.Count(types.SeverityWarning), "warning"),
		plural(report.Count(types.SeverityInfo), "info message"),
		report.Duration.Round(time.Millisecond))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (rf *ReportFormatter) relative(path string) string {
	return pathutil.ToRelative(path, rf.options.Root)
}
