package display

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/types"
)

func sampleReport() *types.Report {
	return &types.Report{
		Root:    "/src",
		Files:   3,
		Skipped: 1,
		Diagnostics: []types.Diagnostic{
			{
				Rule:     "IDISP001",
				Severity: types.SeverityWarning,
				Message:  "Dispose created",
				Location: types.Location{Path: "/src/app/Reader.cs", Line: 7, Column: 13},
				Fixes:    []types.Fix{{Title: "Add using"}},
			},
			{
				Rule:     "IDISP004",
				Severity: types.SeverityError,
				Message:  "Don't ignore created IDisposable",
				Location: types.Location{Path: "/src/app/Reader.cs", Line: 12, Column: 9},
			},
			{
				Rule:     "IDISP006",
				Severity: types.SeverityWarning,
				Message:  "Implement IDisposable",
				Location: types.Location{Path: "/src/Cache.cs", Line: 3, Column: 5},
			},
		},
		Errors:   []types.FileError{{Path: "/src/Broken.cs", Message: "syntax error at 1:30"}},
		Duration: 1234 * time.Microsecond,
	}
}

func TestNewReportFormatter(t *testing.T) {
	formatter := NewReportFormatter(FormatterOptions{})
	assert.Equal(t, "  ", formatter.options.Indent)

	formatter = NewReportFormatter(FormatterOptions{Indent: "\t"})
	assert.Equal(t, "\t", formatter.options.Indent)
}

func TestReportFormatter_Format_Nil(t *testing.T) {
	assert.Equal(t, "No report available", NewReportFormatter(FormatterOptions{}).Format(nil))
	assert.Equal(t, "No values available", NewReportFormatter(FormatterOptions{}).FormatValues(nil))
}

func TestReportFormatter_Format_Text(t *testing.T) {
	formatter := NewReportFormatter(FormatterOptions{Root: "/src", ShowFixes: true})

	want := `Cache.cs
  └─→ 3:5 warning IDISP006: Implement IDisposable
app/Reader.cs
  ├─→ 7:13 warning IDISP001: Dispose created
  │     fix: Add using
  └─→ 12:9 error IDISP004: Don't ignore created IDisposable

Errors:
  Broken.cs: syntax error at 1:30

3 files analysed, 1 skipped: 1 error, 2 warnings, 0 info messages in 1ms
`
	assert.Equal(t, want, formatter.Format(sampleReport()))
}

func TestReportFormatter_Format_TextEmpty(t *testing.T) {
	formatter := NewReportFormatter(FormatterOptions{})
	output := formatter.Format(&types.Report{Files: 1})
	assert.Equal(t, "1 files analysed, 0 skipped: 0 errors, 0 warnings, 0 info messages in 0s\n", output)
}

func TestReportFormatter_Format_Compact(t *testing.T) {
	formatter := NewReportFormatter(FormatterOptions{Format: "compact", Root: "/src"})

	want := `app/Reader.cs:7:13: warning IDISP001: Dispose created
app/Reader.cs:12:9: error IDISP004: Don't ignore created IDisposable
Cache.cs:3:5: warning IDISP006: Implement IDisposable
Broken.cs: error: syntax error at 1:30
`
	assert.Equal(t, want, formatter.Format(sampleReport()))
}

func TestReportFormatter_Format_JSON(t *testing.T) {
	formatter := NewReportFormatter(FormatterOptions{Format: "json"})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(formatter.Format(sampleReport())), &decoded))
	assert.Equal(t, float64(3), decoded["files"])
	diags := decoded["diagnostics"].([]any)
	require.Len(t, diags, 3)
	first := diags[0].(map[string]any)
	assert.Equal(t, "IDISP001", first["rule"])
	assert.Equal(t, "warning", first["severity"])
}

func TestReportFormatter_FormatValues(t *testing.T) {
	report := &types.ValueReport{
		Kind:   types.QueryReturn,
		Query:  "Factory.Create",
		Symbol: "Factory.Create(bool)",
		Scope:  "recursive",
		Values: []types.Value{
			{Expr: "new MemoryStream()", Location: types.Location{Path: "/src/Factory.cs", Line: 11, Column: 20}},
			{Expr: `File.OpenRead("a")`, Location: types.Location{Path: "/src/Factory.cs", Line: 13, Column: 16}},
		},
	}

	text := NewReportFormatter(FormatterOptions{Root: "/src"}).FormatValues(report)
	assert.Equal(t, `Return values of 'Factory.Create(bool)' (scope recursive)
  ├─→ new MemoryStream() [Factory.cs:11]
  └─→ File.OpenRead("a") [Factory.cs:13]
`, text)

	compact := NewReportFormatter(FormatterOptions{Format: "compact", Root: "/src"}).FormatValues(report)
	assert.Equal(t, "Factory.cs:11:20: new MemoryStream()\nFactory.cs:13:16: File.OpenRead(\"a\")\n", compact)

	empty := &types.ValueReport{Kind: types.QueryAssigned, Symbol: "local", At: "A.cs:4", Scope: "toplevel"}
	assert.Equal(t, "Assigned values of 'local' before A.cs:4 (scope toplevel)\n  (none)\n",
		NewReportFormatter(FormatterOptions{}).FormatValues(empty))
}

func TestSummaryPlurals(t *testing.T) {
	report := &types.Report{
		Files: 1,
		Diagnostics: []types.Diagnostic{
			{Severity: types.SeverityInfo},
			{Severity: types.SeverityWarning},
		},
	}
	assert.Equal(t, "1 files analysed, 0 skipped: 0 errors, 1 warning, 1 info message in 0s", Summary(report))
}
