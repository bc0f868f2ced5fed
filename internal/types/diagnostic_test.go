package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	for _, s := range []Severity{SeverityHidden, SeverityInfo, SeverityWarning, SeverityError} {
		got, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseSeverity(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, got)

	_, err = ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestSeverityJSON(t *testing.T) {
	d := Diagnostic{Rule: "IDISP001", Severity: SeverityError, Message: "m"}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"severity":"error"`)

	var back Diagnostic
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, SeverityError, back.Severity)
}

func TestApplyEdits(t *testing.T) {
	src := []byte("var x = 1;\nx = 2;\n")
	got, err := ApplyEdits(src, []TextEdit{
		{Start: 11, End: 11, NewText: "x?.Dispose();\n"},
		{Start: 0, End: 0, NewText: "using "},
	})
	require.NoError(t, err)
	assert.Equal(t, "using var x = 1;\nx?.Dispose();\nx = 2;\n", string(got))

	_, err = ApplyEdits(src, []TextEdit{{Start: 0, End: 5}, {Start: 3, End: 4}})
	assert.Error(t, err, "overlapping")

	_, err = ApplyEdits(src, []TextEdit{{Start: 5, End: 100}})
	assert.Error(t, err, "out of range")
}

func TestReportSortAndCount(t *testing.T) {
	r := &Report{
		Diagnostics: []Diagnostic{
			{Rule: "IDISP002", Severity: SeverityError, Location: Location{Path: "b.cs", Line: 1}},
			{Rule: "IDISP004", Severity: SeverityWarning, Location: Location{Path: "a.cs", Line: 9, Column: 3}},
			{Rule: "IDISP001", Severity: SeverityWarning, Location: Location{Path: "a.cs", Line: 9, Column: 3}},
			{Rule: "IDISP003", Severity: SeverityWarning, Location: Location{Path: "a.cs", Line: 2}},
		},
		Errors: []FileError{{Path: "z.cs"}, {Path: "c.cs"}},
	}
	r.Sort()

	var order []string
	for _, d := range r.Diagnostics {
		order = append(order, d.Rule)
	}
	assert.Equal(t, []string{"IDISP003", "IDISP001", "IDISP004", "IDISP002"}, order)
	assert.Equal(t, "c.cs", r.Errors[0].Path)
	assert.Equal(t, 3, r.Count(SeverityWarning))
	assert.True(t, r.HasErrors())
	assert.Len(t, r.ByPath()["a.cs"], 3)
}
