package types

import (
	"cmp"
	"slices"
	"time"
)

// FileError records a file that could not be read or parsed. The run
// continues without it.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report is the result of one analysis run
type Report struct {
	Root        string        `json:"root,omitempty"`
	Files       int           `json:"files"`
	Skipped     int           `json:"skipped"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
	Errors      []FileError   `json:"errors,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Sort orders diagnostics by path, position and rule, and errors by path
func (r *Report) Sort() {
	slices.SortStableFunc(r.Diagnostics, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Location.Path, b.Location.Path),
			cmp.Compare(a.Location.Line, b.Location.Line),
			cmp.Compare(a.Location.Column, b.Location.Column),
			cmp.Compare(a.Rule, b.Rule),
		)
	})
	slices.SortStableFunc(r.Errors, func(a, b FileError) int { return cmp.Compare(a.Path, b.Path) })
}

// Count returns the number of diagnostics at severity s
func (r *Report) Count(s Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any diagnostic has error severity
func (r *Report) HasErrors() bool { return r.Count(SeverityError) > 0 }

// ByPath groups the diagnostics by file, keeping their order
func (r *Report) ByPath() map[string][]Diagnostic {
	out := make(map[string][]Diagnostic)
	for _, d := range r.Diagnostics {
		out[d.Location.Path] = append(out[d.Location.Path], d)
	}
	return out
}
