// Package disposal reports C# code that leaks or wrongly releases IDisposable
// resources, and synthesises fixes for the common cases.
package disposal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/internal/walkers"
)

// Rule describes one disposal check
type Rule struct {
	ID       string
	Title    string
	Severity types.Severity
}

// Rules lists every check in reporting order
var Rules = []Rule{
	{ID: "IDISP001", Title: "Dispose created", Severity: types.SeverityWarning},
	{ID: "IDISP002", Title: "Dispose member", Severity: types.SeverityWarning},
	{ID: "IDISP003", Title: "Dispose previous before re-assigning", Severity: types.SeverityWarning},
	{ID: "IDISP004", Title: "Don't ignore created IDisposable", Severity: types.SeverityWarning},
	{ID: "IDISP006", Title: "Implement IDisposable", Severity: types.SeverityWarning},
	{ID: "IDISP007", Title: "Don't dispose injected", Severity: types.SeverityWarning},
	{ID: "IDISP008", Title: "Don't assign member with injected and created disposables", Severity: types.SeverityWarning},
}

// checks run one pass each. IDISP006 and IDISP008 are reported by the
// member pass.
var checks = []struct {
	rules []string
	run   func(*Checker, *pass) error
}{
	{[]string{"IDISP001"}, (*Checker).checkLocals},
	{[]string{"IDISP002", "IDISP006", "IDISP008"}, (*Checker).checkMembers},
	{[]string{"IDISP003"}, (*Checker).checkReassignments},
	{[]string{"IDISP004"}, (*Checker).checkIgnored},
	{[]string{"IDISP007"}, (*Checker).checkInjectedDisposed},
}

// RuleByID looks a rule up by its ID, case-insensitively
func RuleByID(id string) (Rule, bool) {
	for _, r := range Rules {
		if strings.EqualFold(r.ID, id) {
			return r, true
		}
	}
	return Rule{}, false
}

// Checker runs the enabled rules over syntax trees of one compilation
type Checker struct {
	engine     *walkers.Engine
	disposable *Disposable

	disabled   map[string]bool
	severities map[string]types.Severity
}

// Option configures a Checker
type Option func(*Checker)

// WithDisabled turns the named rules off
func WithDisabled(ids ...string) Option {
	return func(c *Checker) {
		for _, id := range ids {
			c.disabled[strings.ToUpper(id)] = true
		}
	}
}

// WithSeverity overrides the reported severity of a rule
func WithSeverity(id string, s types.Severity) Option {
	return func(c *Checker) { c.severities[strings.ToUpper(id)] = s }
}

// NewChecker creates a checker answering its value-flow questions with engine
func NewChecker(engine *walkers.Engine, opts ...Option) *Checker {
	c := &Checker{
		engine:     engine,
		disposable: NewDisposable(engine),
		disabled:   make(map[string]bool),
		severities: make(map[string]types.Severity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Disposable returns the ownership queries the checker uses
func (c *Checker) Disposable() *Disposable { return c.disposable }

// Enabled reports whether the rule with the given ID runs
func (c *Checker) Enabled(id string) bool { return !c.disabled[strings.ToUpper(id)] }

func (c *Checker) severity(r Rule) types.Severity {
	if s, ok := c.severities[r.ID]; ok {
		return s
	}
	return r.Severity
}

// pass is the state of checking one tree
type pass struct {
	ctx   context.Context
	tree  *syntax.Tree
	diags []types.Diagnostic
}

// CheckTree runs every enabled rule over tree. Diagnostics are returned in
// source order.
func (c *Checker) CheckTree(ctx context.Context, tree *syntax.Tree) ([]types.Diagnostic, error) {
	if tree == nil || tree.Root == nil {
		return nil, nil
	}
	start := time.Now()
	p := &pass{ctx: ctx, tree: tree}
	for _, check := range checks {
		if !slices.ContainsFunc(check.rules, c.Enabled) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := check.run(c, p); err != nil {
			return nil, fmt.Errorf("%s on %s: %w", strings.Join(check.rules, ","), tree.Path, err)
		}
	}
	slices.SortStableFunc(p.diags, func(a, b types.Diagnostic) int {
		if a.Location.Line != b.Location.Line {
			return a.Location.Line - b.Location.Line
		}
		return a.Location.Column - b.Location.Column
	})
	debug.LogAnalysis("checked %s: %d diagnostics in %v\n", tree.Path, len(p.diags), time.Since(start))
	return p.diags, nil
}

// report records a diagnostic of rule id at span unless the rule is disabled
func (c *Checker) report(p *pass, id string, span syntax.Span, symbol, message string, fixes ...types.Fix) {
	r, ok := RuleByID(id)
	if !ok || !c.Enabled(id) {
		return
	}
	p.diags = append(p.diags, types.Diagnostic{
		Rule:     r.ID,
		Severity: c.severity(r),
		Message:  message,
		Location: locate(p.tree, span),
		Symbol:   symbol,
		Fixes:    fixes,
	})
}

func locate(tree *syntax.Tree, span syntax.Span) types.Location {
	return types.Location{
		Path:      tree.Path,
		Line:      span.StartLine,
		Column:    span.StartCol,
		EndLine:   span.EndLine,
		EndColumn: span.EndCol,
	}
}
