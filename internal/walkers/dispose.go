package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Disposed is the outcome of a dispose search
type Disposed uint8

const (
	DisposedNo Disposed = iota
	DisposedYes
	// DisposedAssumeYes means the reference was handed to other code that
	// is assumed to dispose it
	DisposedAssumeYes
)

func (d Disposed) String() string {
	switch d {
	case DisposedYes:
		return "yes"
	case DisposedAssumeYes:
		return "assume-yes"
	}
	return "no"
}

// IsDisposeCall reports whether inv is x.Dispose(), x?.DisposeAsync(),
// Dispose() and the like, with no arguments
func IsDisposeCall(inv *syntax.Invocation) bool {
	if inv == nil || len(inv.Args) != 0 {
		return false
	}
	var name string
	switch e := syntax.Unparen(inv.Expr).(type) {
	case *syntax.MemberAccess:
		name = e.Name.Name
	case *syntax.Identifier:
		name = e.Name
	}
	return name == "Dispose" || name == "DisposeAsync"
}

// DisposedTarget returns the expression a dispose call releases, with
// parentheses, casts and as-conversions stripped. Bare Dispose() returns nil.
func DisposedTarget(inv *syntax.Invocation) syntax.Expr {
	if !IsDisposeCall(inv) {
		return nil
	}
	ma, ok := syntax.Unparen(inv.Expr).(*syntax.MemberAccess)
	if !ok {
		return nil
	}
	e := ma.Expr
	for {
		switch x := e.(type) {
		case *syntax.Parenthesized:
			e = x.Expr
		case *syntax.Cast:
			e = x.Expr
		default:
			return e
		}
	}
}

// disposeMethods are the members whose bodies release the resources of a type
var disposeMethods = []struct {
	name   string
	params int
}{
	{"Dispose", 0},
	{"Dispose", 1},
	{"DisposeAsync", 0},
	{"DisposeAsyncCore", 0},
}

// IsDisposed reports whether member is disposed by code executed by scope.
// A type declaration scope searches its dispose methods and those of its
// base types. References handed to other code, as an argument, an assigned
// value or a return value, count as DisposedAssumeYes.
func (e *Engine) IsDisposed(ctx context.Context, member semantic.Symbol, scope syntax.Node) (Disposed, error) {
	if err := ctx.Err(); err != nil {
		return DisposedNo, err
	}
	if member == nil || scope == nil {
		return DisposedNo, nil
	}
	roots := []syntax.Node{scope}
	searchScope := e.scope
	if d, ok := scope.(*syntax.TypeDecl); ok {
		roots, searchScope = e.disposeRoots(d), Type
	}
	result := DisposedNo
	for _, root := range roots {
		nodes, err := e.scan(ctx, root, searchScope, func(n syntax.Node) bool {
			switch n.(type) {
			case *syntax.Invocation, *syntax.Identifier, *syntax.MemberAccess, *syntax.Using, *syntax.LocalDeclaration:
				return true
			}
			return false
		})
		if err != nil {
			return DisposedNo, err
		}
		for _, n := range nodes {
			switch e.disposes(n, member) {
			case DisposedYes:
				return DisposedYes, nil
			case DisposedAssumeYes:
				result = DisposedAssumeYes
			}
		}
	}
	return result, nil
}

func (e *Engine) disposes(n syntax.Node, member semantic.Symbol) Disposed {
	switch n := n.(type) {
	case *syntax.Invocation:
		if t := DisposedTarget(n); t != nil && e.refersTo(t, member) {
			return DisposedYes
		}
	case *syntax.Using:
		if n.Expr != nil && e.refersTo(n.Expr, member) {
			return DisposedYes
		}
		if n.Decl != nil && declares(e.model, n.Decl, member) {
			return DisposedYes
		}
	case *syntax.LocalDeclaration:
		if n.Using && declares(e.model, n, member) {
			return DisposedYes
		}
	case *syntax.Identifier:
		if ma, ok := n.Parent().(*syntax.MemberAccess); ok && ma.Name == n {
			return DisposedNo
		}
		if e.refersTo(n, member) && handedOff(n) {
			return DisposedAssumeYes
		}
	case *syntax.MemberAccess:
		if e.refersTo(n, member) && handedOff(n) {
			return DisposedAssumeYes
		}
	}
	return DisposedNo
}

func (e *Engine) refersTo(x syntax.Expr, member semantic.Symbol) bool {
	x = syntax.Unparen(x)
	switch x.(type) {
	case *syntax.Identifier, *syntax.MemberAccess:
	default:
		return false
	}
	return e.model.SymbolsEqual(e.model.ResolveSymbol(x), member)
}

// handedOff reports whether the value of x leaves the expression: passed as
// an argument, assigned to something else or returned
func handedOff(x syntax.Expr) bool {
	var child syntax.Node = x
	for p := x.Parent(); p != nil; child, p = p, p.Parent() {
		switch p := p.(type) {
		case *syntax.Parenthesized, *syntax.Cast:
			continue
		case *syntax.Argument:
			return p.RefKind == syntax.RefNone
		case *syntax.Assignment:
			return p.Op == "=" && child == syntax.Node(p.Right)
		case *syntax.Return:
			return true
		case *syntax.Lambda:
			return child == syntax.Node(p.ExprBody)
		}
		return false
	}
	return false
}

// disposeRoots returns the dispose method declarations of the type declared
// by d and of its source base types
func (e *Engine) disposeRoots(d *syntax.TypeDecl) []syntax.Node {
	t, ok := e.model.DeclaredSymbol(d).(*semantic.TypeSymbol)
	if !ok {
		return nil
	}
	var out []syntax.Node
	for _, b := range t.BaseTypes() {
		if b.IsExternal() {
			break
		}
		for _, dm := range disposeMethods {
			for _, s := range b.MembersNamed(dm.name) {
				m, ok := s.(*semantic.MethodSymbol)
				if !ok || len(m.Parameters()) != dm.params {
					continue
				}
				out = append(out, m.Declarations()...)
			}
		}
	}
	return out
}
