package disposal

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/walkers"
)

// maxDepth bounds the chains of references IsCreation and IsInjected follow
const maxDepth = 8

// Disposable answers ownership questions about expressions and members on
// top of a value-flow engine
type Disposable struct {
	engine *walkers.Engine
	model  semantic.Model

	disposable      *semantic.TypeSymbol
	asyncDisposable *semantic.TypeSymbol
}

// NewDisposable binds the ownership queries to engine's model
func NewDisposable(engine *walkers.Engine) *Disposable {
	model := engine.Model()
	return &Disposable{
		engine:          engine,
		model:           model,
		disposable:      model.LookupType("System.IDisposable"),
		asyncDisposable: model.LookupType("System.IAsyncDisposable"),
	}
}

// IsDisposableType reports whether values of t must be disposed
func (d *Disposable) IsDisposableType(t *semantic.TypeSymbol) bool {
	if t == nil || t.IsTypeParameter() {
		return false
	}
	for _, target := range []*semantic.TypeSymbol{d.disposable, d.asyncDisposable} {
		if target != nil && d.model.IsAssignableTo(t, target) {
			return true
		}
	}
	return false
}

// IsCreation reports whether evaluating e creates a new disposable the
// caller owns: a constructor call of a disposable type, or a call whose
// return values are such creations. External calls returning a disposable
// type are assumed to create, except fluent calls returning their own type.
func (d *Disposable) IsCreation(ctx context.Context, e syntax.Expr) (bool, error) {
	return d.isCreation(ctx, e, 0)
}

func (d *Disposable) isCreation(ctx context.Context, e syntax.Expr, depth int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if e == nil || depth > maxDepth {
		return false, nil
	}
	switch e := e.(type) {
	case *syntax.ObjectCreation:
		return d.IsDisposableType(d.model.TypeOf(e)), nil
	case *syntax.Invocation:
		return d.createdBy(ctx, e, false, depth)
	case *syntax.Await:
		if inv, ok := syntax.Unparen(e.Expr).(*syntax.Invocation); ok {
			return d.createdBy(ctx, inv, true, depth)
		}
		return d.isCreation(ctx, e.Expr, depth+1)
	case *syntax.Conditional:
		return d.anyCreation(ctx, depth, e.WhenTrue, e.WhenFalse)
	case *syntax.Binary:
		if e.Op == "??" {
			return d.anyCreation(ctx, depth, e.Left, e.Right)
		}
	case *syntax.Parenthesized:
		return d.isCreation(ctx, e.Expr, depth+1)
	case *syntax.Cast:
		return d.isCreation(ctx, e.Expr, depth+1)
	case *syntax.Assignment:
		if e.Op == "=" {
			return d.isCreation(ctx, e.Right, depth+1)
		}
	case *syntax.Literal, *syntax.Identifier, *syntax.MemberAccess, *syntax.ElementAccess,
		*syntax.This, *syntax.Base, *syntax.Lambda, *syntax.Default, *syntax.ArrayCreation,
		*syntax.Initializer, *syntax.Unary, *syntax.DeclarationExpr, *syntax.UnknownExpr:
	}
	return false, nil
}

func (d *Disposable) anyCreation(ctx context.Context, depth int, es ...syntax.Expr) (bool, error) {
	for _, x := range es {
		created, err := d.isCreation(ctx, x, depth+1)
		if err != nil || created {
			return created, err
		}
	}
	return false, nil
}

// createdBy decides whether the value of inv, awaited when awaited is set,
// is a new disposable
func (d *Disposable) createdBy(ctx context.Context, inv *syntax.Invocation, awaited bool, depth int) (bool, error) {
	if walkers.IsDisposeCall(inv) {
		return false, nil
	}
	m, ok := d.model.ResolveSymbol(inv).(*semantic.MethodSymbol)
	if !ok {
		return false, nil
	}
	if m.ContainingType() == nil || m.ContainingType().IsExternal() {
		ret := m.ReturnType()
		if awaited {
			ret = semantic.AwaitResult(ret)
		}
		if !d.IsDisposableType(ret) {
			return false, nil
		}
		return m.IsStatic() || !semantic.SameType(ret, m.ContainingType()), nil
	}
	decls := m.Declarations()
	if len(decls) == 0 || !awaited && semantic.IsTaskLike(m.ReturnType()) {
		return false, nil
	}
	values, err := d.engine.ReturnValues(ctx, decls[0], walkers.Recursive)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if _, call := v.(*syntax.Invocation); call && d.model.SymbolsEqual(d.model.ResolveSymbol(v), m) {
			continue
		}
		created, err := d.isCreation(ctx, v, depth+1)
		if err != nil || created {
			return created, err
		}
	}
	return false, nil
}

// IsInjected reports whether the value of e comes from outside the type
// evaluating it: a parameter, or a member or local that holds one. at is the
// program point e is read at.
func (d *Disposable) IsInjected(ctx context.Context, e syntax.Expr, at syntax.Node) (bool, error) {
	return d.isInjected(ctx, e, at, make(map[semantic.Symbol]bool), 0)
}

func (d *Disposable) isInjected(ctx context.Context, e syntax.Expr, at syntax.Node, seen map[semantic.Symbol]bool, depth int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if e == nil || depth > maxDepth {
		return false, nil
	}
	switch x := syntax.Unparen(e).(type) {
	case *syntax.Cast:
		return d.isInjected(ctx, x.Expr, at, seen, depth+1)
	case *syntax.Conditional:
		return d.anyInjected(ctx, at, seen, depth, x.WhenTrue, x.WhenFalse)
	case *syntax.Binary:
		if x.Op == "??" {
			return d.anyInjected(ctx, at, seen, depth, x.Left, x.Right)
		}
		return false, nil
	case *syntax.Identifier:
		return d.symbolInjected(ctx, d.model.ResolveSymbol(x), at, seen, depth)
	case *syntax.MemberAccess:
		switch syntax.Unparen(x.Expr).(type) {
		case *syntax.This, *syntax.Base:
			return d.symbolInjected(ctx, d.model.ResolveSymbol(x), at, seen, depth)
		}
		s := d.model.ResolveSymbol(x)
		if s != nil && s.Kind() != semantic.SymbolType && (s.ContainingType() == nil || s.ContainingType().IsExternal()) {
			// a member of code we cannot see is owned by that code
			return true, nil
		}
		if _, isType := d.model.ResolveSymbol(x.Expr).(*semantic.TypeSymbol); isType {
			return d.symbolInjected(ctx, s, at, seen, depth)
		}
		return d.isInjected(ctx, x.Expr, at, seen, depth+1)
	}
	return false, nil
}

func (d *Disposable) anyInjected(ctx context.Context, at syntax.Node, seen map[semantic.Symbol]bool, depth int, es ...syntax.Expr) (bool, error) {
	for _, x := range es {
		injected, err := d.isInjected(ctx, x, at, seen, depth+1)
		if err != nil || injected {
			return injected, err
		}
	}
	return false, nil
}

func (d *Disposable) symbolInjected(ctx context.Context, s semantic.Symbol, at syntax.Node, seen map[semantic.Symbol]bool, depth int) (bool, error) {
	if s == nil || seen[s] {
		return false, nil
	}
	seen[s] = true
	switch s := s.(type) {
	case *semantic.ParameterSymbol:
		return s.RefKind() != syntax.RefOut, nil
	case *semantic.FieldSymbol, *semantic.PropertySymbol, *semantic.LocalSymbol:
		if p, ok := s.(*semantic.PropertySymbol); ok && !p.IsAuto() {
			return false, nil
		}
		context := at
		if s.Kind() != semantic.SymbolLocal {
			context = nil
		}
		values, err := d.engine.AssignedValues(ctx, s, context)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			injected, err := d.isInjected(ctx, v, v, seen, depth+1)
			if err != nil || injected {
				return injected, err
			}
		}
	}
	return false, nil
}

// IsNeverNull reports whether member can be read as non-null from any
// instance member: a readonly field or get-only auto property that is only
// ever assigned object creations
func (d *Disposable) IsNeverNull(ctx context.Context, member semantic.Symbol) (bool, error) {
	switch m := member.(type) {
	case *semantic.FieldSymbol:
		if !m.IsReadonly() {
			return false, nil
		}
	case *semantic.PropertySymbol:
		if !m.IsAuto() || m.SetMethod() != nil {
			return false, nil
		}
	default:
		return false, nil
	}
	values, err := d.engine.AssignedValues(ctx, member, nil)
	if err != nil || len(values) == 0 {
		return false, err
	}
	for _, v := range values {
		if _, ok := syntax.Unparen(v).(*syntax.ObjectCreation); !ok {
			return false, nil
		}
	}
	return true, nil
}
