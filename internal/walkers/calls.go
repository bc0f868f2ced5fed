package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// CallsTo returns the invocations, object creations and constructor
// initializers calling m. Private methods and local functions are searched
// in their declaring scope only. When context is set, calls in the same
// member as context must precede it.
func (e *Engine) CallsTo(ctx context.Context, m *semantic.MethodSymbol, context syntax.Node) ([]syntax.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.callsTo(ctx, m, context)
}

func (e *Engine) callsTo(ctx context.Context, m *semantic.MethodSymbol, context syntax.Node) ([]syntax.Node, error) {
	if m == nil {
		return nil, nil
	}
	var out []syntax.Node
	var ctxFn syntax.Node
	if context != nil {
		ctxFn = syntax.EnclosingFunction(context)
	}
	for _, root := range e.callRoots(m) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		syntax.Inspect(root, func(n syntax.Node) bool {
			switch n.(type) {
			case *syntax.Invocation, *syntax.ObjectCreation, *syntax.ConstructorInitializer:
			default:
				return true
			}
			target, ok := e.model.ResolveSymbol(n).(*semantic.MethodSymbol)
			if !ok || (target != m && !e.model.SymbolsEqual(target, m)) {
				return true
			}
			if ctxFn != nil && syntax.EnclosingFunction(n) == ctxFn && !syntax.IsBefore(n, context) {
				return true
			}
			out = append(out, n)
			return true
		})
	}
	return out, nil
}

// callRoots are the subtrees that can call m
func (e *Engine) callRoots(m *semantic.MethodSymbol) []syntax.Node {
	switch m.MethodKind() {
	case semantic.MethodLocalFunction, semantic.MethodLambda:
		var out []syntax.Node
		for _, d := range m.Declarations() {
			if fn := syntax.EnclosingFunction(d); fn != nil {
				out = append(out, fn)
			} else {
				out = append(out, d.Tree().Root)
			}
		}
		return out
	}
	if t := m.ContainingType(); t != nil && m.IsPrivate() && !t.IsExternal() {
		var out []syntax.Node
		for _, d := range t.TypeDecls() {
			out = append(out, d)
		}
		return out
	}
	var out []syntax.Node
	for _, tree := range e.model.Trees() {
		if tree.Root != nil {
			out = append(out, tree.Root)
		}
	}
	return out
}
