package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// scanWalker collects the executed nodes a predicate accepts
type scanWalker struct {
	pooled
	executionWalker

	match func(syntax.Node) bool
	found []syntax.Node
}

func newScanWalker() *scanWalker { return &scanWalker{} }

func (w *scanWalker) reset() {
	w.resetExecution()
	w.match = nil
	clear(w.found)
	w.found = w.found[:0]
}

func (w *scanWalker) visitNode(n syntax.Node) bool {
	if w.match(n) {
		w.found = append(w.found, n)
	}
	return true
}

// walkDeclaration walks every executable part of root. Type declarations
// contribute their field and property initializers and member bodies.
func (w *executionWalker) walkDeclaration(root syntax.Node) {
	d, ok := root.(*syntax.TypeDecl)
	if !ok {
		w.walkBody(root)
		return
	}
	for _, m := range d.Members {
		switch m := m.(type) {
		case *syntax.FieldDecl:
			for _, v := range m.Declarators {
				w.walk(v.Init)
			}
		case *syntax.PropertyDecl:
			w.walk(m.Init)
			w.walk(m.ExprBody)
			for _, a := range m.Accessors {
				w.walkBody(a)
			}
		case *syntax.MethodDecl, *syntax.ConstructorDecl:
			w.walkBody(m)
		}
	}
}

// scan walks root in execution order under scope and returns the nodes
// match accepts, in visiting order
func (e *Engine) scan(ctx context.Context, root syntax.Node, scope SearchScope, match func(syntax.Node) bool) ([]syntax.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}
	w := borrow(e.arena, kindScan, newScanWalker)
	defer release(w)
	w.check()
	w.init(ctx, e.model, scope, e.enclosingType(root))
	w.match = match
	w.visit = w.visitNode
	w.walkDeclaration(root)
	if w.err != nil {
		return nil, w.err
	}
	return append([]syntax.Node(nil), w.found...), nil
}

// collect is scan for one node type
func collect[T syntax.Node](ctx context.Context, e *Engine, root syntax.Node, scope SearchScope, keep func(T) bool) ([]T, error) {
	nodes, err := e.scan(ctx, root, scope, func(n syntax.Node) bool {
		t, ok := n.(T)
		return ok && (keep == nil || keep(t))
	})
	if err != nil {
		return nil, err
	}
	out := make([]T, len(nodes))
	for i, n := range nodes {
		out[i] = n.(T)
	}
	return out, nil
}

// Invocations returns the invocations executed by root
func (e *Engine) Invocations(ctx context.Context, root syntax.Node, scope SearchScope) ([]*syntax.Invocation, error) {
	return collect[*syntax.Invocation](ctx, e, root, scope, nil)
}

// Identifiers returns the identifiers executed by root
func (e *Engine) Identifiers(ctx context.Context, root syntax.Node, scope SearchScope) ([]*syntax.Identifier, error) {
	return collect[*syntax.Identifier](ctx, e, root, scope, nil)
}

// ObjectCreations returns the object creations executed by root
func (e *Engine) ObjectCreations(ctx context.Context, root syntax.Node, scope SearchScope) ([]*syntax.ObjectCreation, error) {
	return collect[*syntax.ObjectCreation](ctx, e, root, scope, nil)
}

// Yields returns the yield statements of root
func (e *Engine) Yields(ctx context.Context, root syntax.Node, scope SearchScope) ([]*syntax.Yield, error) {
	return collect[*syntax.Yield](ctx, e, root, scope, nil)
}

// Usings returns the using statements and using declarations executed by
// root: *syntax.Using and *syntax.LocalDeclaration nodes
func (e *Engine) Usings(ctx context.Context, root syntax.Node, scope SearchScope) ([]syntax.Stmt, error) {
	nodes, err := e.scan(ctx, root, scope, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Using:
			return true
		case *syntax.LocalDeclaration:
			return n.Using
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	out := make([]syntax.Stmt, len(nodes))
	for i, n := range nodes {
		out[i] = n.(syntax.Stmt)
	}
	return out, nil
}

// UsesInUsing reports whether a using statement or declaration executed by
// root disposes symbol
func (e *Engine) UsesInUsing(ctx context.Context, root syntax.Node, symbol semantic.Symbol, scope SearchScope) (bool, error) {
	usings, err := e.Usings(ctx, root, scope)
	if err != nil {
		return false, err
	}
	for _, u := range usings {
		switch u := u.(type) {
		case *syntax.Using:
			if u.Expr != nil && e.model.SymbolsEqual(e.model.ResolveSymbol(syntax.Unparen(u.Expr)), symbol) {
				return true, nil
			}
			if u.Decl != nil && declares(e.model, u.Decl, symbol) {
				return true, nil
			}
		case *syntax.LocalDeclaration:
			if declares(e.model, u, symbol) {
				return true, nil
			}
		}
	}
	return false, nil
}

func declares(model semantic.Model, d *syntax.LocalDeclaration, symbol semantic.Symbol) bool {
	for _, v := range d.Declarators {
		if model.DeclaredSymbol(v) == symbol {
			return true
		}
	}
	return false
}
