package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Engine answers value-flow queries against one semantic model. It is safe
// for concurrent use; every query borrows its own walkers from the arena.
type Engine struct {
	model semantic.Model
	arena *Arena
	scope SearchScope
}

// Option configures an Engine
type Option func(*Engine)

// WithArena shares an arena between engines. Engines otherwise get their own.
func WithArena(a *Arena) Option {
	return func(e *Engine) { e.arena = a }
}

// WithScope sets the scope used by AssignedValues and the scanners.
// The default is Recursive.
func WithScope(s SearchScope) Option {
	return func(e *Engine) { e.scope = s }
}

func New(model semantic.Model, opts ...Option) *Engine {
	e := &Engine{model: model, scope: Recursive}
	for _, opt := range opts {
		opt(e)
	}
	if e.arena == nil {
		e.arena = NewArena(DefaultMaxIdle, false)
	}
	return e
}

func (e *Engine) Model() semantic.Model { return e.model }

func (e *Engine) Arena() *Arena { return e.arena }

func (e *Engine) Scope() SearchScope { return e.scope }

// AssignedValues returns the expressions that may have been assigned to
// symbol when execution reaches context, in discovery order. A nil context
// collects every assignment.
func (e *Engine) AssignedValues(ctx context.Context, symbol semantic.Symbol, context syntax.Node) ([]syntax.Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, nil
	}
	return e.assignedValues(ctx, e.scope, symbol, context, false)
}

// AssignedValuesOf is AssignedValues for the symbol an expression refers to.
// For an element access such as items[0] it returns the values stored in the
// collection.
func (e *Engine) AssignedValuesOf(ctx context.Context, expr syntax.Expr, context syntax.Node) ([]syntax.Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	element := false
	target := syntax.Unparen(expr)
	if ea, ok := target.(*syntax.ElementAccess); ok && ea.Expr != nil {
		if _, indexer := e.model.ResolveSymbol(ea).(*semantic.PropertySymbol); !indexer || isCollection(e.model.TypeOf(ea.Expr)) {
			target, element = ea.Expr, true
		}
	}
	symbol := e.model.ResolveSymbol(target)
	if symbol == nil {
		return nil, nil
	}
	if context == nil {
		context = expr
	}
	return e.assignedValues(ctx, e.scope, symbol, context, element)
}

func (e *Engine) assignedValues(ctx context.Context, scope SearchScope, symbol semantic.Symbol, context syntax.Node, element bool) ([]syntax.Expr, error) {
	switch symbol.(type) {
	case *semantic.FieldSymbol, *semantic.PropertySymbol, *semantic.LocalSymbol, *semantic.ParameterSymbol:
	default:
		return nil, nil
	}
	w := e.borrowAssigned(ctx, scope, symbol, context, element)
	defer release(w)
	w.run()
	if w.err != nil {
		debug.LogWalker("assigned values of %s stopped: %v\n", symbol, w.err)
		return nil, w.err
	}
	values := PurgeDuplicates(w.values.Items())
	debug.LogWalker("assigned values of %s (%s): %d\n", symbol, scope, len(values))
	return values, nil
}

// ReturnValues returns the values a member declaration, accessor, lambda or
// expression can produce
func (e *Engine) ReturnValues(ctx context.Context, node syntax.Node, scope SearchScope) ([]syntax.Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	q := &returnQuery{
		ctx:       ctx,
		scope:     scope,
		owner:     e.enclosingType(node),
		recursive: make(map[syntax.Node]*returnValueWalker),
		resolving: make(map[semantic.Symbol]struct{}),
	}
	root := e.borrowReturn(q, nil, e.methodOf(node))
	defer q.releaseAll(root)
	root.run(node)
	root.done = true
	if q.err != nil {
		return nil, q.err
	}
	values := PurgeDuplicates(root.values.Items())
	debug.LogWalker("return values of %s (%s): %d\n", describe(node), scope, len(values))
	return values, nil
}

// SingleReturnValue returns the only value node can return
func (e *Engine) SingleReturnValue(ctx context.Context, node syntax.Node) (syntax.Expr, bool) {
	values, err := e.ReturnValues(ctx, node, Recursive)
	if err != nil || len(values) != 1 {
		return nil, false
	}
	return values[0], true
}

// methodOf returns the method whose parameters stay unsubstituted when
// walking node
func (e *Engine) methodOf(node syntax.Node) *semantic.MethodSymbol {
	switch s := e.model.DeclaredSymbol(node).(type) {
	case *semantic.MethodSymbol:
		return s
	case *semantic.PropertySymbol:
		return s.GetMethod()
	}
	if fn := syntax.EnclosingFunction(node); fn != nil {
		if m, ok := e.model.DeclaredSymbol(fn).(*semantic.MethodSymbol); ok {
			return m
		}
	}
	return nil
}

// ownerOf is the type whose constructors and members are walked for symbol
func (e *Engine) ownerOf(symbol semantic.Symbol, context syntax.Node) *semantic.TypeSymbol {
	if context != nil {
		if t := e.enclosingType(context); t != nil {
			return t
		}
	}
	return symbol.ContainingType()
}

func (e *Engine) enclosingType(n syntax.Node) *semantic.TypeSymbol {
	d := syntax.EnclosingType(n)
	if d == nil {
		return nil
	}
	t, _ := e.model.DeclaredSymbol(d).(*semantic.TypeSymbol)
	return t
}

func isCollection(t *semantic.TypeSymbol) bool {
	if t == nil {
		return false
	}
	if t.IsArray() {
		return true
	}
	switch t.Definition().Name() {
	case "List", "Dictionary", "ConcurrentDictionary", "HashSet", "Stack", "Queue", "LinkedList", "SortedDictionary", "IList", "IDictionary", "ICollection":
		return true
	}
	return false
}

func describe(n syntax.Node) string {
	text := syntax.Text(n)
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	return text
}
