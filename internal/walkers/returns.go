package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// returnQuery is the state shared by every walker of one ReturnValues call
type returnQuery struct {
	ctx   context.Context
	scope SearchScope
	owner *semantic.TypeSymbol
	// recursive memoises the walker of each expanded declaration
	recursive map[syntax.Node]*returnValueWalker
	// resolving guards symbols whose assigned values are being expanded
	resolving map[semantic.Symbol]struct{}
	// awaiting is set once an await is seen and stays set for the query
	awaiting bool
	err      error
}

// returnValueWalker collects the values a member or expression can return
type returnValueWalker struct {
	pooled

	engine *Engine
	query  *returnQuery
	parent *returnValueWalker
	// method is the member whose parameters are kept unsubstituted
	method *semantic.MethodSymbol
	values Values
	done   bool
}

func newReturnValueWalker() *returnValueWalker { return &returnValueWalker{} }

func (w *returnValueWalker) reset() {
	w.engine, w.query, w.parent, w.method = nil, nil, nil, nil
	w.values.reset()
	w.done = false
}

func (e *Engine) borrowReturn(q *returnQuery, parent *returnValueWalker, m *semantic.MethodSymbol) *returnValueWalker {
	w := borrow(e.arena, kindReturn, newReturnValueWalker)
	w.engine, w.query, w.parent, w.method = e, q, parent, m
	return w
}

func (q *returnQuery) stopped() bool {
	if q.err == nil {
		q.err = q.ctx.Err()
	}
	return q.err != nil
}

// releaseAll returns every memoised child and the root to the arena
func (q *returnQuery) releaseAll(root *returnValueWalker) {
	for _, c := range q.recursive {
		if c != root {
			release(c)
		}
	}
	clear(q.recursive)
	release(root)
}

// run collects the return values of a declaration or of a single expression
func (w *returnValueWalker) run(n syntax.Node) {
	w.check()
	switch n := n.(type) {
	case *syntax.MethodDecl:
		w.collect(n.Body, n.ExprBody)
	case *syntax.Accessor:
		w.collect(n.Body, n.ExprBody)
	case *syntax.PropertyDecl:
		if g := n.Getter(); g != nil {
			w.collect(g.Body, g.ExprBody)
		} else {
			w.collect(nil, n.ExprBody)
		}
	case *syntax.LocalFunction:
		w.collect(n.Body, n.ExprBody)
	case *syntax.Lambda:
		w.collect(n.Body, n.ExprBody)
	case syntax.Expr:
		w.addReturnValue(n)
	}
}

func (w *returnValueWalker) collect(body *syntax.Block, exprBody syntax.Expr) {
	if exprBody != nil {
		w.addReturnValue(exprBody)
	}
	for _, r := range returnsIn(body) {
		w.addReturnValue(r)
	}
}

// returnsIn lists the returned expressions of a body, skipping nested
// lambdas and local functions
func returnsIn(body *syntax.Block) []syntax.Expr {
	if body == nil {
		return nil
	}
	var out []syntax.Expr
	syntax.Inspect(body, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Lambda, *syntax.LocalFunction, *syntax.TypeDecl:
			return false
		case *syntax.Return:
			if n.Expr != nil {
				out = append(out, n.Expr)
			}
		}
		return true
	})
	return out
}

func (w *returnValueWalker) addReturnValue(e syntax.Expr) {
	if e == nil || w.query.stopped() {
		return
	}
	model := w.engine.model
	switch e := e.(type) {
	case *syntax.Invocation:
		w.addInvocation(e)
	case *syntax.ObjectCreation:
		w.values.Add(e)
	case *syntax.Await:
		w.query.awaiting = true
		w.addReturnValue(e.Expr)
	case *syntax.Conditional:
		w.addReturnValue(e.WhenTrue)
		w.addReturnValue(e.WhenFalse)
	case *syntax.Binary:
		if e.Op == "??" {
			w.addReturnValue(e.Left)
			w.addReturnValue(e.Right)
			return
		}
		w.values.Add(e)
	case *syntax.Cast:
		w.addReturnValue(e.Expr)
	case *syntax.Parenthesized:
		w.addReturnValue(e.Expr)
	case *syntax.Identifier, *syntax.MemberAccess:
		w.addReference(e, model.ResolveSymbol(e))
	case *syntax.ElementAccess, *syntax.Literal, *syntax.This, *syntax.Base,
		*syntax.Initializer, *syntax.ArrayCreation, *syntax.Assignment,
		*syntax.Unary, *syntax.Lambda, *syntax.Default, *syntax.DeclarationExpr,
		*syntax.UnknownExpr:
		w.values.Add(e)
	default:
		w.values.Add(e)
	}
}

func (w *returnValueWalker) addReference(e syntax.Expr, s semantic.Symbol) {
	switch s := s.(type) {
	case *semantic.ParameterSymbol:
		if w.method != nil && s.Owner() == w.method {
			// substituted by the caller
			w.values.Add(e)
			return
		}
		w.addAssigned(e, s)
	case *semantic.LocalSymbol:
		w.addAssigned(e, s)
	case *semantic.PropertySymbol:
		g := s.GetMethod()
		if s.IsAuto() || g == nil || !w.expands(g) {
			w.values.Add(e)
			return
		}
		w.addChild(e, g, nil)
	default:
		w.values.Add(e)
	}
}

// addAssigned replaces a local or parameter by the values assigned to it
// before e
func (w *returnValueWalker) addAssigned(e syntax.Expr, s semantic.Symbol) {
	q := w.query
	if _, ok := q.resolving[s]; ok {
		return
	}
	q.resolving[s] = struct{}{}
	defer delete(q.resolving, s)
	values, err := w.engine.assignedValues(q.ctx, q.scope, s, e, false)
	if err != nil {
		q.err = err
		return
	}
	if len(values) == 0 {
		w.values.Add(e)
		return
	}
	for _, v := range values {
		w.addReturnValue(v)
	}
}

func (w *returnValueWalker) addInvocation(inv *syntax.Invocation) {
	m, _ := w.engine.model.ResolveSymbol(inv).(*semantic.MethodSymbol)
	if m == nil {
		w.values.Add(inv)
		return
	}
	if len(m.Declarations()) == 0 {
		if !w.query.awaiting || !w.unwrapAwaited(inv, m) {
			w.values.Add(inv)
		}
		return
	}
	if !w.expands(m) {
		w.values.Add(inv)
		return
	}
	w.addChild(inv, m, inv.Args)
}

// unwrapAwaited adds the result of an awaited framework helper
func (w *returnValueWalker) unwrapAwaited(inv *syntax.Invocation, m *semantic.MethodSymbol) bool {
	t := m.ContainingType()
	if t == nil {
		return false
	}
	switch {
	case m.Name() == "ConfigureAwait":
		if ma, ok := inv.Expr.(*syntax.MemberAccess); ok {
			w.addReturnValue(ma.Expr)
			return true
		}
	case m.Name() == "FromResult" && (t.Name() == "Task" || t.Name() == "ValueTask"):
		if len(inv.Args) == 1 {
			w.addReturnValue(inv.Args[0].Expr)
			return true
		}
	case m.Name() == "Run" && t.Name() == "Task", m.Name() == "StartNew" && t.Name() == "TaskFactory":
		if len(inv.Args) == 0 {
			return false
		}
		l, ok := syntax.Unparen(inv.Args[0].Expr).(*syntax.Lambda)
		if !ok {
			return false
		}
		w.collect(l.Body, l.ExprBody)
		return true
	}
	return false
}

// expands reports whether the scope lets the walker descend into m
func (w *returnValueWalker) expands(m *semantic.MethodSymbol) bool {
	if len(m.Declarations()) == 0 {
		return false
	}
	switch m.MethodKind() {
	case semantic.MethodLocalFunction, semantic.MethodLambda:
		return true
	}
	switch w.query.scope {
	case Recursive:
		return true
	case Type:
		return declaredIn(w.query.owner, m.ContainingType())
	}
	return false
}

// addChild adds the return values of m as called from site. A declaration
// already being walked contributes nothing; a callee without values keeps
// the call itself.
func (w *returnValueWalker) addChild(site syntax.Expr, m *semantic.MethodSymbol, args []*syntax.Argument) {
	decls := m.Declarations()
	key := decls[0]
	q := w.query
	child, ok := q.recursive[key]
	if ok && !child.done {
		return
	}
	if !ok {
		child = w.engine.borrowReturn(q, w, m)
		q.recursive[key] = child
		for _, d := range decls {
			child.run(d)
		}
		child.done = true
	}
	if child.values.Len() == 0 {
		w.values.Add(site)
		return
	}
	for _, v := range child.values.Items() {
		if p := parameterOf(w.engine.model, v, m); p != nil {
			if arg, ok := w.engine.model.TryGetArgumentValue(p, args); ok {
				w.addReturnValue(arg)
				continue
			}
		}
		w.values.Add(v)
	}
}

// parameterOf returns the parameter of m that e names, if any
func parameterOf(model semantic.Model, e syntax.Expr, m *semantic.MethodSymbol) *semantic.ParameterSymbol {
	id, ok := syntax.Unparen(e).(*syntax.Identifier)
	if !ok {
		return nil
	}
	p, ok := model.ResolveSymbol(id).(*semantic.ParameterSymbol)
	if !ok || p.Owner() != m {
		return nil
	}
	return p
}
