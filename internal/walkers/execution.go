package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// frame is one followed call. Parameters of method resolve to the arguments
// passed at site; value is the assigned right side when a setter is entered
// through an assignment.
type frame struct {
	site   syntax.Node
	method *semantic.MethodSymbol
	args   []*syntax.Argument
	value  syntax.Expr
}

// executionWalker visits nodes in approximate run order. Closures are entered
// only where they run, and calls, constructor chains and accessors are
// followed into their declarations as the scope allows, each call site at
// most once per query.
type executionWalker struct {
	ctx   context.Context
	model semantic.Model
	scope SearchScope
	// owner bounds the Type scope: targets declared in owner or its bases
	owner *semantic.TypeSymbol

	visited map[syntax.Node]struct{}
	// forced call sites are followed whatever the scope
	forced map[syntax.Node]struct{}
	frames []frame
	err    error

	// visit runs before the children of each executed node; false skips them
	visit func(n syntax.Node) bool
	// leave runs after a call site and its target have been walked
	leave func(site syntax.Node)
}

func (w *executionWalker) init(ctx context.Context, model semantic.Model, scope SearchScope, owner *semantic.TypeSymbol) {
	w.ctx, w.model, w.scope, w.owner = ctx, model, scope, owner
	if w.visited == nil {
		w.visited = make(map[syntax.Node]struct{})
	}
	if w.forced == nil {
		w.forced = make(map[syntax.Node]struct{})
	}
}

// reset clears everything init and a walk set
func (w *executionWalker) resetExecution() {
	w.ctx, w.model, w.owner = nil, nil, nil
	w.scope = TopLevel
	clear(w.visited)
	clear(w.forced)
	w.frames = w.frames[:0]
	w.err = nil
	w.visit, w.leave = nil, nil
}

// stopped reports whether the query was cancelled and records the cause
func (w *executionWalker) stopped() bool {
	if w.err != nil {
		return true
	}
	if w.ctx != nil {
		w.err = w.ctx.Err()
	}
	return w.err != nil
}

func (w *executionWalker) walk(n syntax.Node) {
	if n == nil || w.stopped() {
		return
	}
	switch n := n.(type) {
	case *syntax.Lambda:
		if !executesWhereDefined(n) {
			return
		}
	case *syntax.LocalFunction, *syntax.TypeDecl:
		// run only when called
		return
	}
	if w.visit != nil && !w.visit(n) {
		return
	}
	switch n := n.(type) {
	case *syntax.Assignment:
		w.walk(n.Right)
		w.walk(n.Left)
		w.followSetter(n)
	case *syntax.Invocation:
		w.walkChildren(n)
		w.followCall(n, n.Args)
		w.left(n)
	case *syntax.ObjectCreation:
		w.walkChildren(n)
		w.followCall(n, n.Args)
		w.left(n)
	case *syntax.ConstructorInitializer:
		w.walkChildren(n)
		w.followCall(n, n.Args)
		w.left(n)
	case *syntax.Identifier:
		w.walkChildren(n)
		w.followReference(n)
	case *syntax.MemberAccess:
		w.walkChildren(n)
		w.followReference(n)
	case *syntax.ElementAccess:
		w.walkChildren(n)
		if !isAssigned(n) {
			w.followGetter(n, n.Args)
		}
	default:
		w.walkChildren(n)
	}
}

func (w *executionWalker) walkChildren(n syntax.Node) {
	for _, c := range syntax.Children(n) {
		w.walk(c)
	}
}

func (w *executionWalker) left(site syntax.Node) {
	if w.leave != nil {
		w.leave(site)
	}
}

// executesWhereDefined reports whether a lambda runs as part of the
// surrounding code: passed as a delegate argument, subscribed with += or
// invoked in place
func executesWhereDefined(l *syntax.Lambda) bool {
	var child syntax.Node = l
	for p := l.Parent(); p != nil; child, p = p, p.Parent() {
		switch p := p.(type) {
		case *syntax.Parenthesized, *syntax.Cast:
			continue
		case *syntax.Argument:
			return true
		case *syntax.Assignment:
			return p.Op == "+=" && child == syntax.Node(p.Right)
		case *syntax.Invocation:
			return child == syntax.Node(p.Expr)
		}
		return false
	}
	return false
}

// walkBody walks the executable part of a declaration
func (w *executionWalker) walkBody(decl syntax.Node) {
	switch d := decl.(type) {
	case *syntax.MethodDecl:
		w.walkBlock(d.Body)
		w.walk(d.ExprBody)
	case *syntax.ConstructorDecl:
		if d.Initializer != nil {
			w.walk(d.Initializer)
		}
		w.walkBlock(d.Body)
		w.walk(d.ExprBody)
	case *syntax.Accessor:
		w.walkBlock(d.Body)
		w.walk(d.ExprBody)
	case *syntax.PropertyDecl:
		w.walk(d.ExprBody)
	case *syntax.LocalFunction:
		w.walkBlock(d.Body)
		w.walk(d.ExprBody)
	case *syntax.Lambda:
		w.walkBlock(d.Body)
		w.walk(d.ExprBody)
	case *syntax.CompilationUnit:
		for _, m := range d.Members {
			if g, ok := m.(*syntax.GlobalStatement); ok {
				w.walk(g.Stmt)
			}
		}
	case *syntax.Block:
		w.walkBlock(d)
	case syntax.Expr:
		w.walk(d)
	case syntax.Stmt:
		w.walk(d)
	}
}

func (w *executionWalker) walkBlock(b *syntax.Block) {
	if b != nil {
		w.walk(b)
	}
}

// follows reports whether the scope allows walking into m
func (w *executionWalker) follows(site syntax.Node, m *semantic.MethodSymbol) bool {
	if m == nil || len(m.Declarations()) == 0 {
		return false
	}
	if _, ok := w.forced[site]; ok {
		return true
	}
	switch m.MethodKind() {
	case semantic.MethodLocalFunction, semantic.MethodLambda:
		return true
	}
	switch w.scope {
	case Recursive:
		return true
	case Type:
		return declaredIn(w.owner, m.ContainingType())
	}
	return false
}

// declaredIn reports whether t is owner or one of its base types
func declaredIn(owner, t *semantic.TypeSymbol) bool {
	if owner == nil || t == nil {
		return false
	}
	def := t.Definition()
	for _, b := range owner.BaseTypes() {
		if b.Definition() == def {
			return true
		}
	}
	return false
}

// enter walks the declarations of m as called from site, once per site
func (w *executionWalker) enter(site syntax.Node, m *semantic.MethodSymbol, args []*syntax.Argument, value syntax.Expr) {
	if !w.follows(site, m) {
		return
	}
	if _, ok := w.visited[site]; ok {
		return
	}
	w.visited[site] = struct{}{}
	w.frames = append(w.frames, frame{site: site, method: m, args: args, value: value})
	for _, d := range m.Declarations() {
		w.walkBody(d)
	}
	w.frames = w.frames[:len(w.frames)-1]
}

func (w *executionWalker) followCall(site syntax.Node, args []*syntax.Argument) {
	m, _ := w.model.ResolveSymbol(site).(*semantic.MethodSymbol)
	w.enter(site, m, args, nil)
}

// followReference follows property reads and local functions passed as
// method groups
func (w *executionWalker) followReference(e syntax.Expr) {
	if id, ok := e.(*syntax.Identifier); ok {
		if ma, ok := id.Parent().(*syntax.MemberAccess); ok && ma.Name == id {
			return
		}
	}
	if inv, ok := e.Parent().(*syntax.Invocation); ok && syntax.Expr(e) == inv.Expr {
		return
	}
	if _, ok := e.Parent().(*syntax.Argument); ok {
		if m, ok := w.model.ResolveSymbol(e).(*semantic.MethodSymbol); ok {
			// a method group handed to a callee runs there
			w.enter(e, m, nil, nil)
			return
		}
	}
	if isAssigned(e) {
		return
	}
	w.followGetter(e, nil)
}

func (w *executionWalker) followGetter(e syntax.Expr, args []*syntax.Argument) {
	if w.scope == TopLevel {
		return
	}
	p, ok := w.model.ResolveSymbol(e).(*semantic.PropertySymbol)
	if !ok || p.GetMethod() == nil {
		return
	}
	w.enter(e, p.GetMethod(), args, nil)
}

func (w *executionWalker) followSetter(a *syntax.Assignment) {
	if w.scope == TopLevel {
		return
	}
	left := syntax.Unparen(a.Left)
	p, ok := w.model.ResolveSymbol(left).(*semantic.PropertySymbol)
	if !ok || p.SetMethod() == nil {
		return
	}
	var args []*syntax.Argument
	if ea, ok := left.(*syntax.ElementAccess); ok {
		args = ea.Args
	}
	w.enter(a, p.SetMethod(), args, a.Right)
}

// isAssigned reports whether e is the target of a simple assignment
func isAssigned(e syntax.Expr) bool {
	var child syntax.Node = e
	for p := e.Parent(); p != nil; child, p = p, p.Parent() {
		switch p := p.(type) {
		case *syntax.Parenthesized:
			continue
		case *syntax.Assignment:
			return p.Op == "=" && child == syntax.Node(p.Left)
		}
		return false
	}
	return false
}

// substitute maps a parameter reference inside a followed callee back to the
// expression passed for it, through every enclosing frame
func (w *executionWalker) substitute(e syntax.Expr) syntax.Expr {
	top := len(w.frames) - 1
	for top >= 0 {
		id, ok := syntax.Unparen(e).(*syntax.Identifier)
		if !ok {
			return e
		}
		p, ok := w.model.ResolveSymbol(id).(*semantic.ParameterSymbol)
		if !ok {
			return e
		}
		i := top
		for i >= 0 && w.frames[i].method != p.Owner() {
			i--
		}
		if i < 0 {
			return e
		}
		f := w.frames[i]
		var arg syntax.Expr
		switch {
		case f.value != nil && p.IsImplicitValue():
			arg = f.value
		default:
			arg, ok = w.model.TryGetArgumentValue(p, f.args)
			if !ok {
				return e
			}
		}
		e, top = arg, i-1
	}
	return e
}

// origin is the node in the walked root that led to n: the outermost call
// site when n was reached through followed calls
func (w *executionWalker) origin(n syntax.Node) syntax.Node {
	if len(w.frames) > 0 {
		return w.frames[0].site
	}
	return n
}
