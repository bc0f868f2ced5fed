package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// assignedValueWalker collects the expressions that may have been assigned
// to one symbol before a context node
type assignedValueWalker struct {
	pooled
	executionWalker

	engine  *Engine
	symbol  semantic.Symbol
	context syntax.Node
	// element collects the values stored in a collection instead of the
	// collection itself
	element bool

	values Values
	// refParams are parameters aliasing symbol through ref or out arguments
	refParams map[*semantic.ParameterSymbol]int
	refSites  map[syntax.Node][]*semantic.ParameterSymbol
	// filtered is the function whose assignments must precede context
	filtered syntax.Node
	ctors    map[*semantic.MethodSymbol]struct{}
}

func newAssignedValueWalker() *assignedValueWalker {
	return &assignedValueWalker{
		refParams: make(map[*semantic.ParameterSymbol]int),
		refSites:  make(map[syntax.Node][]*semantic.ParameterSymbol),
		ctors:     make(map[*semantic.MethodSymbol]struct{}),
	}
}

func (e *Engine) borrowAssigned(ctx context.Context, scope SearchScope, symbol semantic.Symbol, context syntax.Node, element bool) *assignedValueWalker {
	w := borrow(e.arena, kindAssigned, newAssignedValueWalker)
	w.engine, w.symbol, w.context, w.element = e, symbol, context, element
	w.init(ctx, e.model, scope, e.ownerOf(symbol, context))
	w.visit = w.visitNode
	w.leave = w.leaveSite
	return w
}

func (w *assignedValueWalker) reset() {
	w.resetExecution()
	w.engine, w.symbol, w.context = nil, nil, nil
	w.element = false
	w.values.reset()
	clear(w.refParams)
	clear(w.refSites)
	clear(w.ctors)
	w.filtered = nil
}

func (w *assignedValueWalker) run() {
	w.check()
	switch s := w.symbol.(type) {
	case *semantic.FieldSymbol:
		if d := s.Declarator(); d != nil && s.Declarations() != nil {
			w.add(d.Init)
		}
		w.runMember(s.IsStatic())
	case *semantic.PropertySymbol:
		if d := s.Declaration(); d != nil && s.Declarations() != nil {
			w.add(d.Init)
		}
		w.runMember(s.IsStatic())
	case *semantic.LocalSymbol:
		w.runLocal(s)
	case *semantic.ParameterSymbol:
		w.runParameter(s)
	}
}

func (w *assignedValueWalker) runLocal(l *semantic.LocalSymbol) {
	decl := l.Declaration()
	if d, ok := decl.(*syntax.VariableDeclarator); ok {
		w.add(d.Init)
	}
	fn := syntax.EnclosingFunction(decl)
	if fn == nil {
		// top level statements
		fn = decl.Tree().Root
	}
	w.filtered = fn
	w.walkBody(fn)
}

func (w *assignedValueWalker) runParameter(p *semantic.ParameterSymbol) {
	owner := p.Owner()
	if owner == nil {
		return
	}
	if owner.IsPrivate() {
		calls, err := w.engine.callsTo(w.ctx, owner, nil)
		if err != nil {
			w.err = err
			return
		}
		for _, site := range calls {
			if v, ok := w.model.TryGetArgumentValue(p, callArgs(site)); ok {
				w.add(v)
			}
		}
	}
	for _, d := range owner.Declarations() {
		w.filtered = d
		w.walkBody(d)
	}
}

// runMember walks the constructors that run before context and, outside
// constructors, every member of the type and its bases
func (w *assignedValueWalker) runMember(static bool) {
	t := w.owner
	if t == nil {
		return
	}
	if ctor := enclosingConstructor(w.context); ctor != nil {
		if m, ok := w.model.DeclaredSymbol(ctor).(*semantic.MethodSymbol); ok && m.IsStatic() == static {
			w.filtered = ctor
			w.walkConstructor(m)
			return
		}
	}
	for _, m := range constructorsOf(t, static) {
		w.walkConstructor(m)
		if w.stopped() {
			return
		}
	}
	for _, m := range reachableMembers(w.model, t) {
		for _, d := range m.Declarations() {
			w.walkBody(d)
		}
		if w.stopped() {
			return
		}
	}
}

// walkConstructor walks a constructor chain in run order: the chained
// constructor or the implicit base default constructor, then the body
func (w *assignedValueWalker) walkConstructor(m *semantic.MethodSymbol) {
	if m == nil {
		return
	}
	if _, ok := w.ctors[m]; ok {
		return
	}
	w.ctors[m] = struct{}{}
	var decl *syntax.ConstructorDecl
	for _, d := range m.Declarations() {
		if c, ok := d.(*syntax.ConstructorDecl); ok {
			decl = c
		}
	}
	switch {
	case decl != nil && decl.Initializer != nil:
		init := decl.Initializer
		if w.visit(init) {
			for _, a := range init.Args {
				w.walk(a)
			}
		}
		target, _ := w.model.ResolveSymbol(init).(*semantic.MethodSymbol)
		if target != nil {
			w.visited[init] = struct{}{}
			w.frames = append(w.frames, frame{site: init, method: target, args: init.Args})
			w.walkConstructor(target)
			w.frames = w.frames[:len(w.frames)-1]
		}
		w.leaveSite(init)
	case !m.IsStatic():
		if t := m.ContainingType(); t != nil && t.Base() != nil {
			w.walkConstructor(defaultConstructor(t.Base()))
		}
	}
	if decl != nil {
		w.walkBlock(decl.Body)
		w.walk(decl.ExprBody)
	}
}

func (w *assignedValueWalker) visitNode(n syntax.Node) bool {
	switch n := n.(type) {
	case *syntax.Assignment:
		w.visitAssignment(n)
	case *syntax.VariableDeclarator:
		if w.model.DeclaredSymbol(n) == w.symbol {
			w.add(n.Init)
		}
	case *syntax.Argument:
		w.visitArgument(n)
	case *syntax.Invocation:
		if w.element {
			w.visitCollectionCall(n)
		}
	}
	return true
}

func (w *assignedValueWalker) visitAssignment(a *syntax.Assignment) {
	if a.Op != "=" && a.Op != "??=" {
		return
	}
	if !w.precedesContext(a) {
		return
	}
	if w.isTarget(a.Left) {
		w.add(a.Right)
		return
	}
	if !w.element {
		return
	}
	if ea, ok := syntax.Unparen(a.Left).(*syntax.ElementAccess); ok && ea.Expr != nil && w.isTarget(ea.Expr) {
		w.values.Add(w.substitute(a.Right))
	}
}

// visitArgument tracks ref and out arguments passing the symbol: the callee's
// parameter becomes an alias and the call is followed whatever the scope
func (w *assignedValueWalker) visitArgument(arg *syntax.Argument) {
	if arg.RefKind != syntax.RefRef && arg.RefKind != syntax.RefOut {
		return
	}
	if !w.isTarget(arg.Expr) {
		return
	}
	site := arg.Parent()
	m, _ := w.model.ResolveSymbol(site).(*semantic.MethodSymbol)
	p := semantic.ParameterFor(m, callArgs(site), arg)
	if p == nil {
		return
	}
	if len(m.Declarations()) == 0 {
		if arg.RefKind == syntax.RefOut && w.precedesContext(site) {
			if e, ok := site.(syntax.Expr); ok {
				w.add(e)
			}
		}
		return
	}
	w.refParams[p]++
	w.refSites[site] = append(w.refSites[site], p)
	w.forced[site] = struct{}{}
}

func (w *assignedValueWalker) leaveSite(site syntax.Node) {
	for _, p := range w.refSites[site] {
		if w.refParams[p]--; w.refParams[p] <= 0 {
			delete(w.refParams, p)
		}
	}
	delete(w.refSites, site)
}

// isTarget reports whether e denotes the queried symbol or one of its ref aliases
func (w *assignedValueWalker) isTarget(e syntax.Expr) bool {
	var s semantic.Symbol
	switch e := syntax.Unparen(e).(type) {
	case *syntax.Identifier, *syntax.MemberAccess:
		s = w.model.ResolveSymbol(e)
	case *syntax.DeclarationExpr:
		s = w.model.DeclaredSymbol(e)
	default:
		return false
	}
	if s == nil {
		return false
	}
	if p, ok := s.(*semantic.ParameterSymbol); ok && w.refParams[p] > 0 {
		return true
	}
	return w.model.SymbolsEqual(s, w.symbol)
}

// precedesContext reports whether the assignment at n can run before the
// context: it lies in another member, lexically precedes the context or
// shares a loop with it
func (w *assignedValueWalker) precedesContext(n syntax.Node) bool {
	if w.context == nil || w.filtered == nil {
		return true
	}
	at := w.origin(n)
	if !syntax.IsAncestor(w.filtered, at) || !syntax.IsAncestor(w.filtered, w.context) {
		return true
	}
	if syntax.IsAncestor(at, w.context) {
		// the context is the assignment or part of it: only an earlier
		// iteration can have run it
		return loopShared(at, w.context, w.filtered)
	}
	if syntax.IsBefore(at, w.context) {
		return true
	}
	return loopShared(at, w.context, w.filtered)
}

func loopShared(a, b, stop syntax.Node) bool {
	loop := syntax.InLoop(b, stop)
	return loop != nil && syntax.IsAncestor(loop, a)
}

// add records a candidate after mapping parameters of followed calls back
// to their arguments
func (w *assignedValueWalker) add(e syntax.Expr) {
	if e == nil {
		return
	}
	e = w.substitute(e)
	if w.element {
		w.addElements(e)
		return
	}
	if w.isSelfReference(e) {
		return
	}
	w.values.Add(e)
}

// isSelfReference reports x = x
func (w *assignedValueWalker) isSelfReference(e syntax.Expr) bool {
	switch syntax.Unparen(e).(type) {
	case *syntax.Identifier, *syntax.MemberAccess:
		return w.isTarget(e)
	}
	return false
}

func enclosingConstructor(n syntax.Node) *syntax.ConstructorDecl {
	if n == nil {
		return nil
	}
	if c, ok := n.(*syntax.ConstructorDecl); ok {
		return c
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p := p.(type) {
		case *syntax.ConstructorDecl:
			return p
		case *syntax.Lambda, *syntax.LocalFunction, *syntax.TypeDecl:
			return nil
		}
	}
	return nil
}

// constructorsOf returns the constructors of t to walk as roots: every
// non-private instance constructor, or the static constructor
func constructorsOf(t *semantic.TypeSymbol, static bool) []*semantic.MethodSymbol {
	var out []*semantic.MethodSymbol
	for _, s := range t.MembersNamed(".ctor") {
		m, ok := s.(*semantic.MethodSymbol)
		if !ok || m.IsStatic() != static {
			continue
		}
		if !static && m.IsPrivate() && !m.IsImplicit() {
			continue
		}
		out = append(out, m)
	}
	return out
}

func defaultConstructor(t *semantic.TypeSymbol) *semantic.MethodSymbol {
	for _, m := range t.InstanceConstructors() {
		if len(m.Parameters()) == 0 {
			return m
		}
	}
	return nil
}

// reachableMembers lists the methods and accessors of t and its bases, most
// derived first. Private members of base types and base members superseded
// by an override are skipped.
func reachableMembers(model semantic.Model, t *semantic.TypeSymbol) []*semantic.MethodSymbol {
	var out []*semantic.MethodSymbol
	var seen []*semantic.MethodSymbol
	for i, b := range t.BaseTypes() {
		if b.IsExternal() {
			break
		}
		for _, s := range b.Members() {
			for _, m := range executableMembers(s) {
				if m.MethodKind() == semantic.MethodConstructor || m.MethodKind() == semantic.MethodStaticConstructor {
					continue
				}
				if i > 0 && m.IsPrivate() {
					continue
				}
				if overridden(model, m, seen) {
					continue
				}
				seen = append(seen, m)
				out = append(out, m)
			}
		}
	}
	return out
}

func executableMembers(s semantic.Symbol) []*semantic.MethodSymbol {
	switch s := s.(type) {
	case *semantic.MethodSymbol:
		return []*semantic.MethodSymbol{s}
	case *semantic.PropertySymbol:
		var out []*semantic.MethodSymbol
		if g := s.GetMethod(); g != nil {
			out = append(out, g)
		}
		if set := s.SetMethod(); set != nil {
			out = append(out, set)
		}
		return out
	}
	return nil
}

func overridden(model semantic.Model, m *semantic.MethodSymbol, derived []*semantic.MethodSymbol) bool {
	for _, d := range derived {
		if d.ContainingType() != m.ContainingType() && d.Name() == m.Name() && d.Modifiers().Has(syntax.ModOverride) && model.SymbolsEqual(d, m) {
			return true
		}
	}
	return false
}

// callArgs returns the argument list of a call site
func callArgs(site syntax.Node) []*syntax.Argument {
	switch s := site.(type) {
	case *syntax.Invocation:
		return s.Args
	case *syntax.ObjectCreation:
		return s.Args
	case *syntax.ConstructorInitializer:
		return s.Args
	case *syntax.ElementAccess:
		return s.Args
	}
	return nil
}
