package disposal

import (
	"fmt"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/internal/walkers"
)

// checkLocals reports locals initialised with a created disposable that the
// enclosing function neither disposes nor hands off
func (c *Checker) checkLocals(p *pass) error {
	model := c.engine.Model()
	for _, decl := range syntax.Collect[*syntax.LocalDeclaration](p.tree.Root) {
		if decl.Using || decl.Const {
			continue
		}
		if _, ok := decl.Parent().(*syntax.Using); ok {
			continue
		}
		var scope syntax.Node = syntax.EnclosingFunction(decl)
		if scope == nil {
			scope = p.tree.Root
		}
		for _, v := range decl.Declarators {
			if v.Init == nil {
				continue
			}
			created, err := c.disposable.IsCreation(p.ctx, v.Init)
			if err != nil {
				return err
			}
			if !created {
				continue
			}
			local := model.DeclaredSymbol(v)
			disposed, err := c.engine.IsDisposed(p.ctx, local, scope)
			if err != nil {
				return err
			}
			if disposed != walkers.DisposedNo {
				continue
			}
			var fixes []types.Fix
			if fix, ok := usingFix(p.tree, decl); ok {
				fixes = append(fixes, fix)
			}
			c.report(p, "IDISP001", v.NameSpan, v.Name,
				fmt.Sprintf("Dispose created: %s is created here and never disposed", v.Name), fixes...)
		}
	}
	return nil
}

// checkMembers reports fields and auto properties that hold created
// disposables: undisposed members of disposable types (IDISP002), owning
// types that are not disposable (IDISP006) and members mixing created and
// injected values (IDISP008)
func (c *Checker) checkMembers(p *pass) error {
	model := c.engine.Model()
	for _, td := range syntax.Collect[*syntax.TypeDecl](p.tree.Root) {
		if td.IsInterface() {
			continue
		}
		t, ok := model.DeclaredSymbol(td).(*semantic.TypeSymbol)
		if !ok {
			continue
		}
		var owned []string
		for _, m := range t.Members() {
			span, static, ok := memberSite(m, td)
			if !ok {
				continue
			}
			created, injected, err := c.memberValues(p, m)
			if err != nil {
				return err
			}
			if created && injected {
				c.report(p, "IDISP008", span, m.String(),
					fmt.Sprintf("Don't assign member with injected and created disposables: %s", m.Name()))
			}
			if !created || static {
				continue
			}
			if !c.disposable.IsDisposableType(t) {
				owned = append(owned, m.Name())
				continue
			}
			disposed, err := c.engine.IsDisposed(p.ctx, m, td)
			if err != nil {
				return err
			}
			if disposed != walkers.DisposedNo {
				continue
			}
			var fixes []types.Fix
			neverNull, err := c.disposable.IsNeverNull(p.ctx, m)
			if err != nil {
				return err
			}
			if fix, ok := disposeMemberFix(p.tree, td, m, neverNull); ok {
				fixes = append(fixes, fix)
			}
			c.report(p, "IDISP002", span, m.String(),
				fmt.Sprintf("Dispose member: %s is assigned a created disposable and never disposed", m.Name()), fixes...)
		}
		if len(owned) > 0 && !t.IsStatic() {
			c.report(p, "IDISP006", td.NameSpan, t.String(),
				fmt.Sprintf("Implement IDisposable: %s owns %v", td.Name, owned))
		}
	}
	return nil
}

// memberSite returns where member m is declared within td, and whether it
// is static. Members of other partial declarations, methods and non-auto
// properties are skipped.
func memberSite(m semantic.Symbol, td *syntax.TypeDecl) (syntax.Span, bool, bool) {
	switch m := m.(type) {
	case *semantic.FieldSymbol:
		d := m.Declarator()
		if d == nil || m.IsConst() || m.IsEvent() || !syntax.IsAncestor(td, d) {
			return syntax.Span{}, false, false
		}
		return d.NameSpan, m.IsStatic(), true
	case *semantic.PropertySymbol:
		d := m.Declaration()
		if d == nil || !m.IsAuto() || m.IsIndexer() || !syntax.IsAncestor(td, d) {
			return syntax.Span{}, false, false
		}
		return d.NameSpan, m.IsStatic(), true
	}
	return syntax.Span{}, false, false
}

func (c *Checker) memberValues(p *pass, m semantic.Symbol) (created, injected bool, err error) {
	values, err := c.engine.AssignedValues(p.ctx, m, nil)
	if err != nil {
		return false, false, err
	}
	for _, v := range values {
		if !created {
			if created, err = c.disposable.IsCreation(p.ctx, v); err != nil {
				return false, false, err
			}
		}
		if !injected {
			if injected, err = c.disposable.IsInjected(p.ctx, v, v); err != nil {
				return false, false, err
			}
		}
	}
	return created, injected, nil
}

// checkReassignments reports assignments of a created disposable to a
// variable that may already hold one that was not disposed first
func (c *Checker) checkReassignments(p *pass) error {
	model := c.engine.Model()
	for _, a := range syntax.Collect[*syntax.Assignment](p.tree.Root) {
		if a.Op != "=" {
			continue
		}
		target := model.ResolveSymbol(a.Left)
		switch s := target.(type) {
		case *semantic.LocalSymbol, *semantic.FieldSymbol:
		case *semantic.PropertySymbol:
			if !s.IsAuto() {
				continue
			}
		default:
			continue
		}
		created, err := c.disposable.IsCreation(p.ctx, a.Right)
		if err != nil {
			return err
		}
		if !created || guardedByNullCheck(model, a, target) || disposedBefore(model, a, target) {
			continue
		}
		prior, err := c.engine.AssignedValues(p.ctx, target, a)
		if err != nil {
			return err
		}
		held := false
		for _, v := range prior {
			if held, err = c.disposable.IsCreation(p.ctx, v); err != nil {
				return err
			}
			if held {
				break
			}
		}
		if !held {
			continue
		}
		var fixes []types.Fix
		if fix, ok := disposePreviousFix(p.tree, a); ok {
			fixes = append(fixes, fix)
		}
		c.report(p, "IDISP003", a.Left.Span(), target.String(),
			fmt.Sprintf("Dispose previous before re-assigning: %s may hold an undisposed value", syntax.Text(a.Left)), fixes...)
	}
	return nil
}

// guardedByNullCheck reports whether a only runs when target is null, as in
// if (x == null) x = new T();
func guardedByNullCheck(model semantic.Model, a *syntax.Assignment, target semantic.Symbol) bool {
	stop := syntax.EnclosingFunction(a)
	for n := a.Parent(); n != nil && n != stop; n = n.Parent() {
		ifStmt, ok := n.(*syntax.If)
		if !ok || !syntax.IsAncestor(ifStmt.Then, a) {
			continue
		}
		b, ok := syntax.Unparen(ifStmt.Cond).(*syntax.Binary)
		if !ok || (b.Op != "==" && b.Op != "is") {
			continue
		}
		for _, side := range [][2]syntax.Expr{{b.Left, b.Right}, {b.Right, b.Left}} {
			lit, ok := side[1].(*syntax.Literal)
			if ok && lit.LitKind == syntax.LitNull && model.SymbolsEqual(model.ResolveSymbol(side[0]), target) {
				return true
			}
		}
	}
	return false
}

// disposedBefore reports whether the function containing a disposes target
// lexically before a
func disposedBefore(model semantic.Model, a *syntax.Assignment, target semantic.Symbol) bool {
	fn := syntax.EnclosingFunction(a)
	if fn == nil {
		return false
	}
	for _, inv := range syntax.Collect[*syntax.Invocation](fn) {
		if !syntax.IsBefore(inv, a) {
			continue
		}
		if x := walkers.DisposedTarget(inv); x != nil && model.SymbolsEqual(model.ResolveSymbol(x), target) {
			return true
		}
	}
	return false
}

// checkIgnored reports created disposables whose value is discarded
func (c *Checker) checkIgnored(p *pass) error {
	var err error
	syntax.Inspect(p.tree.Root, func(n syntax.Node) bool {
		if err != nil {
			return false
		}
		switch n.(type) {
		case *syntax.ObjectCreation, *syntax.Invocation:
		default:
			return true
		}
		e := n.(syntax.Expr)
		if !discarded(e) {
			return true
		}
		var created bool
		if created, err = c.disposable.IsCreation(p.ctx, e); err != nil || !created {
			return true
		}
		c.report(p, "IDISP004", e.Span(), "",
			fmt.Sprintf("Don't ignore created IDisposable: %s", syntax.Text(e)))
		return true
	})
	return err
}

// discarded reports whether the value of e is dropped: used as a statement,
// assigned to the discard _ or used only as the receiver of another call
func discarded(e syntax.Expr) bool {
	var child syntax.Node = e
	p := e.Parent()
	for {
		if paren, ok := p.(*syntax.Parenthesized); ok {
			child, p = paren, paren.Parent()
			continue
		}
		break
	}
	switch p := p.(type) {
	case *syntax.ExpressionStmt:
		return true
	case *syntax.Assignment:
		id, ok := p.Left.(*syntax.Identifier)
		return ok && id.Name == "_" && child == syntax.Node(p.Right)
	case *syntax.MemberAccess:
		if child != syntax.Node(p.Expr) {
			return false
		}
		inv, ok := p.Parent().(*syntax.Invocation)
		return ok && inv.Expr == syntax.Expr(p) && !walkers.IsDisposeCall(inv)
	}
	return false
}

// checkInjectedDisposed reports dispose calls and using statements that
// release a value the type does not own
func (c *Checker) checkInjectedDisposed(p *pass) error {
	report := func(site syntax.Node, x syntax.Expr) error {
		injected, err := c.disposable.IsInjected(p.ctx, x, site)
		if err != nil || !injected {
			return err
		}
		c.report(p, "IDISP007", site.Span(), syntax.Text(x),
			fmt.Sprintf("Don't dispose injected: %s is not owned here", syntax.Text(x)))
		return nil
	}
	for _, inv := range syntax.Collect[*syntax.Invocation](p.tree.Root) {
		if x := walkers.DisposedTarget(inv); x != nil {
			if err := report(inv, x); err != nil {
				return err
			}
		}
	}
	for _, u := range syntax.Collect[*syntax.Using](p.tree.Root) {
		if u.Expr != nil {
			if err := report(u, u.Expr); err != nil {
				return err
			}
		}
	}
	return nil
}
