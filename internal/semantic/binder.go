package semantic

import (
	"strings"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// maxBindDepth bounds mutually dependent inference such as var x = x;
const maxBindDepth = 48

// ResolveSymbol binds a reference: a name, member access, invocation, object
// creation, constructor initializer or element access. Declarations resolve to
// the symbol they declare. Unresolvable nodes return nil.
func (c *Compilation) ResolveSymbol(n syntax.Node) Symbol {
	return c.resolve(n, 0)
}

func (c *Compilation) resolve(n syntax.Node, depth int) Symbol {
	if n == nil || depth > maxBindDepth {
		return nil
	}
	if v, ok := c.bindings.Load(n); ok {
		return v.(binding).sym
	}
	s := c.bind(n, depth+1)
	if depth == 0 || s != nil {
		c.bindings.Store(n, binding{s})
	}
	return s
}

func (c *Compilation) bind(n syntax.Node, depth int) Symbol {
	switch n := n.(type) {
	case *syntax.Identifier:
		if ma, ok := n.Parent().(*syntax.MemberAccess); ok && ma.Name == n {
			return c.resolve(ma, depth)
		}
		if inv, ok := n.Parent().(*syntax.Invocation); ok && syntax.Expr(n) == inv.Expr {
			return c.resolve(inv, depth)
		}
		return c.bindName(n, depth)
	case *syntax.MemberAccess:
		if inv, ok := n.Parent().(*syntax.Invocation); ok && syntax.Expr(n) == inv.Expr {
			return c.resolve(inv, depth)
		}
		return c.bindMemberAccess(n, nil, depth)
	case *syntax.Invocation:
		return c.bindInvocation(n, depth)
	case *syntax.ObjectCreation:
		t := c.typeOf(n, depth)
		if t == nil {
			return nil
		}
		return methodSymbol(c.chooseMethod(t.InstanceConstructors(), n.Args, nil, depth))
	case *syntax.ConstructorInitializer:
		return c.bindConstructorInitializer(n, depth)
	case *syntax.ElementAccess:
		return c.bindElementAccess(n, depth)
	case *syntax.Parenthesized:
		return c.resolve(n.Expr, depth)
	case *syntax.Argument:
		return c.resolve(n.Expr, depth)
	case *syntax.TypeRef:
		if t := c.resolveType(n, n); t != nil {
			return t
		}
		return nil
	}
	return c.DeclaredSymbol(n)
}

// methodSymbol converts without producing a typed nil interface
func methodSymbol(m *MethodSymbol) Symbol {
	if m == nil {
		return nil
	}
	return m
}

// bindName resolves a simple name: locals and parameters first, then members
// of the enclosing types along their base chains, then types
func (c *Compilation) bindName(id *syntax.Identifier, depth int) Symbol {
	if s := c.scopeLocal(id.Name, id); s != nil {
		return s
	}
	for owner := c.enclosingTypeSymbol(id); owner != nil; owner = owner.outer {
		members := lookupMembers(owner, id.Name)
		var methods []*MethodSymbol
		for _, m := range members {
			if ms, ok := m.(*MethodSymbol); ok {
				methods = append(methods, ms)
				continue
			}
			return m
		}
		if len(methods) > 0 {
			return methods[0]
		}
	}
	if t := c.lookupType(id.Name, len(id.TypeArgs), id); t != nil {
		if len(id.TypeArgs) > 0 {
			return c.resolveTypeArgs(t, id.TypeArgs, id)
		}
		return t
	}
	return nil
}

func (c *Compilation) resolveTypeArgs(t *TypeSymbol, refs []*syntax.TypeRef, ctx syntax.Node) *TypeSymbol {
	args := make([]*TypeSymbol, len(refs))
	for i, r := range refs {
		args[i] = c.resolveType(r, ctx)
		if args[i] == nil {
			args[i] = c.object
		}
	}
	return c.construct(t, args)
}

func (c *Compilation) enclosingTypeSymbol(n syntax.Node) *TypeSymbol {
	decl := syntax.EnclosingType(n)
	if decl == nil {
		return nil
	}
	t, _ := c.declared[decl].(*TypeSymbol)
	return t
}

// receiver describes the left side of a member access
type receiver struct {
	typ      *TypeSymbol
	isStatic bool
}

func (c *Compilation) receiverOf(e syntax.Expr, depth int) receiver {
	switch e := syntax.Unparen(e).(type) {
	case *syntax.This:
		return receiver{typ: c.enclosingTypeSymbol(e)}
	case *syntax.Base:
		if t := c.enclosingTypeSymbol(e); t != nil {
			return receiver{typ: t.Base()}
		}
		return receiver{}
	case *syntax.Identifier, *syntax.MemberAccess:
		sym := c.resolve(e, depth)
		if t, ok := sym.(*TypeSymbol); ok {
			return receiver{typ: t, isStatic: true}
		}
		if sym == nil {
			// a namespace qualified type name such as System.IO.File
			if name := dottedName(e); name != "" {
				if t := c.lookupType(name, 0, e); t != nil {
					return receiver{typ: t, isStatic: true}
				}
			}
		}
	}
	return receiver{typ: c.typeOf(e, depth)}
}

// dottedName renders a chain of simple names as A.B.C, or "" for anything else
func dottedName(e syntax.Expr) string {
	switch e := e.(type) {
	case *syntax.Identifier:
		return e.Name
	case *syntax.MemberAccess:
		left := dottedName(e.Expr)
		if left == "" || e.Name == nil {
			return ""
		}
		return left + "." + e.Name.Name
	}
	return ""
}

// bindMemberAccess resolves e.Name. args is non-nil when the access is the
// target of an invocation and selects among overloads.
func (c *Compilation) bindMemberAccess(ma *syntax.MemberAccess, inv *syntax.Invocation, depth int) Symbol {
	if ma.Name == nil {
		return nil
	}
	recv := c.receiverOf(ma.Expr, depth)
	if recv.typ == nil {
		if name := dottedName(ma); name != "" {
			if t := c.lookupType(name, len(ma.Name.TypeArgs), ma); t != nil {
				return t
			}
		}
		return nil
	}
	members := lookupMembers(recv.typ, ma.Name.Name)
	var methods []*MethodSymbol
	for _, m := range members {
		switch m := m.(type) {
		case *MethodSymbol:
			methods = append(methods, m)
		default:
			if inv == nil {
				return m
			}
			// invoking a delegate typed member
			if invoke := c.delegateInvoke(c.memberType(m, recv.typ), inv, depth); invoke != nil {
				return invoke
			}
			return m
		}
	}
	if len(methods) == 0 {
		return nil
	}
	if inv == nil {
		return methods[0]
	}
	return methodSymbol(c.chooseMethod(methods, inv.Args, ma.Name.TypeArgs, depth))
}

func (c *Compilation) bindInvocation(inv *syntax.Invocation, depth int) Symbol {
	switch target := syntax.Unparen(inv.Expr).(type) {
	case *syntax.MemberAccess:
		return c.bindMemberAccess(target, inv, depth)
	case *syntax.Identifier:
		if s := c.scopeLocal(target.Name, target); s != nil {
			if m, ok := s.(*MethodSymbol); ok {
				return m
			}
			return methodSymbol(c.delegateInvoke(c.symbolType(s, depth), inv, depth))
		}
		var methods []*MethodSymbol
		for owner := c.enclosingTypeSymbol(target); owner != nil && len(methods) == 0; owner = owner.outer {
			for _, m := range lookupMembers(owner, target.Name) {
				switch m := m.(type) {
				case *MethodSymbol:
					methods = append(methods, m)
				case *FieldSymbol, *PropertySymbol:
					if len(methods) == 0 {
						return methodSymbol(c.delegateInvoke(c.symbolType(m, depth), inv, depth))
					}
				}
			}
		}
		return methodSymbol(c.chooseMethod(methods, inv.Args, target.TypeArgs, depth))
	default:
		return methodSymbol(c.delegateInvoke(c.typeOf(inv.Expr, depth), inv, depth))
	}
}

// delegateInvoke returns the Invoke method of a delegate typed value
func (c *Compilation) delegateInvoke(t *TypeSymbol, inv *syntax.Invocation, depth int) *MethodSymbol {
	if t == nil || inv == nil {
		return nil
	}
	var methods []*MethodSymbol
	for _, m := range t.MembersNamed("Invoke") {
		if ms, ok := m.(*MethodSymbol); ok {
			methods = append(methods, ms)
		}
	}
	return c.chooseMethod(methods, inv.Args, nil, depth)
}

func (c *Compilation) bindConstructorInitializer(ci *syntax.ConstructorInitializer, depth int) Symbol {
	t := c.enclosingTypeSymbol(ci)
	if t == nil {
		return nil
	}
	if ci.Keyword == "base" {
		t = t.Base()
		if t == nil {
			return nil
		}
	}
	ctors := t.InstanceConstructors()
	if ci.Keyword != "base" {
		// never the constructor that owns the initializer
		own, _ := c.declared[ci.Parent()].(*MethodSymbol)
		filtered := ctors[:0:0]
		for _, m := range ctors {
			if m != own {
				filtered = append(filtered, m)
			}
		}
		ctors = filtered
	}
	return methodSymbol(c.chooseMethod(ctors, ci.Args, nil, depth))
}

func (c *Compilation) bindElementAccess(ea *syntax.ElementAccess, depth int) Symbol {
	var t *TypeSymbol
	if ea.Expr == nil {
		// [key] = value inside an object initializer indexes the created object
		if oc := initializerOwner(ea); oc != nil {
			t = c.typeOf(oc, depth)
		}
	} else {
		t = c.typeOf(ea.Expr, depth)
	}
	if t == nil || t.IsArray() {
		return nil
	}
	var indexers []*MethodSymbol
	var props []*PropertySymbol
	for _, m := range lookupMembers(t, "this") {
		if p, ok := m.(*PropertySymbol); ok {
			props = append(props, p)
			if g := p.getter; g != nil {
				indexers = append(indexers, g)
			} else if s := p.setter; s != nil {
				indexers = append(indexers, s)
			}
		}
	}
	if len(props) == 0 {
		return nil
	}
	if m := c.chooseMethod(indexers, ea.Args, nil, depth); m != nil && m.property != nil {
		return m.property
	}
	return props[0]
}

// initializerOwner returns the creation expression whose object initializer contains n
func initializerOwner(n syntax.Node) syntax.Expr {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p := p.(type) {
		case *syntax.ObjectCreation:
			return p
		case *syntax.Initializer, *syntax.Assignment:
			continue
		default:
			return nil
		}
	}
	return nil
}

// DeclaredSymbol returns the symbol declared by a declaration node: a type,
// member, accessor, parameter, local, local function or lambda
func (c *Compilation) DeclaredSymbol(n syntax.Node) Symbol {
	if n == nil {
		return nil
	}
	if s, ok := c.declared[n]; ok {
		return s
	}
	if v, ok := c.locals.Load(n); ok {
		return v.(Symbol)
	}
	var s Symbol
	switch n := n.(type) {
	case *syntax.VariableDeclarator:
		decl, ok := n.Parent().(*syntax.LocalDeclaration)
		if !ok {
			return nil
		}
		s = &LocalSymbol{
			name:       n.Name,
			decl:       n,
			typeRef:    decl.Type,
			containing: c.enclosingTypeSymbol(n),
			using:      decl.Using || isUsingStatementDecl(decl),
			constant:   decl.Const,
		}
	case *syntax.DeclarationExpr:
		s = &LocalSymbol{name: n.Name, decl: n, typeRef: n.Type, containing: c.enclosingTypeSymbol(n)}
	case *syntax.ForEach:
		s = &LocalSymbol{name: n.Name, decl: n, typeRef: n.Type, containing: c.enclosingTypeSymbol(n)}
	case *syntax.Catch:
		if n.Name == "" {
			return nil
		}
		s = &LocalSymbol{name: n.Name, decl: n, typeRef: n.Type, containing: c.enclosingTypeSymbol(n)}
	case *syntax.LocalFunction:
		m := &MethodSymbol{
			name:       n.Name,
			methodKind: MethodLocalFunction,
			decls:      []syntax.Node{n},
			containing: c.enclosingTypeSymbol(n),
			modifiers:  n.Modifiers,
			typeParams: n.TypeParams,
			returnRef:  n.ReturnType,
			returnType: c.resolveType(n.ReturnType, n),
		}
		m.params = c.lazyParams(m, n.Params, n)
		s = m
	case *syntax.Lambda:
		m := &MethodSymbol{
			name:       "lambda",
			methodKind: MethodLambda,
			decls:      []syntax.Node{n},
			containing: c.enclosingTypeSymbol(n),
			modifiers:  n.Modifiers,
		}
		m.params = c.lazyParams(m, n.Params, n)
		s = m
	case *syntax.Parameter:
		owner := c.DeclaredSymbol(n.Parent())
		if m, ok := owner.(*MethodSymbol); ok {
			for _, p := range m.params {
				if p.decl == n {
					return p
				}
			}
		}
		return nil
	default:
		return nil
	}
	v, _ := c.locals.LoadOrStore(n, s)
	return v.(Symbol)
}

func isUsingStatementDecl(d *syntax.LocalDeclaration) bool {
	u, ok := d.Parent().(*syntax.Using)
	return ok && u.Decl == d
}

func (c *Compilation) lazyParams(owner *MethodSymbol, params []*syntax.Parameter, ctx syntax.Node) []*ParameterSymbol {
	out := make([]*ParameterSymbol, len(params))
	for i, p := range params {
		out[i] = &ParameterSymbol{
			name:     p.Name,
			ordinal:  i,
			refKind:  p.RefKind,
			isParams: p.Params,
			decl:     p,
			owner:    owner,
			typ:      c.resolveType(p.Type, ctx),
		}
	}
	return out
}

// FindMember resolves a "Type.Member" or "Namespace.Type.Member" query
// against the source types of the compilation
func (c *Compilation) FindMember(query string) []Symbol {
	i := strings.LastIndexByte(query, '.')
	if i <= 0 {
		return nil
	}
	typeName, member := query[:i], query[i+1:]
	var out []Symbol
	for _, t := range c.Types() {
		if t.name != typeName && t.FullName() != typeName {
			continue
		}
		for _, m := range t.MembersNamed(member) {
			out = append(out, m)
		}
		if member == t.name || member == "ctor" {
			for _, m := range t.InstanceConstructors() {
				out = append(out, m)
			}
		}
	}
	return out
}

// MemberNames lists "Type.Member" for every source member, for suggestions
func (c *Compilation) MemberNames() []string {
	var out []string
	for _, t := range c.Types() {
		for _, m := range t.members {
			if _, ok := m.(*TypeSymbol); ok {
				continue
			}
			if m.Name() == ".ctor" {
				continue
			}
			out = append(out, t.name+"."+m.Name())
		}
	}
	return out
}
