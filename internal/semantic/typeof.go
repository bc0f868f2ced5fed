package semantic

import (
	"strings"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// TypeOf infers the static type of an expression. Generic members are
// substituted with the receiver's and the call's type arguments. Returns nil
// for null, lambdas, method groups and anything that does not resolve.
func (c *Compilation) TypeOf(e syntax.Expr) *TypeSymbol {
	return c.typeOf(e, 0)
}

func (c *Compilation) typeOf(e syntax.Expr, depth int) *TypeSymbol {
	if e == nil || depth > maxBindDepth {
		return nil
	}
	depth++
	switch e := e.(type) {
	case *syntax.Literal:
		return c.literalType(e)
	case *syntax.Identifier:
		return c.referenceType(e, nil, depth)
	case *syntax.MemberAccess:
		return c.referenceType(e, e.Expr, depth)
	case *syntax.This:
		return c.enclosingTypeSymbol(e)
	case *syntax.Base:
		if t := c.enclosingTypeSymbol(e); t != nil {
			return t.Base()
		}
		return nil
	case *syntax.ElementAccess:
		return c.elementAccessType(e, depth)
	case *syntax.Invocation:
		m, _ := c.resolve(e, depth).(*MethodSymbol)
		if m == nil || m.returnType == nil {
			return nil
		}
		return c.substitute(m.returnType, c.invocationEnv(e, m, depth))
	case *syntax.ObjectCreation:
		if e.Type != nil {
			return c.resolveType(e.Type, e)
		}
		return c.targetType(e, depth)
	case *syntax.Initializer:
		return nil
	case *syntax.ArrayCreation:
		if e.Type != nil {
			t := c.resolveType(e.Type, e)
			if t != nil && !t.IsArray() {
				t = c.arrayOf(t)
			}
			return t
		}
		if e.Init != nil && len(e.Init.Exprs) > 0 {
			if elem := c.typeOf(e.Init.Exprs[0], depth); elem != nil {
				return c.arrayOf(elem)
			}
		}
		return c.targetType(e, depth)
	case *syntax.Assignment:
		return c.typeOf(e.Left, depth)
	case *syntax.Binary:
		return c.binaryType(e, depth)
	case *syntax.Unary:
		if e.Op == "!" && !e.Postfix {
			return c.lookupFull("System.Boolean")
		}
		return c.typeOf(e.Operand, depth)
	case *syntax.Conditional:
		if t := c.typeOf(e.WhenTrue, depth); t != nil {
			return t
		}
		return c.typeOf(e.WhenFalse, depth)
	case *syntax.Parenthesized:
		return c.typeOf(e.Expr, depth)
	case *syntax.Cast:
		return c.resolveType(e.Type, e)
	case *syntax.Await:
		return AwaitResult(c.typeOf(e.Expr, depth))
	case *syntax.Lambda:
		return nil
	case *syntax.Default:
		if e.Type != nil {
			return c.resolveType(e.Type, e)
		}
		return c.targetType(e, depth)
	case *syntax.DeclarationExpr:
		if l, ok := c.DeclaredSymbol(e).(*LocalSymbol); ok {
			return c.localType(l, depth)
		}
		return nil
	case *syntax.UnknownExpr:
		return nil
	}
	return nil
}

func (c *Compilation) literalType(l *syntax.Literal) *TypeSymbol {
	switch l.LitKind {
	case syntax.LitBool:
		return c.lookupFull("System.Boolean")
	case syntax.LitString:
		return c.lookupFull("System.String")
	case syntax.LitChar:
		return c.lookupFull("System.Char")
	case syntax.LitNumber:
		v := strings.ToLower(l.Value)
		switch {
		case strings.HasSuffix(v, "m"):
			return c.lookupFull("System.Decimal")
		case strings.HasSuffix(v, "f"):
			return c.lookupFull("System.Single")
		case strings.HasSuffix(v, "d") && !strings.HasPrefix(v, "0x"), strings.ContainsAny(v, ".") || (strings.Contains(v, "e") && !strings.HasPrefix(v, "0x")):
			return c.lookupFull("System.Double")
		case strings.HasSuffix(v, "l"):
			return c.lookupFull("System.Int64")
		}
		return c.lookupFull("System.Int32")
	}
	return nil
}

// referenceType types a name or member access through the symbol it binds to
func (c *Compilation) referenceType(e syntax.Expr, recvExpr syntax.Expr, depth int) *TypeSymbol {
	switch s := c.resolve(e, depth).(type) {
	case *TypeSymbol:
		return s
	case *MethodSymbol:
		return nil
	case *FieldSymbol, *PropertySymbol:
		var recv *TypeSymbol
		if recvExpr != nil {
			recv = c.receiverOf(recvExpr, depth).typ
		} else {
			recv = c.enclosingTypeSymbol(e)
		}
		return c.memberType(s, recv)
	case nil:
		return nil
	default:
		return c.symbolType(s, depth)
	}
}

func (c *Compilation) elementAccessType(e *syntax.ElementAccess, depth int) *TypeSymbol {
	var recv *TypeSymbol
	if e.Expr == nil {
		if oc := initializerOwner(e); oc != nil {
			recv = c.typeOf(oc, depth)
		}
	} else {
		recv = c.typeOf(e.Expr, depth)
	}
	if recv == nil {
		return nil
	}
	if recv.IsArray() {
		return recv.elem
	}
	if p, ok := c.resolve(e, depth).(*PropertySymbol); ok {
		return c.memberType(p, recv)
	}
	return nil
}

func (c *Compilation) binaryType(e *syntax.Binary, depth int) *TypeSymbol {
	switch e.Op {
	case "??":
		if t := c.typeOf(e.Left, depth); t != nil {
			return t
		}
		return c.typeOf(e.Right, depth)
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||", "is":
		return c.lookupFull("System.Boolean")
	case "+":
		left, right := c.typeOf(e.Left, depth), c.typeOf(e.Right, depth)
		str := c.lookupFull("System.String")
		if SameType(left, str) || SameType(right, str) {
			return str
		}
		if left != nil {
			return left
		}
		return right
	}
	return c.typeOf(e.Left, depth)
}

// symbolType returns the declared or inferred type of a value symbol
func (c *Compilation) symbolType(s Symbol, depth int) *TypeSymbol {
	switch s := s.(type) {
	case *LocalSymbol:
		return c.localType(s, depth)
	case *ParameterSymbol:
		return s.typ
	case *FieldSymbol:
		return s.typ
	case *PropertySymbol:
		return s.typ
	case *TypeSymbol:
		return s
	}
	return nil
}

func (c *Compilation) localType(l *LocalSymbol, depth int) *TypeSymbol {
	if depth > maxBindDepth {
		return nil
	}
	if t := c.resolveType(l.typeRef, l.decl); t != nil {
		return t
	}
	switch d := l.decl.(type) {
	case *syntax.VariableDeclarator:
		return c.typeOf(d.Init, depth+1)
	case *syntax.ForEach:
		return c.elementType(c.typeOf(d.Expr, depth+1))
	case *syntax.DeclarationExpr:
		arg, ok := d.Parent().(*syntax.Argument)
		if !ok {
			return nil
		}
		inv, ok := arg.Parent().(*syntax.Invocation)
		if !ok {
			return nil
		}
		m, _ := c.resolve(inv, depth+1).(*MethodSymbol)
		if p := parameterFor(m, inv.Args, arg); p != nil {
			return c.substitute(p.typ, c.invocationEnv(inv, m, depth+1))
		}
	}
	return nil
}

// elementType returns the iteration type of a collection type
func (c *Compilation) elementType(t *TypeSymbol) *TypeSymbol {
	if t == nil {
		return nil
	}
	if t.IsArray() {
		return t.elem
	}
	for _, x := range append([]*TypeSymbol{t}, t.AllInterfaces()...) {
		if x.Definition().FullName() == "System.Collections.Generic.IEnumerable" && len(x.args) == 1 {
			return x.args[0]
		}
	}
	if len(t.args) == 1 {
		return t.args[0]
	}
	return nil
}

// memberType returns the type of a field, property or method return as seen
// through a receiver of type recv
func (c *Compilation) memberType(m Symbol, recv *TypeSymbol) *TypeSymbol {
	var t *TypeSymbol
	switch m := m.(type) {
	case *FieldSymbol:
		t = m.typ
	case *PropertySymbol:
		t = m.typ
	case *MethodSymbol:
		t = m.returnType
	}
	if t == nil {
		return nil
	}
	return c.substitute(t, memberEnv(recv, m.ContainingType()))
}

// memberEnv maps the type parameters of owner to the arguments recv supplies
func memberEnv(recv, owner *TypeSymbol) map[string]*TypeSymbol {
	if recv == nil || owner == nil {
		return nil
	}
	def := owner.Definition()
	for _, b := range recv.BaseTypes() {
		if b.Definition() == def {
			return b.env()
		}
	}
	for _, i := range recv.AllInterfaces() {
		if i.Definition() == def {
			return i.env()
		}
	}
	return nil
}

// targetType returns the type a target-typed expression (new(), default,
// collection expression) converts to
func (c *Compilation) targetType(e syntax.Expr, depth int) *TypeSymbol {
	var child syntax.Node = e
	for p := e.Parent(); p != nil; child, p = p, p.Parent() {
		switch p := p.(type) {
		case *syntax.Parenthesized, *syntax.Conditional:
			continue
		case *syntax.Binary:
			if p.Op == "??" {
				continue
			}
			return nil
		case *syntax.VariableDeclarator:
			return c.symbolType(c.DeclaredSymbol(p), depth)
		case *syntax.Assignment:
			if child == syntax.Node(p.Right) {
				return c.typeOf(p.Left, depth)
			}
			return nil
		case *syntax.Return:
			if m, ok := c.DeclaredSymbol(syntax.EnclosingFunction(p)).(*MethodSymbol); ok {
				return m.returnType
			}
			return nil
		case *syntax.Argument:
			inv, ok := p.Parent().(*syntax.Invocation)
			if !ok {
				return nil
			}
			m, _ := c.resolve(inv, depth).(*MethodSymbol)
			if param := parameterFor(m, inv.Args, p); param != nil {
				return param.typ
			}
			return nil
		case *syntax.PropertyDecl:
			if prop, ok := c.declared[p].(*PropertySymbol); ok {
				return prop.typ
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}
