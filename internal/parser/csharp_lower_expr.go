package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// expr lowers an expression node. It returns nil only for a nil input.
func (l *lowerer) expr(n *tree_sitter.Node) syntax.Expr {
	if n == nil {
		return nil
	}
	span := l.span(n)
	switch n.Kind() {
	case "identifier", "predefined_type", "discard":
		return syntax.Build(&syntax.Identifier{Name: l.text(n)}, span)
	case "generic_name":
		name, args := l.genericParts(n)
		return syntax.Build(&syntax.Identifier{Name: name, TypeArgs: args}, span)
	case "qualified_name":
		return l.qualifiedExpr(n)
	case "alias_qualified_name":
		if right := field(n, "name"); right != nil {
			return l.expr(right)
		}
	case "this", "this_expression":
		return syntax.Build(&syntax.This{}, span)
	case "base", "base_expression":
		return syntax.Build(&syntax.Base{}, span)
	case "null_literal":
		return syntax.Build(&syntax.Literal{LitKind: syntax.LitNull, Value: "null"}, span)
	case "boolean_literal":
		return syntax.Build(&syntax.Literal{LitKind: syntax.LitBool, Value: l.text(n)}, span)
	case "integer_literal", "real_literal":
		return syntax.Build(&syntax.Literal{LitKind: syntax.LitNumber, Value: l.text(n)}, span)
	case "string_literal", "verbatim_string_literal", "raw_string_literal":
		return syntax.Build(&syntax.Literal{LitKind: syntax.LitString, Value: l.text(n)}, span)
	case "character_literal":
		return syntax.Build(&syntax.Literal{LitKind: syntax.LitChar, Value: l.text(n)}, span)
	case "member_access_expression":
		return l.memberAccess(n)
	case "conditional_access_expression":
		return l.conditionalAccess(n)
	case "member_binding_expression":
		return l.memberBinding(n)
	case "element_binding_expression":
		return l.elementBinding(n)
	case "element_access_expression":
		e := syntax.Build(&syntax.ElementAccess{}, span)
		e.Expr = l.expr(field(n, "expression"))
		sub := field(n, "subscript")
		if sub == nil {
			sub = l.firstOfKind(n, "bracketed_argument_list")
		}
		e.Args = l.arguments(sub)
		if e.Expr == nil {
			if parts := l.named(n); len(parts) > 0 {
				e.Expr = l.expr(parts[0])
			}
		}
		return e
	case "invocation_expression":
		inv := syntax.Build(&syntax.Invocation{}, span)
		fn := field(n, "function")
		args := field(n, "arguments")
		if fn == nil || args == nil {
			parts := l.named(n)
			if len(parts) >= 2 {
				fn, args = parts[0], parts[len(parts)-1]
			}
		}
		inv.Expr = l.expr(fn)
		inv.Args = l.arguments(args)
		return inv
	case "object_creation_expression":
		oc := syntax.Build(&syntax.ObjectCreation{}, span)
		if t := field(n, "type"); t != nil {
			oc.Type = l.typeRef(t)
		}
		if a := field(n, "arguments"); a != nil {
			oc.Args = l.arguments(a)
		} else if a := l.firstOfKind(n, "argument_list"); a != nil {
			oc.Args = l.arguments(a)
		}
		if i := field(n, "initializer"); i != nil {
			oc.Init = l.initializer(i, false)
		} else if i := l.firstOfKind(n, "initializer_expression"); i != nil {
			oc.Init = l.initializer(i, false)
		}
		if oc.Type == nil {
			for _, c := range l.named(n) {
				if c.Kind() != "argument_list" && c.Kind() != "initializer_expression" {
					oc.Type = l.typeRef(c)
					break
				}
			}
		}
		return oc
	case "implicit_object_creation_expression":
		oc := syntax.Build(&syntax.ObjectCreation{}, span)
		if a := l.firstOfKind(n, "argument_list"); a != nil {
			oc.Args = l.arguments(a)
		}
		if i := l.firstOfKind(n, "initializer_expression"); i != nil {
			oc.Init = l.initializer(i, false)
		}
		return oc
	case "array_creation_expression":
		ac := syntax.Build(&syntax.ArrayCreation{}, span)
		if t := field(n, "type"); t != nil {
			ac.Type = l.typeRef(t)
			ac.Sizes = l.arraySizes(t)
		}
		if i := l.firstOfKind(n, "initializer_expression"); i != nil {
			ac.Init = l.initializer(i, true)
		}
		return ac
	case "implicit_array_creation_expression", "stackalloc_expression", "implicit_stackalloc_expression":
		ac := syntax.Build(&syntax.ArrayCreation{}, span)
		if i := l.firstOfKind(n, "initializer_expression"); i != nil {
			ac.Init = l.initializer(i, true)
		}
		return ac
	case "collection_expression":
		ac := syntax.Build(&syntax.ArrayCreation{}, span)
		init := syntax.Build(&syntax.Initializer{InitKind: syntax.InitArray}, span)
		for _, c := range l.named(n) {
			if c.Kind() == "spread_element" {
				if parts := l.named(c); len(parts) > 0 {
					c = parts[0]
				}
			}
			if e := l.expr(c); e != nil {
				init.Exprs = append(init.Exprs, e)
			}
		}
		ac.Init = init
		return ac
	case "initializer_expression":
		return l.initializer(n, false)
	case "assignment_expression":
		a := syntax.Build(&syntax.Assignment{}, span)
		a.Left = l.assignTarget(field(n, "left"))
		a.Right = l.expr(field(n, "right"))
		a.Op = l.operator(n)
		if a.Left == nil || a.Right == nil {
			parts := l.named(n)
			if len(parts) >= 2 {
				a.Left = l.assignTarget(parts[0])
				a.Right = l.expr(parts[len(parts)-1])
			}
		}
		if a.Op == "" {
			a.Op = "="
		}
		return a
	case "binary_expression":
		b := syntax.Build(&syntax.Binary{}, span)
		b.Left = l.expr(field(n, "left"))
		b.Right = l.expr(field(n, "right"))
		b.Op = l.operator(n)
		if b.Left == nil || b.Right == nil {
			parts := l.named(n)
			if len(parts) >= 2 {
				b.Left, b.Right = l.expr(parts[0]), l.expr(parts[len(parts)-1])
			}
		}
		return b
	case "as_expression":
		c := syntax.Build(&syntax.Cast{As: true}, span)
		left := field(n, "left")
		right := field(n, "right")
		if left == nil || right == nil {
			parts := l.named(n)
			if len(parts) >= 2 {
				left, right = parts[0], parts[len(parts)-1]
			}
		}
		c.Expr = l.expr(left)
		c.Type = l.typeRef(right)
		return c
	case "cast_expression":
		c := syntax.Build(&syntax.Cast{}, span)
		t := field(n, "type")
		v := field(n, "value")
		if t == nil || v == nil {
			parts := l.named(n)
			if len(parts) >= 2 {
				t, v = parts[0], parts[len(parts)-1]
			}
		}
		c.Type = l.typeRef(t)
		c.Expr = l.expr(v)
		return c
	case "prefix_unary_expression":
		u := syntax.Build(&syntax.Unary{}, span)
		for _, c := range l.all(n) {
			if c.IsNamed() {
				if u.Operand == nil {
					u.Operand = l.expr(c)
				}
			} else if u.Op == "" {
				u.Op = c.Kind()
			}
		}
		return u
	case "postfix_unary_expression":
		parts := l.named(n)
		if len(parts) == 0 {
			break
		}
		op := ""
		for _, c := range l.all(n) {
			if !c.IsNamed() {
				op = c.Kind()
			}
		}
		// x! only suppresses nullable warnings
		if op == "!" {
			return l.expr(parts[0])
		}
		u := syntax.Build(&syntax.Unary{Op: op, Postfix: true}, span)
		u.Operand = l.expr(parts[0])
		return u
	case "conditional_expression":
		c := syntax.Build(&syntax.Conditional{}, span)
		c.Cond = l.expr(field(n, "condition"))
		c.WhenTrue = l.expr(field(n, "consequence"))
		c.WhenFalse = l.expr(field(n, "alternative"))
		if c.Cond == nil || c.WhenTrue == nil || c.WhenFalse == nil {
			parts := l.named(n)
			if len(parts) == 3 {
				c.Cond, c.WhenTrue, c.WhenFalse = l.expr(parts[0]), l.expr(parts[1]), l.expr(parts[2])
			}
		}
		return c
	case "parenthesized_expression":
		p := syntax.Build(&syntax.Parenthesized{}, span)
		if parts := l.named(n); len(parts) > 0 {
			p.Expr = l.expr(parts[0])
		}
		return p
	case "await_expression":
		a := syntax.Build(&syntax.Await{}, span)
		if parts := l.named(n); len(parts) > 0 {
			a.Expr = l.expr(parts[len(parts)-1])
		}
		return a
	case "lambda_expression", "anonymous_method_expression":
		return l.lambda(n)
	case "default_expression":
		d := syntax.Build(&syntax.Default{}, span)
		if t := field(n, "type"); t != nil {
			d.Type = l.typeRef(t)
		} else if parts := l.named(n); len(parts) > 0 {
			d.Type = l.typeRef(parts[0])
		}
		return d
	case "declaration_expression":
		d := syntax.Build(&syntax.DeclarationExpr{}, span)
		if t := field(n, "type"); t != nil {
			d.Type = l.typeRef(t)
		}
		name := field(n, "name")
		if name == nil {
			parts := l.named(n)
			if len(parts) > 0 {
				name = parts[len(parts)-1]
			}
			if d.Type == nil && len(parts) > 1 {
				d.Type = l.typeRef(parts[0])
			}
		}
		if name != nil {
			d.Name, d.NameSpan = l.text(name), l.span(name)
		}
		return d
	case "ref_expression", "checked_expression":
		if parts := l.named(n); len(parts) > 0 {
			return l.expr(parts[len(parts)-1])
		}
	case "ERROR":
		l.noteError(n)
	}
	return l.unknownExpr(n)
}

// unknownExpr keeps the lowered children of an unmodeled expression
func (l *lowerer) unknownExpr(n *tree_sitter.Node) syntax.Expr {
	u := syntax.Build(&syntax.UnknownExpr{}, l.span(n))
	for _, c := range l.named(n) {
		if node := l.any(c); node != nil {
			u.Nodes = append(u.Nodes, node)
		}
	}
	return u
}

// qualifiedExpr turns A.B.C in expression position into member accesses
func (l *lowerer) qualifiedExpr(n *tree_sitter.Node) syntax.Expr {
	qualifier := field(n, "qualifier")
	right := field(n, "name")
	if qualifier == nil || right == nil {
		parts := l.named(n)
		if len(parts) < 2 {
			return syntax.Build(&syntax.Identifier{Name: qualifiedName(l, n)}, l.span(n))
		}
		qualifier, right = parts[0], parts[len(parts)-1]
	}
	m := syntax.Build(&syntax.MemberAccess{}, l.span(n))
	m.Expr = l.expr(qualifier)
	m.Name = l.simpleName(right)
	return m
}

// simpleName lowers an identifier or generic name used as a member name
func (l *lowerer) simpleName(n *tree_sitter.Node) *syntax.Identifier {
	if n == nil {
		return nil
	}
	if n.Kind() == "generic_name" {
		name, args := l.genericParts(n)
		return syntax.Build(&syntax.Identifier{Name: name, TypeArgs: args}, l.span(n))
	}
	return syntax.Build(&syntax.Identifier{Name: l.text(n)}, l.span(n))
}

func (l *lowerer) memberAccess(n *tree_sitter.Node) syntax.Expr {
	m := syntax.Build(&syntax.MemberAccess{}, l.span(n))
	recv := field(n, "expression")
	name := field(n, "name")
	if recv == nil || name == nil {
		parts := l.named(n)
		if len(parts) >= 2 {
			recv, name = parts[0], parts[len(parts)-1]
		} else if len(parts) == 1 {
			// .Name under a conditional access
			name = parts[0]
		}
	}
	if recv != nil {
		m.Expr = l.expr(recv)
	} else if len(l.binding) > 0 {
		m.Expr = l.takeBinding()
		m.Conditional = true
		syntax.Build(m, joinSpan(m.Expr.Span(), l.span(n)))
	}
	m.Name = l.simpleName(name)
	return m
}

// conditionalAccess lowers a?.b... by lowering the right side with a as the
// pending receiver; the first member or element binding consumes it.
func (l *lowerer) conditionalAccess(n *tree_sitter.Node) syntax.Expr {
	cond := field(n, "condition")
	parts := l.named(n)
	if cond == nil && len(parts) > 0 {
		cond = parts[0]
	}
	if cond == nil || len(parts) < 2 {
		return l.unknownExpr(n)
	}
	recv := l.expr(cond)
	l.binding = append(l.binding, recv)
	depth := len(l.binding)
	var result syntax.Expr
	for _, c := range parts {
		if c.StartByte() == cond.StartByte() && c.Kind() == cond.Kind() {
			continue
		}
		result = l.expr(c)
		break
	}
	if len(l.binding) == depth {
		// nothing consumed the receiver
		l.binding = l.binding[:depth-1]
	}
	if result == nil {
		return recv
	}
	return syntax.Build(result, l.span(n))
}

func (l *lowerer) takeBinding() syntax.Expr {
	last := len(l.binding) - 1
	recv := l.binding[last]
	l.binding = l.binding[:last]
	return recv
}

func (l *lowerer) memberBinding(n *tree_sitter.Node) syntax.Expr {
	name := field(n, "name")
	if name == nil {
		if parts := l.named(n); len(parts) > 0 {
			name = parts[len(parts)-1]
		}
	}
	m := syntax.Build(&syntax.MemberAccess{Conditional: true}, l.span(n))
	if len(l.binding) > 0 {
		m.Expr = l.takeBinding()
		syntax.Build(m, joinSpan(m.Expr.Span(), l.span(n)))
	}
	m.Name = l.simpleName(name)
	return m
}

func (l *lowerer) elementBinding(n *tree_sitter.Node) syntax.Expr {
	e := syntax.Build(&syntax.ElementAccess{Conditional: true}, l.span(n))
	if len(l.binding) > 0 {
		e.Expr = l.takeBinding()
		syntax.Build(e, joinSpan(e.Expr.Span(), l.span(n)))
	}
	if list := l.firstOfKind(n, "bracketed_argument_list"); list != nil {
		e.Args = l.arguments(list)
	} else {
		e.Args = l.arguments(n)
	}
	return e
}

// assignTarget lowers the left side of an assignment. Inside object initializers
// "[key] = value" targets the created object's indexer.
func (l *lowerer) assignTarget(n *tree_sitter.Node) syntax.Expr {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "bracketed_argument_list":
		e := syntax.Build(&syntax.ElementAccess{}, l.span(n))
		e.Args = l.arguments(n)
		return e
	case "element_binding_expression", "implicit_element_access":
		if len(l.binding) == 0 {
			e := syntax.Build(&syntax.ElementAccess{}, l.span(n))
			if list := l.firstOfKind(n, "bracketed_argument_list"); list != nil {
				e.Args = l.arguments(list)
			} else {
				e.Args = l.arguments(n)
			}
			return e
		}
	}
	return l.expr(n)
}

// operator finds the operator token of a binary or assignment expression
func (l *lowerer) operator(n *tree_sitter.Node) string {
	if op := field(n, "operator"); op != nil {
		return strings.TrimSpace(l.text(op))
	}
	if op := l.firstOfKind(n, "assignment_operator"); op != nil {
		return strings.TrimSpace(l.text(op))
	}
	for _, c := range l.all(n) {
		if !c.IsNamed() {
			return c.Kind()
		}
	}
	return ""
}

// arguments lowers an argument_list or bracketed_argument_list
func (l *lowerer) arguments(n *tree_sitter.Node) []*syntax.Argument {
	if n == nil {
		return nil
	}
	var out []*syntax.Argument
	for _, c := range l.named(n) {
		if c.Kind() != "argument" {
			// bare expressions appear in some bracketed lists
			a := syntax.Build(&syntax.Argument{}, l.span(c))
			a.Expr = l.expr(c)
			out = append(out, a)
			continue
		}
		out = append(out, l.argument(c))
	}
	return out
}

func (l *lowerer) argument(n *tree_sitter.Node) *syntax.Argument {
	a := syntax.Build(&syntax.Argument{}, l.span(n))
	nameNode := field(n, "name")
	if nc := l.firstOfKind(n, "name_colon"); nc != nil {
		if id := l.firstOfKind(nc, "identifier"); id != nil {
			a.Name = l.text(id)
		}
		nameNode = nc
	} else if nameNode != nil {
		a.Name = l.text(nameNode)
	}
	for _, c := range l.all(n) {
		if !c.IsNamed() {
			switch c.Kind() {
			case "ref":
				a.RefKind = syntax.RefRef
			case "out":
				a.RefKind = syntax.RefOut
			case "in":
				a.RefKind = syntax.RefIn
			}
			continue
		}
		if nameNode != nil && c.StartByte() == nameNode.StartByte() && c.Kind() == nameNode.Kind() {
			continue
		}
		if a.Expr == nil {
			a.Expr = l.expr(c)
		}
	}
	return a
}

// initializer lowers a brace initializer and classifies it
func (l *lowerer) initializer(n *tree_sitter.Node, array bool) *syntax.Initializer {
	init := syntax.Build(&syntax.Initializer{InitKind: syntax.InitCollection}, l.span(n))
	if array {
		init.InitKind = syntax.InitArray
	}
	for _, c := range l.named(n) {
		var e syntax.Expr
		if c.Kind() == "initializer_expression" {
			inner := l.initializer(c, false)
			inner.InitKind = syntax.InitComplex
			if array {
				inner.InitKind = syntax.InitArray
			}
			e = inner
		} else {
			e = l.expr(c)
		}
		if e == nil {
			continue
		}
		if _, ok := e.(*syntax.Assignment); ok && !array {
			init.InitKind = syntax.InitObject
		}
		init.Exprs = append(init.Exprs, e)
	}
	return init
}

// arraySizes returns the size expressions of new T[n]
func (l *lowerer) arraySizes(t *tree_sitter.Node) []syntax.Expr {
	var out []syntax.Expr
	for _, c := range l.named(t) {
		if c.Kind() != "array_rank_specifier" {
			continue
		}
		for _, size := range l.named(c) {
			if e := l.expr(size); e != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

func (l *lowerer) lambda(n *tree_sitter.Node) *syntax.Lambda {
	lam := syntax.Build(&syntax.Lambda{}, l.span(n))
	lam.Anonymous = n.Kind() == "anonymous_method_expression"
	lam.Modifiers = l.modifiers(n)
	if l.hasToken(n, "async") {
		lam.Modifiers |= syntax.ModAsync
	}
	params := field(n, "parameters")
	if params == nil {
		params = l.firstOfKind(n, "parameter_list")
	}
	if params != nil {
		if k := params.Kind(); k == "implicit_parameter" || k == "identifier" {
			p := syntax.Build(&syntax.Parameter{Name: l.text(params), NameSpan: l.span(params)}, l.span(params))
			lam.Params = []*syntax.Parameter{p}
		} else {
			lam.Params = l.parameters(params)
		}
	}
	body := field(n, "body")
	if body == nil {
		body = l.firstOfKind(n, "block")
	}
	if body == nil {
		// x => expr with no field names: the body is the last named child
		parts := l.named(n)
		if len(parts) > 0 {
			body = parts[len(parts)-1]
		}
	}
	if body != nil {
		if body.Kind() == "block" {
			lam.Body = l.block(body)
		} else if params == nil || body.StartByte() != params.StartByte() {
			lam.ExprBody = l.expr(body)
		}
	}
	return lam
}
