package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

func (l *lowerer) compilationUnit(n *tree_sitter.Node) *syntax.CompilationUnit {
	cu := syntax.Build(&syntax.CompilationUnit{}, l.span(n))
	// A file-scoped namespace owns every declaration that follows it
	var fileNS *syntax.Namespace
	for _, c := range l.named(n) {
		if c.Kind() == "using_directive" {
			u := l.usingDirective(c)
			if fileNS != nil {
				fileNS.Usings = append(fileNS.Usings, u)
			} else {
				cu.Usings = append(cu.Usings, u)
			}
			continue
		}
		if c.Kind() == "file_scoped_namespace_declaration" {
			fileNS = l.namespace(c)
			cu.Members = append(cu.Members, fileNS)
			continue
		}
		members := l.members(c)
		if fileNS != nil {
			fileNS.Members = append(fileNS.Members, members...)
		} else {
			cu.Members = append(cu.Members, members...)
		}
	}
	if l.firstError == nil && n.HasError() {
		l.findError(n)
	}
	return cu
}

// findError records the first ERROR or MISSING node below n
func (l *lowerer) findError(n *tree_sitter.Node) bool {
	if n.IsError() || n.IsMissing() {
		l.noteError(n)
		return true
	}
	if !n.HasError() {
		return false
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && l.findError(c) {
			return true
		}
	}
	return false
}

func (l *lowerer) usingDirective(n *tree_sitter.Node) *syntax.UsingDirective {
	u := syntax.Build(&syntax.UsingDirective{}, l.span(n))
	u.Static = l.hasToken(n, "static")
	parts := l.named(n)
	if alias := field(n, "alias"); alias != nil {
		u.Alias = l.text(alias)
	} else if ne := l.firstOfKind(n, "name_equals"); ne != nil {
		if id := l.firstOfKind(ne, "identifier"); id != nil {
			u.Alias = l.text(id)
		}
	} else if l.hasToken(n, "=") && len(parts) >= 2 {
		u.Alias = l.text(parts[0])
	}
	if len(parts) > 0 {
		u.Name = qualifiedName(l, parts[len(parts)-1])
	}
	return u
}

func (l *lowerer) namespace(n *tree_sitter.Node) *syntax.Namespace {
	ns := syntax.Build(&syntax.Namespace{}, l.span(n))
	name := field(n, "name")
	for _, c := range l.named(n) {
		switch {
		case name != nil && c.StartByte() == name.StartByte() && c.Kind() == name.Kind():
			ns.Name = qualifiedName(l, c)
		case name == nil && ns.Name == "" && (c.Kind() == "identifier" || c.Kind() == "qualified_name"):
			ns.Name = qualifiedName(l, c)
		case c.Kind() == "using_directive":
			ns.Usings = append(ns.Usings, l.usingDirective(c))
		case c.Kind() == "declaration_list":
			for _, m := range l.named(c) {
				if m.Kind() == "using_directive" {
					ns.Usings = append(ns.Usings, l.usingDirective(m))
					continue
				}
				ns.Members = append(ns.Members, l.members(m)...)
			}
		default:
			ns.Members = append(ns.Members, l.members(c)...)
		}
	}
	return ns
}

// members lowers one member-level node. Most produce one member; unsupported
// declarations (enums, delegates, attributes) produce none.
func (l *lowerer) members(n *tree_sitter.Node) []syntax.Member {
	switch n.Kind() {
	case "namespace_declaration", "file_scoped_namespace_declaration":
		return []syntax.Member{l.namespace(n)}
	case "class_declaration", "struct_declaration", "interface_declaration",
		"record_declaration", "record_struct_declaration":
		return []syntax.Member{l.typeDecl(n)}
	case "field_declaration", "event_field_declaration":
		return []syntax.Member{l.fieldDecl(n)}
	case "property_declaration", "indexer_declaration", "event_declaration":
		return []syntax.Member{l.propertyDecl(n)}
	case "method_declaration", "operator_declaration", "conversion_operator_declaration", "destructor_declaration":
		return []syntax.Member{l.methodDecl(n)}
	case "constructor_declaration":
		return []syntax.Member{l.constructorDecl(n)}
	case "global_statement":
		var out []syntax.Member
		for _, c := range l.named(n) {
			if s := l.stmt(c); s != nil {
				g := syntax.Build(&syntax.GlobalStatement{Stmt: s}, l.span(n))
				out = append(out, g)
			}
		}
		return out
	case "ERROR":
		l.noteError(n)
		var out []syntax.Member
		for _, c := range l.named(n) {
			out = append(out, l.members(c)...)
		}
		return out
	}
	if isStatementKind(n.Kind()) {
		if s := l.stmt(n); s != nil {
			return []syntax.Member{syntax.Build(&syntax.GlobalStatement{Stmt: s}, l.span(n))}
		}
	}
	return nil
}

func (l *lowerer) typeDecl(n *tree_sitter.Node) *syntax.TypeDecl {
	d := syntax.Build(&syntax.TypeDecl{}, l.span(n))
	d.Modifiers = l.modifiers(n)
	switch n.Kind() {
	case "class_declaration":
		d.Keyword = "class"
	case "struct_declaration":
		d.Keyword = "struct"
	case "interface_declaration":
		d.Keyword = "interface"
	case "record_struct_declaration":
		d.Keyword = "record struct"
	default:
		d.Keyword = "record"
		if l.hasToken(n, "struct") {
			d.Keyword = "record struct"
		}
	}
	d.Name, d.NameSpan = l.nameOf(n)
	d.TypeParams = l.typeParams(n)
	if params := l.firstOfKind(n, "parameter_list"); params != nil {
		d.PrimaryParams = l.parameters(params)
	}
	if bases := l.firstOfKind(n, "base_list"); bases != nil {
		for _, b := range l.named(bases) {
			switch b.Kind() {
			case "argument_list":
				continue
			case "primary_constructor_base_type":
				if t := l.innerType(b); t != nil {
					d.Bases = append(d.Bases, l.typeRef(t))
				}
			default:
				d.Bases = append(d.Bases, l.typeRef(b))
			}
		}
	}
	body := field(n, "body")
	if body == nil {
		body = l.firstOfKind(n, "declaration_list")
	}
	for _, m := range l.named(body) {
		d.Members = append(d.Members, l.members(m)...)
	}
	return d
}

func (l *lowerer) fieldDecl(n *tree_sitter.Node) *syntax.FieldDecl {
	f := syntax.Build(&syntax.FieldDecl{}, l.span(n))
	f.Modifiers = l.modifiers(n)
	f.Event = n.Kind() == "event_field_declaration"
	if decl := l.firstOfKind(n, "variable_declaration"); decl != nil {
		f.Type, f.Declarators = l.variableDeclaration(decl)
	}
	return f
}

// variableDeclaration lowers "T a = x, b" into its type and declarators
func (l *lowerer) variableDeclaration(n *tree_sitter.Node) (*syntax.TypeRef, []*syntax.VariableDeclarator) {
	var typ *syntax.TypeRef
	if t := field(n, "type"); t != nil {
		typ = l.typeRef(t)
	}
	var decls []*syntax.VariableDeclarator
	for _, c := range l.named(n) {
		if c.Kind() != "variable_declarator" {
			if typ == nil {
				typ = l.typeRef(c)
			}
			continue
		}
		decls = append(decls, l.variableDeclarator(c))
	}
	return typ, decls
}

func (l *lowerer) variableDeclarator(n *tree_sitter.Node) *syntax.VariableDeclarator {
	d := syntax.Build(&syntax.VariableDeclarator{}, l.span(n))
	d.Name, d.NameSpan = l.nameOf(n)
	if eq := l.firstOfKind(n, "equals_value_clause"); eq != nil {
		if parts := l.named(eq); len(parts) > 0 {
			d.Init = l.expr(parts[0])
		}
	} else if init := l.afterToken(n, "="); init != nil {
		d.Init = l.expr(init)
	}
	return d
}

func (l *lowerer) propertyDecl(n *tree_sitter.Node) *syntax.PropertyDecl {
	p := syntax.Build(&syntax.PropertyDecl{}, l.span(n))
	p.Modifiers = l.modifiers(n)
	if t := field(n, "type"); t != nil {
		p.Type = l.typeRef(t)
	}
	if n.Kind() == "indexer_declaration" {
		p.Indexer = true
		p.Name = "this"
		p.NameSpan = l.span(n)
		if params := field(n, "parameters"); params != nil {
			p.Params = l.parameters(params)
		} else if params := l.firstOfKind(n, "bracketed_parameter_list"); params != nil {
			p.Params = l.parameters(params)
		}
	} else {
		p.Name, p.NameSpan = l.nameOf(n)
	}
	if ei := l.firstOfKind(n, "explicit_interface_specifier"); ei != nil {
		if parts := l.named(ei); len(parts) > 0 {
			p.ExplicitInterface = qualifiedName(l, parts[0])
		}
	}
	for _, c := range l.named(n) {
		switch c.Kind() {
		case "accessor_list":
			for _, a := range l.named(c) {
				if a.Kind() == "accessor_declaration" {
					p.Accessors = append(p.Accessors, l.accessor(a))
				}
			}
		case "arrow_expression_clause":
			p.ExprBody = l.arrowBody(c)
		}
	}
	if init := l.afterToken(n, "="); init != nil && init.Kind() != "accessor_list" {
		p.Init = l.expr(init)
	}
	return p
}

func (l *lowerer) accessor(n *tree_sitter.Node) *syntax.Accessor {
	a := syntax.Build(&syntax.Accessor{}, l.span(n))
	a.Modifiers = l.modifiers(n)
	for _, c := range l.all(n) {
		switch c.Kind() {
		case "get", "set", "init", "add", "remove":
			if a.Keyword == "" {
				a.Keyword = c.Kind()
			}
		case "block":
			a.Body = l.block(c)
		case "arrow_expression_clause":
			a.ExprBody = l.arrowBody(c)
		}
	}
	if a.Keyword == "" {
		if name := field(n, "name"); name != nil {
			a.Keyword = l.text(name)
		}
	}
	return a
}

// arrowBody returns the expression of "=> expr"
func (l *lowerer) arrowBody(n *tree_sitter.Node) syntax.Expr {
	parts := l.named(n)
	if len(parts) == 0 {
		return nil
	}
	return l.expr(parts[0])
}

// functionBody lowers the block or arrow body of any function-like node
func (l *lowerer) functionBody(n *tree_sitter.Node) (*syntax.Block, syntax.Expr) {
	body := field(n, "body")
	if body == nil {
		body = l.firstOfKind(n, "block", "arrow_expression_clause")
	}
	if body == nil {
		return nil, nil
	}
	if body.Kind() == "arrow_expression_clause" {
		return nil, l.arrowBody(body)
	}
	if body.Kind() == "block" {
		return l.block(body), nil
	}
	return nil, l.expr(body)
}

func (l *lowerer) methodDecl(n *tree_sitter.Node) *syntax.MethodDecl {
	m := syntax.Build(&syntax.MethodDecl{}, l.span(n))
	m.Modifiers = l.modifiers(n)
	if rt := field(n, "returns", "type"); rt != nil {
		m.ReturnType = l.typeRef(rt)
	}
	switch n.Kind() {
	case "destructor_declaration":
		m.Name = "Finalize"
		_, m.NameSpan = l.nameOf(n)
	case "operator_declaration":
		m.Name = "op_" + l.text(field(n, "operator"))
		m.NameSpan = l.span(n)
	case "conversion_operator_declaration":
		m.Name = "op_Implicit"
		if l.hasToken(n, "explicit") {
			m.Name = "op_Explicit"
		}
		m.NameSpan = l.span(n)
	default:
		m.Name, m.NameSpan = l.nameOf(n)
	}
	if ei := l.firstOfKind(n, "explicit_interface_specifier"); ei != nil {
		if parts := l.named(ei); len(parts) > 0 {
			m.ExplicitInterface = qualifiedName(l, parts[0])
		}
	}
	m.TypeParams = l.typeParams(n)
	if params := field(n, "parameters"); params != nil {
		m.Params = l.parameters(params)
	} else if params := l.firstOfKind(n, "parameter_list"); params != nil {
		m.Params = l.parameters(params)
	}
	m.Body, m.ExprBody = l.functionBody(n)
	return m
}

func (l *lowerer) constructorDecl(n *tree_sitter.Node) *syntax.ConstructorDecl {
	c := syntax.Build(&syntax.ConstructorDecl{}, l.span(n))
	c.Modifiers = l.modifiers(n)
	c.Name, c.NameSpan = l.nameOf(n)
	if params := field(n, "parameters"); params != nil {
		c.Params = l.parameters(params)
	} else if params := l.firstOfKind(n, "parameter_list"); params != nil {
		c.Params = l.parameters(params)
	}
	if init := l.firstOfKind(n, "constructor_initializer"); init != nil {
		ci := syntax.Build(&syntax.ConstructorInitializer{}, l.span(init))
		ci.Keyword = "base"
		for _, t := range l.all(init) {
			if t.Kind() == "this" || t.Kind() == "this_expression" {
				ci.Keyword = "this"
			}
		}
		if args := l.firstOfKind(init, "argument_list"); args != nil {
			ci.Args = l.arguments(args)
		}
		c.Initializer = ci
	}
	c.Body, c.ExprBody = l.functionBody(n)
	return c
}

// parameters lowers a parameter_list or bracketed_parameter_list.
// A params array has no node of its own: its 'params' token, type and name
// sit directly in the list.
func (l *lowerer) parameters(n *tree_sitter.Node) []*syntax.Parameter {
	var out []*syntax.Parameter
	var array *tree_sitter.Node
	var arrayType *syntax.TypeRef
	for _, c := range l.all(n) {
		switch {
		case !c.IsNamed() && c.Kind() == "params":
			array = c
		case c.Kind() == "parameter":
			out = append(out, l.parameter(c))
		case array != nil && arrayType != nil && c.Kind() == "identifier":
			sp := l.span(array)
			end := l.span(c)
			sp.End, sp.EndLine, sp.EndCol = end.End, end.EndLine, end.EndCol
			p := syntax.Build(&syntax.Parameter{Name: l.text(c), NameSpan: end, Type: arrayType, Params: true}, sp)
			out = append(out, p)
			array, arrayType = nil, nil
		case array != nil && c.IsNamed() && c.Kind() != "attribute_list":
			arrayType = l.typeRef(c)
		case array == nil && c.Kind() == "identifier":
			p := syntax.Build(&syntax.Parameter{Name: l.text(c), NameSpan: l.span(c)}, l.span(c))
			out = append(out, p)
		}
	}
	return out
}

func (l *lowerer) parameter(n *tree_sitter.Node) *syntax.Parameter {
	p := syntax.Build(&syntax.Parameter{}, l.span(n))
	p.Name, p.NameSpan = l.nameOf(n)
	if t := field(n, "type"); t != nil {
		p.Type = l.typeRef(t)
	}
	for _, c := range l.all(n) {
		word := c.Kind()
		if c.IsNamed() {
			if word != "parameter_modifier" && word != "modifier" {
				continue
			}
			word = l.text(c)
		}
		switch word {
		case "ref":
			p.RefKind = syntax.RefRef
		case "out":
			p.RefKind = syntax.RefOut
		case "in":
			p.RefKind = syntax.RefIn
		case "params":
			p.Params = true
		case "this":
			p.This = true
		}
	}
	if eq := l.firstOfKind(n, "equals_value_clause"); eq != nil {
		if parts := l.named(eq); len(parts) > 0 {
			p.Default = l.expr(parts[0])
		}
	} else if def := l.afterToken(n, "="); def != nil {
		p.Default = l.expr(def)
	}
	return p
}
