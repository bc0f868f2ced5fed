package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

func isStatementKind(kind string) bool {
	return kind == "block" || strings.HasSuffix(kind, "_statement")
}

func (l *lowerer) block(n *tree_sitter.Node) *syntax.Block {
	b := syntax.Build(&syntax.Block{}, l.span(n))
	for _, c := range l.named(n) {
		if s := l.stmt(c); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	return b
}

// stmt lowers a statement node. It never returns a typed nil.
func (l *lowerer) stmt(n *tree_sitter.Node) syntax.Stmt {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "block":
		return l.block(n)
	case "local_declaration_statement":
		return l.localDeclaration(n)
	case "expression_statement":
		s := syntax.Build(&syntax.ExpressionStmt{}, l.span(n))
		if parts := l.named(n); len(parts) > 0 {
			s.Expr = l.expr(parts[0])
		}
		return s
	case "return_statement":
		s := syntax.Build(&syntax.Return{}, l.span(n))
		if parts := l.named(n); len(parts) > 0 {
			s.Expr = l.expr(parts[0])
		}
		return s
	case "if_statement":
		return l.ifStmt(n)
	case "while_statement":
		s := syntax.Build(&syntax.While{}, l.span(n))
		s.Cond = l.expr(field(n, "condition"))
		s.Body = l.stmt(field(n, "body"))
		if s.Cond == nil || s.Body == nil {
			parts := l.named(n)
			if len(parts) == 2 {
				s.Cond, s.Body = l.expr(parts[0]), l.stmt(parts[1])
			}
		}
		return s
	case "do_statement":
		s := syntax.Build(&syntax.Do{}, l.span(n))
		s.Body = l.stmt(field(n, "body"))
		s.Cond = l.expr(field(n, "condition"))
		if s.Cond == nil || s.Body == nil {
			parts := l.named(n)
			if len(parts) == 2 {
				s.Body, s.Cond = l.stmt(parts[0]), l.expr(parts[1])
			}
		}
		return s
	case "for_statement":
		return l.forStmt(n)
	case "foreach_statement", "for_each_statement":
		return l.forEach(n)
	case "using_statement":
		return l.usingStmt(n)
	case "yield_statement":
		s := syntax.Build(&syntax.Yield{}, l.span(n))
		s.Break = l.hasToken(n, "break")
		if parts := l.named(n); len(parts) > 0 {
			s.Expr = l.expr(parts[0])
		}
		return s
	case "try_statement":
		return l.tryStmt(n)
	case "throw_statement":
		s := syntax.Build(&syntax.Throw{}, l.span(n))
		if parts := l.named(n); len(parts) > 0 {
			s.Expr = l.expr(parts[0])
		}
		return s
	case "lock_statement":
		s := syntax.Build(&syntax.Lock{}, l.span(n))
		parts := l.named(n)
		if len(parts) >= 2 {
			s.Expr = l.expr(parts[0])
			s.Body = l.stmt(parts[len(parts)-1])
		}
		return s
	case "switch_statement":
		return l.switchStmt(n)
	case "local_function_statement":
		return l.localFunction(n)
	case "break_statement", "continue_statement", "goto_statement", "empty_statement":
		return syntax.Build(&syntax.SimpleStmt{Keyword: strings.TrimSuffix(n.Kind(), "_statement")}, l.span(n))
	case "labeled_statement":
		// label: stmt
		parts := l.named(n)
		if len(parts) > 0 {
			return l.stmt(parts[len(parts)-1])
		}
		return nil
	case "ERROR":
		l.noteError(n)
	}
	return l.unknownStmt(n)
}

// unknownStmt keeps the lowered children of an unmodeled statement
func (l *lowerer) unknownStmt(n *tree_sitter.Node) syntax.Stmt {
	s := syntax.Build(&syntax.UnknownStmt{}, l.span(n))
	for _, c := range l.named(n) {
		if node := l.any(c); node != nil {
			s.Nodes = append(s.Nodes, node)
		}
	}
	return s
}

// any lowers a child whose category is not known up front
func (l *lowerer) any(n *tree_sitter.Node) syntax.Node {
	kind := n.Kind()
	switch {
	case isStatementKind(kind):
		if s := l.stmt(n); s != nil {
			return s
		}
		return nil
	case kind == "variable_declaration":
		d := syntax.Build(&syntax.LocalDeclaration{}, l.span(n))
		d.Type, d.Declarators = l.variableDeclaration(n)
		return d
	}
	if e := l.expr(n); e != nil {
		return e
	}
	return nil
}

func (l *lowerer) localDeclaration(n *tree_sitter.Node) *syntax.LocalDeclaration {
	d := syntax.Build(&syntax.LocalDeclaration{}, l.span(n))
	d.Using = l.hasToken(n, "using")
	d.Await = l.hasToken(n, "await")
	d.Const = l.modifiers(n).Has(syntax.ModConst) || l.hasToken(n, "const")
	if decl := l.firstOfKind(n, "variable_declaration"); decl != nil {
		d.Type, d.Declarators = l.variableDeclaration(decl)
	}
	return d
}

func (l *lowerer) ifStmt(n *tree_sitter.Node) *syntax.If {
	s := syntax.Build(&syntax.If{}, l.span(n))
	s.Cond = l.expr(field(n, "condition"))
	s.Then = l.stmt(field(n, "consequence"))
	if alt := field(n, "alternative"); alt != nil {
		if alt.Kind() == "else_clause" {
			if parts := l.named(alt); len(parts) > 0 {
				s.Else = l.stmt(parts[0])
			}
		} else {
			s.Else = l.stmt(alt)
		}
	}
	if s.Cond == nil {
		parts := l.named(n)
		if len(parts) >= 2 {
			s.Cond = l.expr(parts[0])
			s.Then = l.stmt(parts[1])
			if len(parts) >= 3 {
				s.Else = l.stmt(parts[2])
			}
		}
	}
	return s
}

// forStmt splits the header on its semicolons since initializer and update
// lists repeat their field names.
func (l *lowerer) forStmt(n *tree_sitter.Node) *syntax.For {
	s := syntax.Build(&syntax.For{}, l.span(n))
	section := 0
	for _, c := range l.all(n) {
		if !c.IsNamed() {
			switch c.Kind() {
			case ";":
				section++
			case ")":
				section = 3
			}
			continue
		}
		switch section {
		case 0:
			if c.Kind() == "variable_declaration" {
				d := syntax.Build(&syntax.LocalDeclaration{}, l.span(c))
				d.Type, d.Declarators = l.variableDeclaration(c)
				s.Decl = d
			} else if e := l.expr(c); e != nil {
				s.Inits = append(s.Inits, e)
			}
		case 1:
			s.Cond = l.expr(c)
		case 2:
			if e := l.expr(c); e != nil {
				s.Updates = append(s.Updates, e)
			}
		default:
			s.Body = l.stmt(c)
		}
	}
	return s
}

func (l *lowerer) forEach(n *tree_sitter.Node) *syntax.ForEach {
	s := syntax.Build(&syntax.ForEach{}, l.span(n))
	s.Await = l.hasToken(n, "await")
	if t := field(n, "type"); t != nil {
		s.Type = l.typeRef(t)
	}
	if left := field(n, "left"); left != nil {
		s.Name, s.NameSpan = l.text(left), l.span(left)
	}
	s.Expr = l.expr(field(n, "right"))
	s.Body = l.stmt(field(n, "body"))
	if s.Expr == nil || s.Body == nil {
		// type, name, 'in', expr, body
		parts := l.named(n)
		if len(parts) >= 4 {
			s.Type = l.typeRef(parts[0])
			s.Name, s.NameSpan = l.text(parts[1]), l.span(parts[1])
			s.Expr = l.expr(parts[2])
			s.Body = l.stmt(parts[3])
		}
	}
	return s
}

func (l *lowerer) usingStmt(n *tree_sitter.Node) *syntax.Using {
	s := syntax.Build(&syntax.Using{}, l.span(n))
	s.Await = l.hasToken(n, "await")
	body := field(n, "body")
	for _, c := range l.named(n) {
		if body != nil && c.StartByte() == body.StartByte() && c.Kind() == body.Kind() {
			continue
		}
		if c.Kind() == "variable_declaration" {
			d := syntax.Build(&syntax.LocalDeclaration{}, l.span(c))
			d.Type, d.Declarators = l.variableDeclaration(c)
			s.Decl = d
			continue
		}
		if body == nil && isStatementKind(c.Kind()) {
			body = c
			continue
		}
		if s.Expr == nil {
			s.Expr = l.expr(c)
		}
	}
	s.Body = l.stmt(body)
	return s
}

func (l *lowerer) tryStmt(n *tree_sitter.Node) *syntax.Try {
	s := syntax.Build(&syntax.Try{}, l.span(n))
	for _, c := range l.named(n) {
		switch c.Kind() {
		case "block":
			if s.Body == nil {
				s.Body = l.block(c)
			}
		case "catch_clause":
			s.Catches = append(s.Catches, l.catchClause(c))
		case "finally_clause":
			if b := l.firstOfKind(c, "block"); b != nil {
				s.Finally = l.block(b)
			}
		}
	}
	return s
}

func (l *lowerer) catchClause(n *tree_sitter.Node) *syntax.Catch {
	k := syntax.Build(&syntax.Catch{}, l.span(n))
	for _, c := range l.named(n) {
		switch c.Kind() {
		case "catch_declaration":
			if t := field(c, "type"); t != nil {
				k.Type = l.typeRef(t)
			}
			if name := field(c, "name"); name != nil {
				k.Name, k.NameSpan = l.text(name), l.span(name)
			}
			if k.Type == nil {
				parts := l.named(c)
				if len(parts) > 0 {
					k.Type = l.typeRef(parts[0])
				}
				if len(parts) > 1 {
					k.Name, k.NameSpan = l.text(parts[1]), l.span(parts[1])
				}
			}
		case "catch_filter_clause":
			if parts := l.named(c); len(parts) > 0 {
				k.Filter = l.expr(parts[0])
			}
		case "block":
			k.Body = l.block(c)
		}
	}
	return k
}

func (l *lowerer) switchStmt(n *tree_sitter.Node) *syntax.Switch {
	s := syntax.Build(&syntax.Switch{}, l.span(n))
	body := field(n, "body")
	if body == nil {
		body = l.firstOfKind(n, "switch_body")
	}
	if v := field(n, "value"); v != nil {
		s.Expr = l.expr(v)
	} else {
		for _, c := range l.named(n) {
			if c.Kind() != "switch_body" {
				s.Expr = l.expr(c)
				break
			}
		}
	}
	for _, sec := range l.named(body) {
		if sec.Kind() != "switch_section" {
			continue
		}
		section := syntax.Build(&syntax.SwitchSection{}, l.span(sec))
		for _, c := range l.named(sec) {
			if isStatementKind(c.Kind()) {
				if st := l.stmt(c); st != nil {
					section.Stmts = append(section.Stmts, st)
				}
				continue
			}
			if e := l.expr(c); e != nil {
				section.Labels = append(section.Labels, e)
			}
		}
		s.Sections = append(s.Sections, section)
	}
	return s
}

func (l *lowerer) localFunction(n *tree_sitter.Node) *syntax.LocalFunction {
	f := syntax.Build(&syntax.LocalFunction{}, l.span(n))
	f.Modifiers = l.modifiers(n)
	if rt := field(n, "type", "returns"); rt != nil {
		f.ReturnType = l.typeRef(rt)
	}
	f.Name, f.NameSpan = l.nameOf(n)
	f.TypeParams = l.typeParams(n)
	if params := field(n, "parameters"); params != nil {
		f.Params = l.parameters(params)
	} else if params := l.firstOfKind(n, "parameter_list"); params != nil {
		f.Params = l.parameters(params)
	}
	f.Body, f.ExprBody = l.functionBody(n)
	return f
}
