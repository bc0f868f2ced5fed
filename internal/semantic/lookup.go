package semantic

import (
	"strings"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// resolveType binds a written type in the scope of ctx. Implicit types (var)
// and names that do not resolve return nil.
func (c *Compilation) resolveType(ref *syntax.TypeRef, ctx syntax.Node) *TypeSymbol {
	if ref == nil || ref.IsVar() {
		return nil
	}
	var t *TypeSymbol
	switch {
	case len(ref.Tuple) > 0:
		t = c.lookupFull("System.ValueTuple")
	case predefinedTypes[ref.Name] != "":
		t = c.lookupFull(predefinedTypes[ref.Name])
	case len(ref.Args) == 0 && typeParamInScope(ref.Name, ctx):
		t = c.typeParam(ref.Name)
	default:
		t = c.lookupType(ref.Name, len(ref.Args), ctx)
	}
	if t == nil {
		return nil
	}
	if len(ref.Args) > 0 {
		args := make([]*TypeSymbol, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = c.resolveType(a, ctx)
			if args[i] == nil {
				args[i] = c.object
			}
		}
		t = c.construct(t, args)
	}
	for i := 0; i < ref.Rank; i++ {
		t = c.arrayOf(t)
	}
	return t
}

func typeParamInScope(name string, ctx syntax.Node) bool {
	for n := ctx; n != nil; n = n.Parent() {
		var params []string
		switch n := n.(type) {
		case *syntax.MethodDecl:
			params = n.TypeParams
		case *syntax.LocalFunction:
			params = n.TypeParams
		case *syntax.TypeDecl:
			params = n.TypeParams
		}
		for _, p := range params {
			if p == name {
				return true
			}
		}
	}
	return false
}

// lookupType resolves a simple or dotted type name seen from ctx
func (c *Compilation) lookupType(name string, arity int, ctx syntax.Node) *TypeSymbol {
	if strings.Contains(name, ".") {
		if t := c.byFull[arityKey(name, arity)]; t != nil {
			return t
		}
		first, rest, _ := strings.Cut(name, ".")
		if target := aliasTarget(first, ctx); target != "" {
			if t := c.byFull[arityKey(target+"."+rest, arity)]; t != nil {
				return t
			}
		}
		for _, ns := range enclosingNamespaces(ctx) {
			if t := c.byFull[arityKey(ns+"."+name, arity)]; t != nil {
				return t
			}
		}
		if outer := c.lookupType(first, 0, ctx); outer != nil {
			if t := nestedType(outer, rest, arity); t != nil {
				return t
			}
		}
		name = name[strings.LastIndexByte(name, '.')+1:]
	}
	if target := aliasTarget(name, ctx); target != "" {
		if t := c.byFull[arityKey(target, arity)]; t != nil {
			return t
		}
		if t := c.byFull[target]; t != nil {
			return t
		}
	}
	// nested types of the enclosing types and their bases
	for n := ctx; n != nil; n = n.Parent() {
		decl, ok := n.(*syntax.TypeDecl)
		if !ok {
			continue
		}
		if owner, ok := c.declared[decl].(*TypeSymbol); ok {
			for _, b := range owner.BaseTypes() {
				if t := nestedType(b, name, arity); t != nil {
					return t
				}
			}
		}
	}
	candidates := c.byName[arityKey(name, arity)]
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}
	namespaces := enclosingNamespaces(ctx)
	imports := importedNamespaces(ctx)
	var best *TypeSymbol
	bestScore := -1
	for _, t := range candidates {
		score := 0
		for _, ns := range namespaces {
			if t.namespace == ns {
				score += 4
				break
			}
		}
		for _, ns := range imports {
			if t.namespace == ns {
				score += 2
				break
			}
		}
		if !t.external {
			score++
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

func nestedType(outer *TypeSymbol, name string, arity int) *TypeSymbol {
	first, rest, dotted := strings.Cut(name, ".")
	for _, m := range outer.MembersNamed(first) {
		t, ok := m.(*TypeSymbol)
		if !ok {
			continue
		}
		if dotted {
			return nestedType(t, rest, arity)
		}
		if len(t.typeParams) == arity {
			return t
		}
	}
	return nil
}

// enclosingNamespaces lists the namespaces containing ctx, innermost first,
// including every dotted prefix
func enclosingNamespaces(ctx syntax.Node) []string {
	var parts []string
	for n := ctx; n != nil; n = n.Parent() {
		if ns, ok := n.(*syntax.Namespace); ok {
			parts = append([]string{ns.Name}, parts...)
		}
	}
	full := strings.Join(parts, ".")
	var out []string
	for full != "" {
		out = append(out, full)
		i := strings.LastIndexByte(full, '.')
		if i < 0 {
			break
		}
		full = full[:i]
	}
	return out
}

func usingsOf(ctx syntax.Node) []*syntax.UsingDirective {
	var out []*syntax.UsingDirective
	for n := ctx; n != nil; n = n.Parent() {
		switch n := n.(type) {
		case *syntax.Namespace:
			out = append(out, n.Usings...)
		case *syntax.CompilationUnit:
			out = append(out, n.Usings...)
		}
	}
	return out
}

func importedNamespaces(ctx syntax.Node) []string {
	var out []string
	for _, u := range usingsOf(ctx) {
		if u.Alias == "" && !u.Static {
			out = append(out, u.Name)
		}
	}
	return out
}

// aliasTarget returns the target of a using alias visible from ctx
func aliasTarget(name string, ctx syntax.Node) string {
	for _, u := range usingsOf(ctx) {
		if u.Alias == name {
			return u.Name
		}
	}
	return ""
}

// AliasTarget returns the name a using alias stands for, or "" when name is not
// an alias visible from ctx
func AliasTarget(name string, ctx syntax.Node) string { return aliasTarget(name, ctx) }

// lookupMembers returns the members named name on t, its base classes and, for
// interfaces and abstract types, its interfaces. Derived members come first.
func lookupMembers(t *TypeSymbol, name string) []Symbol {
	if t == nil {
		return nil
	}
	if t.typeKind == TypeParameter {
		if t.comp != nil && t.comp.object != nil {
			return t.comp.object.MembersNamed(name)
		}
		return nil
	}
	var out []Symbol
	for _, b := range t.BaseTypes() {
		out = append(out, b.MembersNamed(name)...)
	}
	if t.IsInterface() || t.IsAbstract() || len(out) == 0 {
		for _, i := range t.AllInterfaces() {
			out = append(out, i.MembersNamed(name)...)
		}
	}
	if t.IsInterface() && len(out) == 0 && t.comp != nil && t.comp.object != nil {
		out = t.comp.object.MembersNamed(name)
	}
	return out
}

// scopeLocal finds a local, parameter or local function named name visible at
// from, walking outwards until the enclosing member
func (c *Compilation) scopeLocal(name string, from syntax.Node) Symbol {
	child := from
	for p := from.Parent(); p != nil; child, p = p, p.Parent() {
		switch p := p.(type) {
		case *syntax.Block:
			if s := c.localInStatements(p.Stmts, name); s != nil {
				return s
			}
		case *syntax.SwitchSection:
			if s := c.localInStatements(p.Stmts, name); s != nil {
				return s
			}
		case *syntax.For:
			if p.Decl != nil {
				for _, d := range p.Decl.Declarators {
					if d.Name == name {
						return c.DeclaredSymbol(d)
					}
				}
			}
		case *syntax.ForEach:
			if p.Name == name && child != p.Expr {
				return c.DeclaredSymbol(p)
			}
		case *syntax.Using:
			if p.Decl != nil {
				for _, d := range p.Decl.Declarators {
					if d.Name == name {
						return c.DeclaredSymbol(d)
					}
				}
			}
			if s := c.declarationExprIn(p.Expr, name); s != nil {
				return s
			}
		case *syntax.Catch:
			if p.Name == name {
				return c.DeclaredSymbol(p)
			}
		case *syntax.Lambda:
			if s := c.paramNamed(p.Params, name); s != nil {
				return s
			}
		case *syntax.LocalFunction:
			if s := c.paramNamed(p.Params, name); s != nil {
				return s
			}
		case *syntax.MethodDecl:
			return c.paramNamed(p.Params, name)
		case *syntax.ConstructorDecl:
			return c.paramNamed(p.Params, name)
		case *syntax.Accessor:
			if name == "value" {
				if m, ok := c.declared[p].(*MethodSymbol); ok {
					if v := m.Parameter("value"); v != nil {
						return v
					}
				}
			}
		case *syntax.PropertyDecl:
			return c.paramNamed(p.Params, name)
		case *syntax.CompilationUnit:
			var stmts []syntax.Stmt
			for _, m := range p.Members {
				if g, ok := m.(*syntax.GlobalStatement); ok {
					stmts = append(stmts, g.Stmt)
				}
			}
			return c.localInStatements(stmts, name)
		case *syntax.TypeDecl:
			return c.paramNamed(p.PrimaryParams, name)
		}
	}
	return nil
}

func (c *Compilation) paramNamed(params []*syntax.Parameter, name string) Symbol {
	for _, p := range params {
		if p.Name == name {
			return c.DeclaredSymbol(p)
		}
	}
	return nil
}

// localInStatements finds a declaration of name among stmts: declarators, local
// functions and inline declarations that leak into the enclosing block
func (c *Compilation) localInStatements(stmts []syntax.Stmt, name string) Symbol {
	for _, s := range stmts {
		switch s := s.(type) {
		case *syntax.LocalDeclaration:
			for _, d := range s.Declarators {
				if d.Name == name {
					return c.DeclaredSymbol(d)
				}
			}
		case *syntax.LocalFunction:
			if s.Name == name {
				return c.DeclaredSymbol(s)
			}
			continue
		}
		if sym := c.declarationExprIn(s, name); sym != nil {
			return sym
		}
	}
	return nil
}

// declarationExprIn finds an inline declaration of name in n without entering
// nested blocks or functions
func (c *Compilation) declarationExprIn(n syntax.Node, name string) Symbol {
	var found *syntax.DeclarationExpr
	syntax.Inspect(n, func(x syntax.Node) bool {
		if found != nil {
			return false
		}
		switch x := x.(type) {
		case *syntax.Block, *syntax.Lambda, *syntax.LocalFunction:
			return false
		case *syntax.DeclarationExpr:
			if x.Name == name {
				found = x
			}
		}
		return true
	})
	if found == nil {
		return nil
	}
	return c.DeclaredSymbol(found)
}
