package syntax

import (
	"strings"
	"unicode"
)

func kindOf(n Node) Kind {
	switch n.(type) {
	case *CompilationUnit:
		return KindCompilationUnit
	case *UsingDirective:
		return KindUsingDirective
	case *Namespace:
		return KindNamespace
	case *TypeDecl:
		return KindTypeDecl
	case *FieldDecl:
		return KindField
	case *VariableDeclarator:
		return KindVariableDeclarator
	case *PropertyDecl:
		return KindProperty
	case *Accessor:
		return KindAccessor
	case *MethodDecl:
		return KindMethod
	case *ConstructorDecl:
		return KindConstructor
	case *ConstructorInitializer:
		return KindConstructorInitializer
	case *Parameter:
		return KindParameter
	case *TypeRef:
		return KindTypeRef
	case *GlobalStatement:
		return KindGlobalStatement
	case *Block:
		return KindBlock
	case *LocalDeclaration:
		return KindLocalDeclaration
	case *ExpressionStmt:
		return KindExpressionStmt
	case *Return:
		return KindReturn
	case *If:
		return KindIf
	case *While:
		return KindWhile
	case *Do:
		return KindDo
	case *For:
		return KindFor
	case *ForEach:
		return KindForEach
	case *Using:
		return KindUsing
	case *Yield:
		return KindYield
	case *Try:
		return KindTry
	case *Catch:
		return KindCatch
	case *Throw:
		return KindThrow
	case *Lock:
		return KindLock
	case *Switch:
		return KindSwitch
	case *SwitchSection:
		return KindSwitchSection
	case *LocalFunction:
		return KindLocalFunction
	case *SimpleStmt:
		return KindSimpleStmt
	case *UnknownStmt:
		return KindUnknownStmt
	case *Literal:
		return KindLiteral
	case *Identifier:
		return KindIdentifier
	case *This:
		return KindThis
	case *Base:
		return KindBase
	case *MemberAccess:
		return KindMemberAccess
	case *ElementAccess:
		return KindElementAccess
	case *Invocation:
		return KindInvocation
	case *Argument:
		return KindArgument
	case *ObjectCreation:
		return KindObjectCreation
	case *Initializer:
		return KindInitializer
	case *ArrayCreation:
		return KindArrayCreation
	case *Assignment:
		return KindAssignment
	case *Binary:
		return KindBinary
	case *Unary:
		return KindUnary
	case *Conditional:
		return KindConditional
	case *Parenthesized:
		return KindParenthesized
	case *Cast:
		return KindCast
	case *Await:
		return KindAwait
	case *Lambda:
		return KindLambda
	case *Default:
		return KindDefault
	case *DeclarationExpr:
		return KindDeclarationExpr
	case *UnknownExpr:
		return KindUnknownExpr
	}
	return KindInvalid
}

// childList collects non-nil children in source order
type childList []Node

func (c *childList) add(n Node) {
	if n != nil {
		*c = append(*c, n)
	}
}

func (c *childList) typ(t *TypeRef) {
	if t != nil {
		*c = append(*c, t)
	}
}

func (c *childList) block(b *Block) {
	if b != nil {
		*c = append(*c, b)
	}
}

func (c *childList) params(ps []*Parameter) {
	for _, p := range ps {
		*c = append(*c, p)
	}
}

func (c *childList) args(as []*Argument) {
	for _, a := range as {
		*c = append(*c, a)
	}
}

func (c *childList) exprs(es []Expr) {
	for _, e := range es {
		c.add(e)
	}
}

func (c *childList) stmts(ss []Stmt) {
	for _, s := range ss {
		c.add(s)
	}
}

func (c *childList) members(ms []Member) {
	for _, m := range ms {
		c.add(m)
	}
}

// Children returns the direct children of n in source order
func Children(n Node) []Node {
	var c childList
	switch n := n.(type) {
	case *CompilationUnit:
		for _, u := range n.Usings {
			c.add(u)
		}
		c.members(n.Members)
	case *Namespace:
		for _, u := range n.Usings {
			c.add(u)
		}
		c.members(n.Members)
	case *TypeDecl:
		c.params(n.PrimaryParams)
		for _, b := range n.Bases {
			c.add(b)
		}
		c.members(n.Members)
	case *FieldDecl:
		c.typ(n.Type)
		for _, d := range n.Declarators {
			c.add(d)
		}
	case *VariableDeclarator:
		c.add(n.Init)
	case *PropertyDecl:
		c.typ(n.Type)
		c.params(n.Params)
		for _, a := range n.Accessors {
			c.add(a)
		}
		c.add(n.ExprBody)
		c.add(n.Init)
	case *Accessor:
		c.block(n.Body)
		c.add(n.ExprBody)
	case *MethodDecl:
		c.typ(n.ReturnType)
		c.params(n.Params)
		c.block(n.Body)
		c.add(n.ExprBody)
	case *ConstructorDecl:
		c.params(n.Params)
		if n.Initializer != nil {
			c.add(n.Initializer)
		}
		c.block(n.Body)
		c.add(n.ExprBody)
	case *ConstructorInitializer:
		c.args(n.Args)
	case *Parameter:
		c.typ(n.Type)
		c.add(n.Default)
	case *TypeRef:
		for _, a := range n.Args {
			c.add(a)
		}
		for _, a := range n.Tuple {
			c.add(a)
		}
	case *GlobalStatement:
		c.add(n.Stmt)
	case *Block:
		c.stmts(n.Stmts)
	case *LocalDeclaration:
		c.typ(n.Type)
		for _, d := range n.Declarators {
			c.add(d)
		}
	case *ExpressionStmt:
		c.add(n.Expr)
	case *Return:
		c.add(n.Expr)
	case *If:
		c.add(n.Cond)
		c.add(n.Then)
		c.add(n.Else)
	case *While:
		c.add(n.Cond)
		c.add(n.Body)
	case *Do:
		c.add(n.Body)
		c.add(n.Cond)
	case *For:
		if n.Decl != nil {
			c.add(n.Decl)
		}
		c.exprs(n.Inits)
		c.add(n.Cond)
		c.exprs(n.Updates)
		c.add(n.Body)
	case *ForEach:
		c.typ(n.Type)
		c.add(n.Expr)
		c.add(n.Body)
	case *Using:
		if n.Decl != nil {
			c.add(n.Decl)
		}
		c.add(n.Expr)
		c.add(n.Body)
	case *Yield:
		c.add(n.Expr)
	case *Try:
		c.block(n.Body)
		for _, k := range n.Catches {
			c.add(k)
		}
		c.block(n.Finally)
	case *Catch:
		c.typ(n.Type)
		c.add(n.Filter)
		c.block(n.Body)
	case *Throw:
		c.add(n.Expr)
	case *Lock:
		c.add(n.Expr)
		c.add(n.Body)
	case *Switch:
		c.add(n.Expr)
		for _, s := range n.Sections {
			c.add(s)
		}
	case *SwitchSection:
		c.exprs(n.Labels)
		c.stmts(n.Stmts)
	case *LocalFunction:
		c.typ(n.ReturnType)
		c.params(n.Params)
		c.block(n.Body)
		c.add(n.ExprBody)
	case *UnknownStmt:
		for _, x := range n.Nodes {
			c.add(x)
		}
	case *Identifier:
		for _, a := range n.TypeArgs {
			c.add(a)
		}
	case *MemberAccess:
		c.add(n.Expr)
		if n.Name != nil {
			c.add(n.Name)
		}
	case *ElementAccess:
		c.add(n.Expr)
		c.args(n.Args)
	case *Invocation:
		c.add(n.Expr)
		c.args(n.Args)
	case *Argument:
		c.add(n.Expr)
	case *ObjectCreation:
		c.typ(n.Type)
		c.args(n.Args)
		if n.Init != nil {
			c.add(n.Init)
		}
	case *Initializer:
		c.exprs(n.Exprs)
	case *ArrayCreation:
		c.typ(n.Type)
		c.exprs(n.Sizes)
		if n.Init != nil {
			c.add(n.Init)
		}
	case *Assignment:
		c.add(n.Left)
		c.add(n.Right)
	case *Binary:
		c.add(n.Left)
		c.add(n.Right)
	case *Unary:
		c.add(n.Operand)
	case *Conditional:
		c.add(n.Cond)
		c.add(n.WhenTrue)
		c.add(n.WhenFalse)
	case *Parenthesized:
		c.add(n.Expr)
	case *Cast:
		if n.As {
			c.add(n.Expr)
			c.typ(n.Type)
		} else {
			c.typ(n.Type)
			c.add(n.Expr)
		}
	case *Await:
		c.add(n.Expr)
	case *Lambda:
		c.params(n.Params)
		c.block(n.Body)
		c.add(n.ExprBody)
	case *Default:
		c.typ(n.Type)
	case *DeclarationExpr:
		c.typ(n.Type)
	case *UnknownExpr:
		for _, x := range n.Nodes {
			c.add(x)
		}
	}
	return c
}

// Inspect traverses the tree rooted at n in depth-first pre-order.
// If f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Collect returns every node of type T below root (root included) in pre-order
func Collect[T Node](root Node) []T {
	var out []T
	Inspect(root, func(n Node) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}

// Ancestor returns the nearest proper ancestor of n with type T
func Ancestor[T Node](n Node) (T, bool) {
	var zero T
	if n == nil {
		return zero, false
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if t, ok := p.(T); ok {
			return t, true
		}
	}
	return zero, false
}

// IsAncestor reports whether anc is n or encloses n
func IsAncestor(anc, n Node) bool {
	for p := n; p != nil; p = p.Parent() {
		if p == anc {
			return true
		}
	}
	return false
}

// EnclosingType returns the innermost type declaration containing n
func EnclosingType(n Node) *TypeDecl {
	if t, ok := n.(*TypeDecl); ok {
		return t
	}
	t, _ := Ancestor[*TypeDecl](n)
	return t
}

// EnclosingFunction returns the innermost executable body owner of n: a method,
// constructor, accessor, expression-bodied property, local function or lambda.
// Field and property initializers return the declarator or property.
func EnclosingFunction(n Node) Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p := p.(type) {
		case *MethodDecl, *ConstructorDecl, *Accessor, *LocalFunction, *Lambda:
			return p
		case *PropertyDecl:
			return p
		case *VariableDeclarator:
			if _, ok := p.Parent().(*FieldDecl); ok {
				return p
			}
		case *TypeDecl:
			return nil
		}
	}
	return nil
}

// EnclosingMember returns the innermost member-level declaration (method,
// constructor, property, field) that contains n, skipping local functions and lambdas.
func EnclosingMember(n Node) Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p := p.(type) {
		case *MethodDecl, *ConstructorDecl, *PropertyDecl, *FieldDecl:
			return p
		case *TypeDecl:
			return nil
		}
	}
	return nil
}

// Unparen strips any number of enclosing parentheses
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*Parenthesized)
		if !ok || p.Expr == nil {
			return e
		}
		e = p.Expr
	}
}

// InLoop returns the innermost loop statement enclosing n, stopping at stop
func InLoop(n Node, stop Node) Node {
	for p := n.Parent(); p != nil && p != stop; p = p.Parent() {
		switch p.(type) {
		case *For, *ForEach, *While, *Do:
			return p
		case *Lambda, *LocalFunction, *MethodDecl, *ConstructorDecl, *Accessor:
			return nil
		}
	}
	return nil
}

// IsBefore reports whether a starts lexically before b in the same tree
func IsBefore(a, b Node) bool {
	return a.Tree() == b.Tree() && a.Span().Start < b.Span().Start
}

// Equivalent reports whether a and b are the same construct: same kind and the same
// token text ignoring whitespace and comments.
func Equivalent(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return normalize(Text(a)) == normalize(Text(b))
}

func normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return sb.String()
				}
				i += end + 3
				continue
			}
		}
		if unicode.IsSpace(rune(ch)) {
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}
