// Package syntax holds the immutable, typed syntax tree the analysis engine works on.
//
// Trees are produced by internal/parser from C# source and are never mutated after
// construction. Every node knows its parent, its span and the tree that owns it, and
// node identity is pointer identity: two distinct nodes are never the same node even
// when their text is equal (see Equivalent for structural comparison).
//
// The node set is a closed tagged variant. Code that dispatches over expressions
// should use an exhaustive type switch over the Expr implementations in expr.go so
// that a new expression shape has to be handled deliberately.
package syntax

import "fmt"

// Kind identifies the concrete type of a node
type Kind uint8

const (
	KindInvalid Kind = iota

	// Declarations
	KindCompilationUnit
	KindUsingDirective
	KindNamespace
	KindTypeDecl
	KindField
	KindVariableDeclarator
	KindProperty
	KindAccessor
	KindMethod
	KindConstructor
	KindConstructorInitializer
	KindParameter
	KindTypeRef
	KindGlobalStatement

	// Statements
	KindBlock
	KindLocalDeclaration
	KindExpressionStmt
	KindReturn
	KindIf
	KindWhile
	KindDo
	KindFor
	KindForEach
	KindUsing
	KindYield
	KindTry
	KindCatch
	KindThrow
	KindLock
	KindSwitch
	KindSwitchSection
	KindLocalFunction
	KindSimpleStmt
	KindUnknownStmt

	// Expressions
	KindLiteral
	KindIdentifier
	KindThis
	KindBase
	KindMemberAccess
	KindElementAccess
	KindInvocation
	KindArgument
	KindObjectCreation
	KindInitializer
	KindArrayCreation
	KindAssignment
	KindBinary
	KindUnary
	KindConditional
	KindParenthesized
	KindCast
	KindAwait
	KindLambda
	KindDefault
	KindDeclarationExpr
	KindUnknownExpr

	kindCount
)

var kindNames = [...]string{
	KindInvalid:                "Invalid",
	KindCompilationUnit:        "CompilationUnit",
	KindUsingDirective:         "UsingDirective",
	KindNamespace:              "Namespace",
	KindTypeDecl:               "TypeDecl",
	KindField:                  "Field",
	KindVariableDeclarator:     "VariableDeclarator",
	KindProperty:               "Property",
	KindAccessor:               "Accessor",
	KindMethod:                 "Method",
	KindConstructor:            "Constructor",
	KindConstructorInitializer: "ConstructorInitializer",
	KindParameter:              "Parameter",
	KindTypeRef:                "TypeRef",
	KindGlobalStatement:        "GlobalStatement",
	KindBlock:                  "Block",
	KindLocalDeclaration:       "LocalDeclaration",
	KindExpressionStmt:         "ExpressionStmt",
	KindReturn:                 "Return",
	KindIf:                     "If",
	KindWhile:                  "While",
	KindDo:                     "Do",
	KindFor:                    "For",
	KindForEach:                "ForEach",
	KindUsing:                  "Using",
	KindYield:                  "Yield",
	KindTry:                    "Try",
	KindCatch:                  "Catch",
	KindThrow:                  "Throw",
	KindLock:                   "Lock",
	KindSwitch:                 "Switch",
	KindSwitchSection:          "SwitchSection",
	KindLocalFunction:          "LocalFunction",
	KindSimpleStmt:             "SimpleStmt",
	KindUnknownStmt:            "UnknownStmt",
	KindLiteral:                "Literal",
	KindIdentifier:             "Identifier",
	KindThis:                   "This",
	KindBase:                   "Base",
	KindMemberAccess:           "MemberAccess",
	KindElementAccess:          "ElementAccess",
	KindInvocation:             "Invocation",
	KindArgument:               "Argument",
	KindObjectCreation:         "ObjectCreation",
	KindInitializer:            "Initializer",
	KindArrayCreation:          "ArrayCreation",
	KindAssignment:             "Assignment",
	KindBinary:                 "Binary",
	KindUnary:                  "Unary",
	KindConditional:            "Conditional",
	KindParenthesized:          "Parenthesized",
	KindCast:                   "Cast",
	KindAwait:                  "Await",
	KindLambda:                 "Lambda",
	KindDefault:                "Default",
	KindDeclarationExpr:        "DeclarationExpr",
	KindUnknownExpr:            "UnknownExpr",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Span is a half-open byte range plus 1-based line/column positions
type Span struct {
	Start     int
	End       int
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Contains reports whether other lies within s
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
}

// Node is implemented by every syntax node
type Node interface {
	Kind() Kind
	Span() Span
	Parent() Node
	Tree() *Tree
	base() *nodeBase
}

// Expr is implemented by expression nodes
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by statement nodes
type Stmt interface {
	Node
	stmtNode()
}

// Member is implemented by nodes that can appear in a type or namespace body
type Member interface {
	Node
	memberNode()
}

type nodeBase struct {
	kind   Kind
	span   Span
	parent Node
	tree   *Tree
}

func (n *nodeBase) Kind() Kind      { return n.kind }
func (n *nodeBase) Span() Span      { return n.span }
func (n *nodeBase) Parent() Node    { return n.parent }
func (n *nodeBase) Tree() *Tree     { return n.tree }
func (n *nodeBase) base() *nodeBase { return n }

// Build stamps kind and span onto a freshly allocated node.
// Tree builders call it for every node before Finish wires parents.
func Build[N Node](n N, span Span) N {
	b := n.base()
	b.kind = kindOf(n)
	b.span = span
	return n
}

// Tree is one parsed source file
type Tree struct {
	Path      string
	Source    []byte
	Root      *CompilationUnit
	Generated bool
	HasErrors bool
}

// Text returns the source text of n
func (t *Tree) Text(n Node) string {
	if t == nil || n == nil {
		return ""
	}
	s := n.Span()
	if s.Start < 0 || s.End > len(t.Source) || s.Start > s.End {
		return ""
	}
	return string(t.Source[s.Start:s.End])
}

// Finish assigns parent and tree pointers to every node below root.
// Builders call it once after the whole tree is assembled.
func Finish(t *Tree) {
	if t == nil || t.Root == nil {
		return
	}
	t.Root.base().tree = t
	var wire func(parent Node)
	wire = func(parent Node) {
		for _, child := range Children(parent) {
			b := child.base()
			b.parent = parent
			b.tree = t
			wire(child)
		}
	}
	wire(t.Root)
}

// Text returns the source text of n, or "" when n is not attached to a tree
func Text(n Node) string {
	if n == nil {
		return ""
	}
	return n.Tree().Text(n)
}

// Modifiers is a bit set of declaration modifiers
type Modifiers uint32

const (
	ModPublic Modifiers = 1 << iota
	ModPrivate
	ModProtected
	ModInternal
	ModStatic
	ModReadonly
	ModConst
	ModVirtual
	ModOverride
	ModAbstract
	ModSealed
	ModAsync
	ModPartial
	ModNew
	ModExtern
	ModVolatile
	ModRequired
)

var modifierWords = map[string]Modifiers{
	"public":    ModPublic,
	"private":   ModPrivate,
	"protected": ModProtected,
	"internal":  ModInternal,
	"static":    ModStatic,
	"readonly":  ModReadonly,
	"const":     ModConst,
	"virtual":   ModVirtual,
	"override":  ModOverride,
	"abstract":  ModAbstract,
	"sealed":    ModSealed,
	"async":     ModAsync,
	"partial":   ModPartial,
	"new":       ModNew,
	"extern":    ModExtern,
	"volatile":  ModVolatile,
	"required":  ModRequired,
}

// ParseModifier maps a modifier keyword to its flag; unknown words map to 0
func ParseModifier(word string) Modifiers {
	return modifierWords[word]
}

// Has reports whether all flags in m are set
func (m Modifiers) Has(flag Modifiers) bool {
	return m&flag == flag
}

// RefKind is the by-reference passing mode of a parameter or argument
type RefKind uint8

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

func (r RefKind) String() string {
	switch r {
	case RefRef:
		return "ref"
	case RefOut:
		return "out"
	case RefIn:
		return "in"
	default:
		return ""
	}
}
