package syntax

// LiteralKind classifies literal expressions
type LiteralKind uint8

const (
	LitNull LiteralKind = iota
	LitBool
	LitNumber
	LitString
	LitChar
)

type Literal struct {
	nodeBase
	LitKind LiteralKind
	Value   string
}

// Identifier is a simple or generic name (Foo, Foo<int>)
type Identifier struct {
	nodeBase
	Name     string
	TypeArgs []*TypeRef
}

type This struct{ nodeBase }

type Base struct{ nodeBase }

// MemberAccess is e.Name or e?.Name
type MemberAccess struct {
	nodeBase
	Expr        Expr
	Name        *Identifier
	Conditional bool
}

// ElementAccess is e[args] or e?[args]
type ElementAccess struct {
	nodeBase
	Expr        Expr
	Args        []*Argument
	Conditional bool
}

type Invocation struct {
	nodeBase
	Expr Expr
	Args []*Argument
}

// Argument is one call argument; Name is set for named arguments
type Argument struct {
	nodeBase
	Name    string
	RefKind RefKind
	Expr    Expr
}

// ObjectCreation is new T(args) { init }; Type is nil for target-typed new()
type ObjectCreation struct {
	nodeBase
	Type *TypeRef
	Args []*Argument
	Init *Initializer
}

// InitializerKind distinguishes object, collection and array initializers
type InitializerKind uint8

const (
	InitObject InitializerKind = iota
	InitCollection
	InitArray
	// InitComplex is one { a, b } element of a collection initializer
	InitComplex
)

// Initializer is a brace initializer. For object initializers Exprs are assignments.
type Initializer struct {
	nodeBase
	InitKind InitializerKind
	Exprs    []Expr
}

// ArrayCreation covers new T[n], new[] { ... } and collection expressions [a, b]
type ArrayCreation struct {
	nodeBase
	Type  *TypeRef
	Sizes []Expr
	Init  *Initializer
}

// Assignment is a simple or compound assignment; Op is "=", "+=", "??=" ...
type Assignment struct {
	nodeBase
	Left  Expr
	Op    string
	Right Expr
}

type Binary struct {
	nodeBase
	Left  Expr
	Op    string
	Right Expr
}

type Unary struct {
	nodeBase
	Op      string
	Operand Expr
	Postfix bool
}

type Conditional struct {
	nodeBase
	Cond      Expr
	WhenTrue  Expr
	WhenFalse Expr
}

type Parenthesized struct {
	nodeBase
	Expr Expr
}

// Cast is (T)e or, with As set, e as T
type Cast struct {
	nodeBase
	Type *TypeRef
	Expr Expr
	As   bool
}

type Await struct {
	nodeBase
	Expr Expr
}

// Lambda is a lambda or anonymous method
type Lambda struct {
	nodeBase
	Modifiers Modifiers
	Params    []*Parameter
	Body      *Block
	ExprBody  Expr
	Anonymous bool
}

// Default is default(T) or the default literal (Type nil)
type Default struct {
	nodeBase
	Type *TypeRef
}

// DeclarationExpr declares a local inline: out var x, out Foo x
type DeclarationExpr struct {
	nodeBase
	Type     *TypeRef
	Name     string
	NameSpan Span
}

// UnknownExpr is an expression shape the engine does not model.
// Its children are kept so nested identifiers and creations stay visible.
type UnknownExpr struct {
	nodeBase
	Nodes []Node
}

func (*Literal) exprNode()         {}
func (*Identifier) exprNode()      {}
func (*This) exprNode()            {}
func (*Base) exprNode()            {}
func (*MemberAccess) exprNode()    {}
func (*ElementAccess) exprNode()   {}
func (*Invocation) exprNode()      {}
func (*ObjectCreation) exprNode()  {}
func (*Initializer) exprNode()     {}
func (*ArrayCreation) exprNode()   {}
func (*Assignment) exprNode()      {}
func (*Binary) exprNode()          {}
func (*Unary) exprNode()           {}
func (*Conditional) exprNode()     {}
func (*Parenthesized) exprNode()   {}
func (*Cast) exprNode()            {}
func (*Await) exprNode()           {}
func (*Lambda) exprNode()          {}
func (*Default) exprNode()         {}
func (*DeclarationExpr) exprNode() {}
func (*UnknownExpr) exprNode()     {}
