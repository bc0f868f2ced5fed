package syntax

type Block struct {
	nodeBase
	Stmts []Stmt
}

// LocalDeclaration declares locals, optionally as a using declaration (using var x = ...)
type LocalDeclaration struct {
	nodeBase
	Using       bool
	Await       bool
	Const       bool
	Type        *TypeRef
	Declarators []*VariableDeclarator
}

type ExpressionStmt struct {
	nodeBase
	Expr Expr
}

type Return struct {
	nodeBase
	Expr Expr
}

type If struct {
	nodeBase
	Cond Expr
	Then Stmt
	Else Stmt
}

type While struct {
	nodeBase
	Cond Expr
	Body Stmt
}

type Do struct {
	nodeBase
	Body Stmt
	Cond Expr
}

type For struct {
	nodeBase
	Decl    *LocalDeclaration
	Inits   []Expr
	Cond    Expr
	Updates []Expr
	Body    Stmt
}

// ForEach declares the iteration variable Name
type ForEach struct {
	nodeBase
	Await    bool
	Type     *TypeRef
	Name     string
	NameSpan Span
	Expr     Expr
	Body     Stmt
}

// Using is a using statement with either a declaration or an expression resource
type Using struct {
	nodeBase
	Await bool
	Decl  *LocalDeclaration
	Expr  Expr
	Body  Stmt
}

// Yield is yield return expr or yield break
type Yield struct {
	nodeBase
	Break bool
	Expr  Expr
}

type Try struct {
	nodeBase
	Body    *Block
	Catches []*Catch
	Finally *Block
}

// Catch may declare an exception local
type Catch struct {
	nodeBase
	Type     *TypeRef
	Name     string
	NameSpan Span
	Filter   Expr
	Body     *Block
}

type Throw struct {
	nodeBase
	Expr Expr
}

type Lock struct {
	nodeBase
	Expr Expr
	Body Stmt
}

type Switch struct {
	nodeBase
	Expr     Expr
	Sections []*SwitchSection
}

type SwitchSection struct {
	nodeBase
	Labels []Expr
	Stmts  []Stmt
}

// LocalFunction is a function declared inside a method body
type LocalFunction struct {
	nodeBase
	Modifiers  Modifiers
	ReturnType *TypeRef
	Name       string
	NameSpan   Span
	TypeParams []string
	Params     []*Parameter
	Body       *Block
	ExprBody   Expr
}

// SimpleStmt is break, continue, goto, empty and similar statements without operands of interest
type SimpleStmt struct {
	nodeBase
	Keyword string
}

// UnknownStmt is a statement shape the engine does not model; its children are still walked
type UnknownStmt struct {
	nodeBase
	Nodes []Node
}

func (*Block) stmtNode()            {}
func (*LocalDeclaration) stmtNode() {}
func (*ExpressionStmt) stmtNode()   {}
func (*Return) stmtNode()           {}
func (*If) stmtNode()               {}
func (*While) stmtNode()            {}
func (*Do) stmtNode()               {}
func (*For) stmtNode()              {}
func (*ForEach) stmtNode()          {}
func (*Using) stmtNode()            {}
func (*Yield) stmtNode()            {}
func (*Try) stmtNode()              {}
func (*Throw) stmtNode()            {}
func (*Lock) stmtNode()             {}
func (*Switch) stmtNode()           {}
func (*LocalFunction) stmtNode()    {}
func (*SimpleStmt) stmtNode()       {}
func (*UnknownStmt) stmtNode()      {}
