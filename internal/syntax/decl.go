package syntax

// CompilationUnit is the root of a Tree
type CompilationUnit struct {
	nodeBase
	Usings  []*UsingDirective
	Members []Member
}

// UsingDirective is a namespace import or alias (using X = Y)
type UsingDirective struct {
	nodeBase
	Alias  string
	Name   string
	Static bool
}

// Namespace is a block or file-scoped namespace declaration
type Namespace struct {
	nodeBase
	Name    string
	Usings  []*UsingDirective
	Members []Member
}

// TypeDecl is a class, struct, interface or record declaration
type TypeDecl struct {
	nodeBase
	Modifiers  Modifiers
	Keyword    string
	Name       string
	NameSpan   Span
	TypeParams []string
	// PrimaryParams holds record / primary constructor parameters
	PrimaryParams []*Parameter
	Bases         []*TypeRef
	Members       []Member
}

// IsInterface reports whether the declaration is an interface
func (d *TypeDecl) IsInterface() bool { return d.Keyword == "interface" }

// IsStruct reports whether the declaration is a value type
func (d *TypeDecl) IsStruct() bool { return d.Keyword == "struct" || d.Keyword == "record struct" }

// FieldDecl declares one or more fields (or field-like events)
type FieldDecl struct {
	nodeBase
	Modifiers   Modifiers
	Event       bool
	Type        *TypeRef
	Declarators []*VariableDeclarator
}

// VariableDeclarator names one field or local and its optional initializer
type VariableDeclarator struct {
	nodeBase
	Name     string
	NameSpan Span
	Init     Expr
}

// PropertyDecl is a property or indexer declaration
type PropertyDecl struct {
	nodeBase
	Modifiers         Modifiers
	Type              *TypeRef
	ExplicitInterface string
	Name              string
	NameSpan          Span
	Indexer           bool
	Params            []*Parameter
	Accessors         []*Accessor
	// ExprBody is the getter of an expression-bodied property (int P => x;)
	ExprBody Expr
	Init     Expr
}

// Getter returns the get accessor or nil
func (p *PropertyDecl) Getter() *Accessor { return p.accessor("get") }

// Setter returns the set or init accessor or nil
func (p *PropertyDecl) Setter() *Accessor {
	if a := p.accessor("set"); a != nil {
		return a
	}
	return p.accessor("init")
}

func (p *PropertyDecl) accessor(keyword string) *Accessor {
	for _, a := range p.Accessors {
		if a.Keyword == keyword {
			return a
		}
	}
	return nil
}

// IsAuto reports whether the property has accessors and none of them has a body
func (p *PropertyDecl) IsAuto() bool {
	if p.ExprBody != nil || len(p.Accessors) == 0 {
		return false
	}
	for _, a := range p.Accessors {
		if a.Body != nil || a.ExprBody != nil {
			return false
		}
	}
	return true
}

// Accessor is a get, set, init, add or remove accessor
type Accessor struct {
	nodeBase
	Modifiers Modifiers
	Keyword   string
	Body      *Block
	ExprBody  Expr
}

// MethodDecl is a method or operator declaration
type MethodDecl struct {
	nodeBase
	Modifiers         Modifiers
	ReturnType        *TypeRef
	ExplicitInterface string
	Name              string
	NameSpan          Span
	TypeParams        []string
	Params            []*Parameter
	Body              *Block
	ExprBody          Expr
}

// ConstructorDecl is an instance or static constructor
type ConstructorDecl struct {
	nodeBase
	Modifiers   Modifiers
	Name        string
	NameSpan    Span
	Params      []*Parameter
	Initializer *ConstructorInitializer
	Body        *Block
	ExprBody    Expr
}

// ConstructorInitializer is the : this(...) or : base(...) chain call
type ConstructorInitializer struct {
	nodeBase
	Keyword string
	Args    []*Argument
}

// Parameter is a method, lambda, indexer or primary constructor parameter
type Parameter struct {
	nodeBase
	RefKind  RefKind
	Params   bool
	This     bool
	Type     *TypeRef
	Name     string
	NameSpan Span
	Default  Expr
}

// TypeRef is a written type: a simple, qualified, generic, nullable or array type.
// Name holds the dotted name without type arguments. Implicit types are written "var".
type TypeRef struct {
	nodeBase
	Name     string
	Args     []*TypeRef
	Nullable bool
	Rank     int
	// Tuple holds element types of a tuple type
	Tuple []*TypeRef
}

// IsVar reports whether the type is implicitly typed
func (t *TypeRef) IsVar() bool { return t != nil && t.Name == "var" && len(t.Args) == 0 }

func (*UsingDirective) memberNode()  {}
func (*Namespace) memberNode()       {}
func (*TypeDecl) memberNode()        {}
func (*FieldDecl) memberNode()       {}
func (*PropertyDecl) memberNode()    {}
func (*MethodDecl) memberNode()      {}
func (*ConstructorDecl) memberNode() {}

// GlobalStatement wraps a top-level statement so it can live in a member list
type GlobalStatement struct {
	nodeBase
	Stmt Stmt
}

func (*GlobalStatement) memberNode() {}
