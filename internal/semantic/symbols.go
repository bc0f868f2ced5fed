package semantic

import (
	"strings"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// SymbolKind classifies symbols
type SymbolKind uint8

const (
	SymbolType SymbolKind = iota
	SymbolField
	SymbolProperty
	SymbolMethod
	SymbolLocal
	SymbolParameter
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolType:
		return "type"
	case SymbolField:
		return "field"
	case SymbolProperty:
		return "property"
	case SymbolMethod:
		return "method"
	case SymbolLocal:
		return "local"
	case SymbolParameter:
		return "parameter"
	}
	return "unknown"
}

// Symbol is a declared program entity. Symbols are compared by identity; use
// Model.SymbolsEqual for override and interface aware comparison.
type Symbol interface {
	Name() string
	Kind() SymbolKind
	// Declarations returns the declaring syntax nodes. External symbols have none
	// and partial declarations have several.
	Declarations() []syntax.Node
	// ContainingType is the type declaring the member, or the type whose member
	// declares the local or parameter.
	ContainingType() *TypeSymbol
	String() string
}

// FieldSymbol is a field or field-like event
type FieldSymbol struct {
	name       string
	decl       *syntax.VariableDeclarator
	field      *syntax.FieldDecl
	typeRef    *syntax.TypeRef
	containing *TypeSymbol
	typ        *TypeSymbol
}

func (f *FieldSymbol) Name() string                { return f.name }
func (f *FieldSymbol) Kind() SymbolKind            { return SymbolField }
func (f *FieldSymbol) ContainingType() *TypeSymbol { return f.containing }
func (f *FieldSymbol) String() string              { return f.containing.String() + "." + f.name }

func (f *FieldSymbol) Declarations() []syntax.Node {
	if f.decl == nil || f.containing.external {
		return nil
	}
	return []syntax.Node{f.decl}
}

// Declarator returns the declaring variable declarator
func (f *FieldSymbol) Declarator() *syntax.VariableDeclarator { return f.decl }

// Type returns the declared field type, or nil when it does not resolve
func (f *FieldSymbol) Type() *TypeSymbol { return f.typ }

// Modifiers returns the modifiers of the field declaration
func (f *FieldSymbol) Modifiers() syntax.Modifiers {
	if f.field == nil {
		return 0
	}
	return f.field.Modifiers
}

func (f *FieldSymbol) IsReadonly() bool { return f.Modifiers().Has(syntax.ModReadonly) }
func (f *FieldSymbol) IsStatic() bool   { return f.Modifiers().Has(syntax.ModStatic) || f.IsConst() }
func (f *FieldSymbol) IsConst() bool    { return f.Modifiers().Has(syntax.ModConst) }
func (f *FieldSymbol) IsEvent() bool    { return f.field != nil && f.field.Event }

// PropertySymbol is a property or indexer
type PropertySymbol struct {
	name       string
	decl       *syntax.PropertyDecl
	param      *syntax.Parameter // positional record parameter
	containing *TypeSymbol
	typ        *TypeSymbol
	getter     *MethodSymbol
	setter     *MethodSymbol
	params     []*ParameterSymbol
}

func (p *PropertySymbol) Name() string                { return p.name }
func (p *PropertySymbol) Kind() SymbolKind            { return SymbolProperty }
func (p *PropertySymbol) ContainingType() *TypeSymbol { return p.containing }
func (p *PropertySymbol) String() string              { return p.containing.String() + "." + p.name }

func (p *PropertySymbol) Declarations() []syntax.Node {
	if p.containing.external {
		return nil
	}
	switch {
	case p.decl != nil:
		return []syntax.Node{p.decl}
	case p.param != nil:
		return []syntax.Node{p.param}
	}
	return nil
}

// Declaration returns the property declaration, nil for record parameters
func (p *PropertySymbol) Declaration() *syntax.PropertyDecl { return p.decl }

func (p *PropertySymbol) Type() *TypeSymbol { return p.typ }

// GetMethod returns the getter, nil for write-only properties
func (p *PropertySymbol) GetMethod() *MethodSymbol { return p.getter }

// SetMethod returns the set or init accessor, nil for read-only properties
func (p *PropertySymbol) SetMethod() *MethodSymbol { return p.setter }

func (p *PropertySymbol) IsIndexer() bool { return p.decl != nil && p.decl.Indexer }

func (p *PropertySymbol) Parameters() []*ParameterSymbol { return p.params }

// IsAuto reports whether the property has compiler generated backing storage
func (p *PropertySymbol) IsAuto() bool {
	if p.param != nil {
		return true
	}
	return p.decl != nil && p.decl.IsAuto() && !p.containing.IsInterface()
}

func (p *PropertySymbol) Modifiers() syntax.Modifiers {
	if p.decl == nil {
		return syntax.ModPublic
	}
	return p.decl.Modifiers
}

func (p *PropertySymbol) IsStatic() bool { return p.Modifiers().Has(syntax.ModStatic) }

// MethodKind classifies methods
type MethodKind uint8

const (
	MethodOrdinary MethodKind = iota
	MethodConstructor
	MethodStaticConstructor
	MethodGetter
	MethodSetter
	MethodLocalFunction
	MethodLambda
)

// MethodSymbol is a method, constructor, accessor, local function or lambda
type MethodSymbol struct {
	name       string
	methodKind MethodKind
	decls      []syntax.Node
	containing *TypeSymbol
	modifiers  syntax.Modifiers
	typeParams []string
	params     []*ParameterSymbol
	returnRef  *syntax.TypeRef
	returnType *TypeSymbol
	property   *PropertySymbol
	// implicit marks the compiler generated default constructor
	implicit bool
}

func (m *MethodSymbol) Name() string                { return m.name }
func (m *MethodSymbol) Kind() SymbolKind            { return SymbolMethod }
func (m *MethodSymbol) ContainingType() *TypeSymbol { return m.containing }

func (m *MethodSymbol) String() string {
	var sb strings.Builder
	if m.containing != nil {
		sb.WriteString(m.containing.String())
		sb.WriteByte('.')
	}
	sb.WriteString(m.name)
	sb.WriteByte('(')
	for i, p := range m.params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.refKind != syntax.RefNone {
			sb.WriteString(p.refKind.String())
			sb.WriteByte(' ')
		}
		if p.typ != nil {
			sb.WriteString(p.typ.Name())
		} else {
			sb.WriteString(p.name)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func (m *MethodSymbol) Declarations() []syntax.Node {
	if m.containing != nil && m.containing.external {
		return nil
	}
	return m.decls
}

func (m *MethodSymbol) MethodKind() MethodKind          { return m.methodKind }
func (m *MethodSymbol) Parameters() []*ParameterSymbol  { return m.params }
func (m *MethodSymbol) Modifiers() syntax.Modifiers     { return m.modifiers }
func (m *MethodSymbol) TypeParameters() []string        { return m.typeParams }
func (m *MethodSymbol) ReturnType() *TypeSymbol         { return m.returnType }
func (m *MethodSymbol) AssociatedProperty() *PropertySymbol { return m.property }

// IsImplicit reports whether m is a compiler generated default constructor
func (m *MethodSymbol) IsImplicit() bool { return m.implicit }

func (m *MethodSymbol) IsStatic() bool { return m.modifiers.Has(syntax.ModStatic) }

func (m *MethodSymbol) IsAsync() bool { return m.modifiers.Has(syntax.ModAsync) }

// IsPrivate reports whether the method is only reachable from its own type.
// Members without an accessibility modifier are private, except on interfaces.
func (m *MethodSymbol) IsPrivate() bool {
	if m.methodKind == MethodLocalFunction || m.methodKind == MethodLambda {
		return true
	}
	return isPrivate(m.modifiers, m.containing)
}

// ReturnsVoid reports whether the method returns nothing
func (m *MethodSymbol) ReturnsVoid() bool {
	return m.returnRef != nil && m.returnRef.Name == "void" && m.returnRef.Rank == 0
}

// Parameter returns the parameter with the given name
func (m *MethodSymbol) Parameter(name string) *ParameterSymbol {
	for _, p := range m.params {
		if p.name == name {
			return p
		}
	}
	return nil
}

// ParameterSymbol is a formal parameter. The implicit value parameter of a
// setter has no declaration.
type ParameterSymbol struct {
	name     string
	ordinal  int
	refKind  syntax.RefKind
	isParams bool
	decl     *syntax.Parameter
	owner    *MethodSymbol
	typ      *TypeSymbol
}

func (p *ParameterSymbol) Name() string     { return p.name }
func (p *ParameterSymbol) Kind() SymbolKind { return SymbolParameter }
func (p *ParameterSymbol) String() string   { return p.name }

func (p *ParameterSymbol) ContainingType() *TypeSymbol {
	if p.owner == nil {
		return nil
	}
	return p.owner.containing
}

func (p *ParameterSymbol) Declarations() []syntax.Node {
	if p.decl == nil || (p.owner != nil && p.owner.containing != nil && p.owner.containing.external) {
		return nil
	}
	return []syntax.Node{p.decl}
}

func (p *ParameterSymbol) Ordinal() int            { return p.ordinal }
func (p *ParameterSymbol) RefKind() syntax.RefKind { return p.refKind }
func (p *ParameterSymbol) IsParams() bool          { return p.isParams }
func (p *ParameterSymbol) Owner() *MethodSymbol    { return p.owner }
func (p *ParameterSymbol) Type() *TypeSymbol       { return p.typ }

// IsImplicitValue reports whether p is the value parameter of a setter
func (p *ParameterSymbol) IsImplicitValue() bool { return p.decl == nil && p.name == "value" }

// Default returns the default value expression, if any
func (p *ParameterSymbol) Default() syntax.Expr {
	if p.decl == nil {
		return nil
	}
	return p.decl.Default
}

// LocalSymbol is a local variable, pattern or out variable, foreach variable or
// catch variable
type LocalSymbol struct {
	name       string
	decl       syntax.Node
	typeRef    *syntax.TypeRef
	containing *TypeSymbol
	using      bool
	constant   bool
}

func (l *LocalSymbol) Name() string                { return l.name }
func (l *LocalSymbol) Kind() SymbolKind            { return SymbolLocal }
func (l *LocalSymbol) ContainingType() *TypeSymbol { return l.containing }
func (l *LocalSymbol) String() string              { return l.name }
func (l *LocalSymbol) Declarations() []syntax.Node { return []syntax.Node{l.decl} }

// Declaration returns the declarator, declaration expression, foreach or catch
func (l *LocalSymbol) Declaration() syntax.Node { return l.decl }

// IsUsing reports whether the local is declared by a using declaration or statement
func (l *LocalSymbol) IsUsing() bool { return l.using }

func (l *LocalSymbol) IsConst() bool { return l.constant }

// Initializer returns the initializer of a declarator local
func (l *LocalSymbol) Initializer() syntax.Expr {
	if d, ok := l.decl.(*syntax.VariableDeclarator); ok {
		return d.Init
	}
	return nil
}

func isPrivate(mods syntax.Modifiers, containing *TypeSymbol) bool {
	if mods.Has(syntax.ModPublic) || mods.Has(syntax.ModProtected) || mods.Has(syntax.ModInternal) {
		return false
	}
	if containing != nil && containing.IsInterface() {
		return mods.Has(syntax.ModPrivate)
	}
	return true
}

// IsPrivateMember reports whether a field, property or method is private
func IsPrivateMember(s Symbol) bool {
	switch s := s.(type) {
	case *FieldSymbol:
		return isPrivate(s.Modifiers(), s.containing)
	case *PropertySymbol:
		return isPrivate(s.Modifiers(), s.containing)
	case *MethodSymbol:
		return s.IsPrivate()
	}
	return false
}
