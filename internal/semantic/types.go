package semantic

import (
	"strings"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// TypeKind classifies type symbols
type TypeKind uint8

const (
	TypeClass TypeKind = iota
	TypeStruct
	TypeInterface
	TypeParameter
	TypeArray
)

// TypeSymbol is a named type, a constructed generic type, an array type or a
// type parameter. Constructed types share the members of their definition.
type TypeSymbol struct {
	name       string
	namespace  string
	outer      *TypeSymbol
	typeKind   TypeKind
	typeParams []string
	modifiers  syntax.Modifiers
	decls      []*syntax.TypeDecl
	external   bool

	base       *TypeSymbol
	interfaces []*TypeSymbol
	members    []Symbol
	byName     map[string][]Symbol

	// constructed types
	definition *TypeSymbol
	args       []*TypeSymbol

	// array types
	elem *TypeSymbol

	comp *Compilation
}

func (t *TypeSymbol) Name() string                { return t.name }
func (t *TypeSymbol) Kind() SymbolKind            { return SymbolType }
func (t *TypeSymbol) ContainingType() *TypeSymbol { return t.Definition().outer }

func (t *TypeSymbol) Declarations() []syntax.Node {
	d := t.Definition()
	if d.external {
		return nil
	}
	out := make([]syntax.Node, len(d.decls))
	for i, decl := range d.decls {
		out[i] = decl
	}
	return out
}

// TypeDecls returns the declaring type declarations, one per partial part
func (t *TypeSymbol) TypeDecls() []*syntax.TypeDecl {
	d := t.Definition()
	if d.external {
		return nil
	}
	return d.decls
}

// FullName returns the namespace qualified name without type arguments
func (t *TypeSymbol) FullName() string {
	d := t.Definition()
	switch {
	case d.typeKind == TypeArray && d.elem != nil:
		return d.elem.FullName() + "[]"
	case d.outer != nil:
		return d.outer.FullName() + "." + d.name
	case d.namespace != "":
		return d.namespace + "." + d.name
	}
	return d.name
}

func (t *TypeSymbol) String() string {
	if t.typeKind == TypeArray && t.elem != nil {
		return t.elem.String() + "[]"
	}
	name := t.name
	if t.outer != nil {
		name = t.outer.String() + "." + name
	}
	if len(t.args) == 0 {
		return name
	}
	parts := make([]string, len(t.args))
	for i, a := range t.args {
		if a == nil {
			parts[i] = "?"
			continue
		}
		parts[i] = a.String()
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}

func (t *TypeSymbol) Namespace() string  { return t.Definition().namespace }
func (t *TypeSymbol) TypeKind() TypeKind { return t.typeKind }
func (t *TypeSymbol) IsInterface() bool  { return t.typeKind == TypeInterface }
func (t *TypeSymbol) IsValueType() bool  { return t.typeKind == TypeStruct }
func (t *TypeSymbol) IsArray() bool      { return t.typeKind == TypeArray }

func (t *TypeSymbol) IsTypeParameter() bool { return t.typeKind == TypeParameter }

// IsExternal reports whether the type comes from the reference library rather
// than analysed source
func (t *TypeSymbol) IsExternal() bool { return t.Definition().external }

func (t *TypeSymbol) Modifiers() syntax.Modifiers { return t.Definition().modifiers }
func (t *TypeSymbol) IsSealed() bool {
	m := t.Modifiers()
	return m.Has(syntax.ModSealed) || m.Has(syntax.ModStatic) || t.typeKind == TypeStruct
}
func (t *TypeSymbol) IsAbstract() bool { return t.Modifiers().Has(syntax.ModAbstract) }
func (t *TypeSymbol) IsStatic() bool   { return t.Modifiers().Has(syntax.ModStatic) }

// Definition returns the generic definition of a constructed type, or t itself
func (t *TypeSymbol) Definition() *TypeSymbol {
	if t.definition != nil {
		return t.definition
	}
	return t
}

// TypeArguments returns the type arguments of a constructed type
func (t *TypeSymbol) TypeArguments() []*TypeSymbol { return t.args }

// TypeParameters returns the type parameter names of the definition
func (t *TypeSymbol) TypeParameters() []string { return t.Definition().typeParams }

// ElementType returns the element type of an array type
func (t *TypeSymbol) ElementType() *TypeSymbol { return t.elem }

// Base returns the base class with type arguments substituted, nil for
// interfaces, type parameters and System.Object
func (t *TypeSymbol) Base() *TypeSymbol {
	d := t.Definition()
	if d.base == nil {
		if t.typeKind == TypeArray && t.comp != nil {
			return t.comp.lookupFull("System.Array")
		}
		return nil
	}
	if t.definition == nil {
		return d.base
	}
	return t.comp.substitute(d.base, t.env())
}

// Interfaces returns the directly implemented interfaces with type arguments substituted
func (t *TypeSymbol) Interfaces() []*TypeSymbol {
	d := t.Definition()
	if t.definition == nil {
		return d.interfaces
	}
	out := make([]*TypeSymbol, 0, len(d.interfaces))
	env := t.env()
	for _, i := range d.interfaces {
		out = append(out, t.comp.substitute(i, env))
	}
	return out
}

// Members returns the members declared directly on the type, in declaration order
func (t *TypeSymbol) Members() []Symbol { return t.Definition().members }

// MembersNamed returns the members declared directly on the type with the given name
func (t *TypeSymbol) MembersNamed(name string) []Symbol { return t.Definition().byName[name] }

// InstanceConstructors returns the instance constructors, including the implicit
// default constructor
func (t *TypeSymbol) InstanceConstructors() []*MethodSymbol {
	var out []*MethodSymbol
	for _, m := range t.Definition().members {
		if ms, ok := m.(*MethodSymbol); ok && ms.methodKind == MethodConstructor {
			out = append(out, ms)
		}
	}
	return out
}

// BaseTypes returns t followed by its base classes, most derived first
func (t *TypeSymbol) BaseTypes() []*TypeSymbol {
	var out []*TypeSymbol
	seen := make(map[*TypeSymbol]bool)
	for x := t; x != nil; x = x.Base() {
		if seen[x.Definition()] {
			break
		}
		seen[x.Definition()] = true
		out = append(out, x)
	}
	return out
}

// AllInterfaces returns every interface t implements, transitively
func (t *TypeSymbol) AllInterfaces() []*TypeSymbol {
	var out []*TypeSymbol
	seen := make(map[string]bool)
	var visit func(x *TypeSymbol)
	visit = func(x *TypeSymbol) {
		for _, i := range x.Interfaces() {
			key := typeKey(i)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, i)
			visit(i)
		}
	}
	for _, b := range t.BaseTypes() {
		visit(b)
	}
	return out
}

// env maps the definition's type parameter names to t's type arguments
func (t *TypeSymbol) env() map[string]*TypeSymbol {
	d := t.Definition()
	if len(t.args) == 0 || len(d.typeParams) != len(t.args) {
		return nil
	}
	env := make(map[string]*TypeSymbol, len(t.args))
	for i, p := range d.typeParams {
		env[p] = t.args[i]
	}
	return env
}

func (t *TypeSymbol) addMember(s Symbol) {
	t.members = append(t.members, s)
	if t.byName == nil {
		t.byName = make(map[string][]Symbol)
	}
	t.byName[s.Name()] = append(t.byName[s.Name()], s)
}

// typeKey identifies a type structurally: definition full name, arity and arguments
func typeKey(t *TypeSymbol) string {
	if t == nil {
		return "?"
	}
	switch t.typeKind {
	case TypeArray:
		return typeKey(t.elem) + "[]"
	case TypeParameter:
		return "!" + t.name
	}
	d := t.Definition()
	var sb strings.Builder
	sb.WriteString(d.FullName())
	if n := len(d.typeParams); n > 0 {
		sb.WriteByte('`')
		sb.WriteByte(byte('0' + n))
	}
	if len(t.args) > 0 {
		sb.WriteByte('[')
		for i, a := range t.args {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(typeKey(a))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

func arityKey(name string, arity int) string {
	if arity == 0 {
		return name
	}
	return name + "`" + string(rune('0'+arity))
}

// SameType reports whether a and b denote the same type
func SameType(a, b *TypeSymbol) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return typeKey(a) == typeKey(b)
}

// IsTaskLike reports whether t is Task, Task<T>, ValueTask, ValueTask<T> or a
// configured awaitable
func IsTaskLike(t *TypeSymbol) bool {
	if t == nil {
		return false
	}
	switch t.Definition().FullName() {
	case "System.Threading.Tasks.Task", "System.Threading.Tasks.ValueTask",
		"System.Runtime.CompilerServices.ConfiguredTaskAwaitable",
		"System.Runtime.CompilerServices.ConfiguredValueTaskAwaitable":
		return true
	}
	return false
}

// AwaitResult returns the result type of awaiting t, nil when t is not awaitable
// or produces no value
func AwaitResult(t *TypeSymbol) *TypeSymbol {
	if !IsTaskLike(t) || len(t.args) != 1 {
		return nil
	}
	return t.args[0]
}
