package semantic

import (
	"context"
	_ "embed"
	"strings"
	"sync"

	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/parser"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

//go:embed bcl/system.cs
var bclSource []byte

var (
	bclOnce sync.Once
	bclTree *syntax.Tree
)

// referenceTree parses the reference library once per process. The tree is
// immutable and shared by every compilation.
func referenceTree() *syntax.Tree {
	bclOnce.Do(func() {
		tree, err := parser.Parse(context.Background(), "bcl/system.cs", bclSource)
		if err != nil {
			debug.Log(debug.ComponentBind, "reference library parsed with errors: %v\n", err)
		}
		bclTree = tree
	})
	return bclTree
}

// Model is the semantic information the analysis engine consumes. Every
// lookup is best effort and returns nil or false rather than failing.
type Model interface {
	ResolveSymbol(n syntax.Node) Symbol
	DeclaredSymbol(n syntax.Node) Symbol
	SymbolsEqual(a, b Symbol) bool
	IsAssignableTo(t, target *TypeSymbol) bool
	TypeOf(e syntax.Expr) *TypeSymbol
	TryGetArgumentValue(p *ParameterSymbol, args []*syntax.Argument) (syntax.Expr, bool)
	LookupType(fullName string) *TypeSymbol
	Trees() []*syntax.Tree
}

var _ Model = (*Compilation)(nil)

// Compilation binds a set of syntax trees against each other and the
// reference library. It is read-only once NewCompilation returns and safe for
// concurrent use.
type Compilation struct {
	trees []*syntax.Tree
	types []*TypeSymbol

	byName   map[string][]*TypeSymbol // simple name with arity
	byFull   map[string]*TypeSymbol   // full name with arity
	declared map[syntax.Node]Symbol

	locals      sync.Map // declaration node -> Symbol
	bindings    sync.Map // node -> binding
	constructed sync.Map // type key -> *TypeSymbol
	typeParams  sync.Map // name -> *TypeSymbol

	object *TypeSymbol
}

type binding struct{ sym Symbol }

var predefinedTypes = map[string]string{
	"object":  "System.Object",
	"dynamic": "System.Object",
	"string":  "System.String",
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"char":    "System.Char",
	"short":   "System.Int16",
	"int":     "System.Int32",
	"long":    "System.Int64",
	"uint":    "System.UInt32",
	"ulong":   "System.UInt64",
	"float":   "System.Single",
	"double":  "System.Double",
	"decimal": "System.Decimal",
	"nint":    "System.IntPtr",
	"void":    "System.Void",
}

// NewCompilation declares every type and member in trees. Trees with syntax
// errors are bound as far as they parsed.
func NewCompilation(trees ...*syntax.Tree) *Compilation {
	c := &Compilation{
		byName:   make(map[string][]*TypeSymbol),
		byFull:   make(map[string]*TypeSymbol),
		declared: make(map[syntax.Node]Symbol),
	}
	if ref := referenceTree(); ref != nil {
		c.declareTypes(ref.Root, true)
	}
	for _, t := range trees {
		if t == nil || t.Root == nil {
			continue
		}
		c.trees = append(c.trees, t)
		c.declareTypes(t.Root, false)
	}
	c.object = c.lookupFull("System.Object")
	for _, t := range c.types {
		c.resolveBases(t)
	}
	for _, t := range c.types {
		c.declareMembers(t)
	}
	debug.Log(debug.ComponentBind, "compilation: %d trees, %d types\n", len(c.trees), len(c.types))
	return c
}

// Trees returns the analysed source trees in the order they were given
func (c *Compilation) Trees() []*syntax.Tree { return c.trees }

// Types returns every declared source type
func (c *Compilation) Types() []*TypeSymbol {
	var out []*TypeSymbol
	for _, t := range c.types {
		if !t.external {
			out = append(out, t)
		}
	}
	return out
}

// LookupType finds a type by namespace qualified name. Generic types may be
// named with their arity (System.Threading.Tasks.Task`1).
func (c *Compilation) LookupType(fullName string) *TypeSymbol {
	return c.lookupFull(fullName)
}

func (c *Compilation) lookupFull(fullName string) *TypeSymbol {
	return c.byFull[fullName]
}

func (c *Compilation) declareTypes(root syntax.Node, external bool) {
	var visit func(members []syntax.Member, ns string, outer *TypeSymbol)
	visit = func(members []syntax.Member, ns string, outer *TypeSymbol) {
		for _, m := range members {
			switch m := m.(type) {
			case *syntax.Namespace:
				name := m.Name
				if ns != "" {
					name = ns + "." + name
				}
				visit(m.Members, name, nil)
			case *syntax.TypeDecl:
				t := c.declareType(m, ns, outer, external)
				visit(m.Members, ns, t)
			}
		}
	}
	if cu, ok := root.(*syntax.CompilationUnit); ok {
		visit(cu.Members, "", nil)
	}
}

func (c *Compilation) declareType(d *syntax.TypeDecl, ns string, outer *TypeSymbol, external bool) *TypeSymbol {
	prefix := ns
	if outer != nil {
		prefix = outer.FullName()
	}
	full := d.Name
	if prefix != "" {
		full = prefix + "." + d.Name
	}
	key := arityKey(full, len(d.TypeParams))
	if t, ok := c.byFull[key]; ok && t.external == external {
		// partial part
		t.decls = append(t.decls, d)
		t.modifiers |= d.Modifiers
		c.declared[d] = t
		return t
	}
	t := &TypeSymbol{
		name:       d.Name,
		namespace:  ns,
		outer:      outer,
		typeParams: d.TypeParams,
		modifiers:  d.Modifiers,
		decls:      []*syntax.TypeDecl{d},
		external:   external,
		comp:       c,
	}
	switch {
	case d.IsInterface():
		t.typeKind = TypeInterface
	case d.IsStruct():
		t.typeKind = TypeStruct
	}
	c.types = append(c.types, t)
	c.byFull[key] = t
	simple := arityKey(d.Name, len(d.TypeParams))
	c.byName[simple] = append(c.byName[simple], t)
	c.declared[d] = t
	if outer != nil {
		outer.addMember(t)
	}
	return t
}

func (c *Compilation) resolveBases(t *TypeSymbol) {
	for _, d := range t.decls {
		for _, ref := range d.Bases {
			b := c.resolveType(ref, d)
			if b == nil || b.Definition() == t {
				continue
			}
			if b.IsInterface() {
				t.interfaces = append(t.interfaces, b)
			} else if t.base == nil && t.typeKind == TypeClass {
				t.base = b
			}
		}
	}
	if t.base == nil && t.typeKind != TypeInterface && t.FullName() != "System.Object" {
		t.base = c.object
	}
}

func (c *Compilation) declareMembers(t *TypeSymbol) {
	hasCtor := false
	for _, d := range t.decls {
		for _, m := range d.Members {
			switch m := m.(type) {
			case *syntax.FieldDecl:
				typ := c.resolveType(m.Type, m)
				for _, v := range m.Declarators {
					f := &FieldSymbol{name: v.Name, decl: v, field: m, typeRef: m.Type, containing: t, typ: typ}
					t.addMember(f)
					c.declared[v] = f
				}
			case *syntax.PropertyDecl:
				c.declareProperty(t, m)
			case *syntax.MethodDecl:
				c.declareMethod(t, m)
			case *syntax.ConstructorDecl:
				kind := MethodConstructor
				if m.Modifiers.Has(syntax.ModStatic) {
					kind = MethodStaticConstructor
				} else {
					hasCtor = true
				}
				ms := &MethodSymbol{
					name:       ".ctor",
					methodKind: kind,
					decls:      []syntax.Node{m},
					containing: t,
					modifiers:  m.Modifiers,
				}
				ms.params = c.declareParams(ms, m.Params, m)
				t.addMember(ms)
				c.declared[m] = ms
			}
		}
		if len(d.PrimaryParams) > 0 {
			hasCtor = true
			c.declarePrimary(t, d)
		}
	}
	if !hasCtor && t.typeKind != TypeInterface && !t.IsStatic() {
		t.addMember(&MethodSymbol{
			name:       ".ctor",
			methodKind: MethodConstructor,
			containing: t,
			modifiers:  implicitCtorAccess(t),
			implicit:   true,
		})
	}
}

func implicitCtorAccess(t *TypeSymbol) syntax.Modifiers {
	if t.IsAbstract() {
		return syntax.ModProtected
	}
	return syntax.ModPublic
}

// declarePrimary declares the constructor of a primary parameter list and,
// for records, the positional properties
func (c *Compilation) declarePrimary(t *TypeSymbol, d *syntax.TypeDecl) {
	ctor := &MethodSymbol{
		name:       ".ctor",
		methodKind: MethodConstructor,
		decls:      []syntax.Node{d},
		containing: t,
		modifiers:  syntax.ModPublic,
	}
	ctor.params = c.declareParams(ctor, d.PrimaryParams, d)
	t.addMember(ctor)
	if !strings.HasPrefix(d.Keyword, "record") {
		return
	}
	for _, p := range d.PrimaryParams {
		if len(t.byName[p.Name]) > 0 {
			continue
		}
		prop := &PropertySymbol{name: p.Name, param: p, containing: t, typ: c.resolveType(p.Type, p)}
		prop.getter = &MethodSymbol{name: "get_" + p.Name, methodKind: MethodGetter, containing: t, modifiers: syntax.ModPublic, property: prop}
		prop.setter = &MethodSymbol{name: "set_" + p.Name, methodKind: MethodSetter, containing: t, modifiers: syntax.ModPublic, property: prop}
		prop.setter.params = []*ParameterSymbol{{name: "value", owner: prop.setter, typ: prop.typ}}
		t.addMember(prop)
	}
}

func (c *Compilation) declareProperty(t *TypeSymbol, d *syntax.PropertyDecl) {
	p := &PropertySymbol{name: d.Name, decl: d, containing: t, typ: c.resolveType(d.Type, d)}
	if d.Indexer {
		p.params = c.declareParams(nil, d.Params, d)
	}
	mods := d.Modifiers
	if d.ExprBody != nil {
		p.getter = &MethodSymbol{name: "get_" + d.Name, methodKind: MethodGetter, decls: []syntax.Node{d}, containing: t, modifiers: mods, property: p, returnRef: d.Type, returnType: p.typ}
	}
	for _, a := range d.Accessors {
		am := &MethodSymbol{containing: t, modifiers: accessorModifiers(mods, a.Modifiers), property: p, decls: []syntax.Node{a}}
		switch a.Keyword {
		case "get":
			am.name, am.methodKind, am.returnRef, am.returnType = "get_"+d.Name, MethodGetter, d.Type, p.typ
			am.params = c.indexerParams(am, p)
			p.getter = am
		case "set", "init":
			am.name, am.methodKind = "set_"+d.Name, MethodSetter
			am.params = append(c.indexerParams(am, p), &ParameterSymbol{name: "value", ordinal: len(p.params), owner: am, typ: p.typ})
			p.setter = am
		default:
			// add / remove
			am.name, am.methodKind = a.Keyword+"_"+d.Name, MethodOrdinary
			am.params = []*ParameterSymbol{{name: "value", owner: am, typ: p.typ}}
		}
		c.declared[a] = am
	}
	t.addMember(p)
	c.declared[d] = p
}

const accessMask = syntax.ModPublic | syntax.ModPrivate | syntax.ModProtected | syntax.ModInternal

// accessorModifiers applies an accessor's own accessibility over the property's
func accessorModifiers(property, accessor syntax.Modifiers) syntax.Modifiers {
	if accessor&accessMask == 0 {
		return property | accessor
	}
	return property&^accessMask | accessor
}

func (c *Compilation) indexerParams(owner *MethodSymbol, p *PropertySymbol) []*ParameterSymbol {
	if len(p.params) == 0 {
		return nil
	}
	out := make([]*ParameterSymbol, len(p.params))
	for i, ip := range p.params {
		cp := *ip
		cp.owner = owner
		out[i] = &cp
	}
	return out
}

func (c *Compilation) declareMethod(t *TypeSymbol, d *syntax.MethodDecl) {
	// a partial method is one symbol with a defining and an implementing part
	if d.Modifiers.Has(syntax.ModPartial) {
		for _, existing := range t.byName[d.Name] {
			if m, ok := existing.(*MethodSymbol); ok && len(m.params) == len(d.Params) {
				m.decls = append(m.decls, d)
				c.declared[d] = m
				return
			}
		}
	}
	m := &MethodSymbol{
		name:       d.Name,
		methodKind: MethodOrdinary,
		decls:      []syntax.Node{d},
		containing: t,
		modifiers:  d.Modifiers,
		typeParams: d.TypeParams,
		returnRef:  d.ReturnType,
		returnType: c.resolveType(d.ReturnType, d),
	}
	if t.IsInterface() && !d.Modifiers.Has(syntax.ModPrivate) {
		m.modifiers |= syntax.ModPublic
	}
	m.params = c.declareParams(m, d.Params, d)
	t.addMember(m)
	c.declared[d] = m
}

func (c *Compilation) declareParams(owner *MethodSymbol, params []*syntax.Parameter, ctx syntax.Node) []*ParameterSymbol {
	out := make([]*ParameterSymbol, 0, len(params))
	for i, p := range params {
		ps := &ParameterSymbol{
			name:     p.Name,
			ordinal:  i,
			refKind:  p.RefKind,
			isParams: p.Params,
			decl:     p,
			owner:    owner,
			typ:      c.resolveType(p.Type, ctx),
		}
		out = append(out, ps)
		c.declared[p] = ps
	}
	return out
}

// typeParam returns the shared symbol for a type parameter name
func (c *Compilation) typeParam(name string) *TypeSymbol {
	if v, ok := c.typeParams.Load(name); ok {
		return v.(*TypeSymbol)
	}
	v, _ := c.typeParams.LoadOrStore(name, &TypeSymbol{name: name, typeKind: TypeParameter, comp: c})
	return v.(*TypeSymbol)
}

// construct returns the constructed type def<args>, shared by structure
func (c *Compilation) construct(def *TypeSymbol, args []*TypeSymbol) *TypeSymbol {
	def = def.Definition()
	if len(args) == 0 || len(def.typeParams) != len(args) {
		return def
	}
	t := &TypeSymbol{
		name:       def.name,
		namespace:  def.namespace,
		outer:      def.outer,
		typeKind:   def.typeKind,
		definition: def,
		args:       args,
		comp:       c,
	}
	v, _ := c.constructed.LoadOrStore(typeKey(t), t)
	return v.(*TypeSymbol)
}

// arrayOf returns the single-rank array type of elem
func (c *Compilation) arrayOf(elem *TypeSymbol) *TypeSymbol {
	t := &TypeSymbol{name: elem.name + "[]", typeKind: TypeArray, elem: elem, comp: c}
	v, _ := c.constructed.LoadOrStore(typeKey(t), t)
	return v.(*TypeSymbol)
}

// substitute replaces type parameters in t using env
func (c *Compilation) substitute(t *TypeSymbol, env map[string]*TypeSymbol) *TypeSymbol {
	if t == nil || len(env) == 0 {
		return t
	}
	switch t.typeKind {
	case TypeParameter:
		if r, ok := env[t.name]; ok && r != nil {
			return r
		}
		return t
	case TypeArray:
		return c.arrayOf(c.substitute(t.elem, env))
	}
	if len(t.args) == 0 {
		return t
	}
	args := make([]*TypeSymbol, len(t.args))
	changed := false
	for i, a := range t.args {
		args[i] = c.substitute(a, env)
		changed = changed || args[i] != a
	}
	if !changed {
		return t
	}
	return c.construct(t.definition, args)
}

// IsAssignableTo reports whether a value of type t converts implicitly to target
// by identity, inheritance or interface implementation
func (c *Compilation) IsAssignableTo(t, target *TypeSymbol) bool {
	if t == nil || target == nil {
		return false
	}
	if SameType(t, target) {
		return true
	}
	if target.Definition() == c.object && t.typeKind != TypeParameter {
		return true
	}
	if t.typeKind == TypeParameter {
		return false
	}
	matches := func(x *TypeSymbol) bool {
		if SameType(x, target) {
			return true
		}
		return len(target.args) == 0 && x.Definition() == target.Definition()
	}
	for _, b := range t.BaseTypes() {
		if matches(b) {
			return true
		}
	}
	for _, i := range t.AllInterfaces() {
		if matches(i) {
			return true
		}
	}
	return false
}

// SymbolsEqual reports whether a and b denote the same slot: the same symbol,
// the same constructed type, an override of one another or an interface member
// and its implementation
func (c *Compilation) SymbolsEqual(a, b Symbol) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	if ta, ok := a.(*TypeSymbol); ok {
		tb, ok := b.(*TypeSymbol)
		return ok && SameType(ta, tb)
	}
	if a.Kind() != b.Kind() || a.Name() != b.Name() {
		return false
	}
	switch a.Kind() {
	case SymbolMethod, SymbolProperty:
		return c.overrides(a, b) || c.overrides(b, a) || c.implements(a, b) || c.implements(b, a)
	}
	return false
}

func memberArity(s Symbol) int {
	switch s := s.(type) {
	case *MethodSymbol:
		return len(s.params)
	case *PropertySymbol:
		return len(s.params)
	}
	return -1
}

func memberModifiers(s Symbol) syntax.Modifiers {
	switch s := s.(type) {
	case *MethodSymbol:
		return s.modifiers
	case *PropertySymbol:
		return s.Modifiers()
	}
	return 0
}

// overrides reports whether derived overrides base somewhere up its chain
func (c *Compilation) overrides(derived, base Symbol) bool {
	dt, bt := derived.ContainingType(), base.ContainingType()
	if dt == nil || bt == nil || dt.Definition() == bt.Definition() || memberArity(derived) != memberArity(base) {
		return false
	}
	if !memberModifiers(derived).Has(syntax.ModOverride) {
		return false
	}
	for _, b := range dt.BaseTypes()[1:] {
		if b.Definition() == bt.Definition() {
			return true
		}
	}
	return false
}

// implements reports whether impl is the implementation of the interface member iface
func (c *Compilation) implements(impl, iface Symbol) bool {
	it, ct := iface.ContainingType(), impl.ContainingType()
	if it == nil || ct == nil || !it.IsInterface() || ct.IsInterface() {
		return false
	}
	if memberArity(impl) != memberArity(iface) {
		return false
	}
	return c.IsAssignableTo(ct, it.Definition())
}
