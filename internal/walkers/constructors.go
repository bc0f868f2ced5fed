package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Constructors describes how instances of a type are constructed
type Constructors struct {
	// Default is the parameterless instance constructor, possibly implicit
	Default *semantic.MethodSymbol
	// NonPrivate are the declared constructors callable from outside the type
	NonPrivate []*syntax.ConstructorDecl
	// ObjectCreations are the new T(...) expressions in the type's own
	// declarations creating T
	ObjectCreations []*syntax.ObjectCreation
	// Initializers are the this(...) and base(...) calls in the type's
	// constructors
	Initializers []*syntax.ConstructorInitializer
}

// ConstructorsOf scans every partial declaration of t
func (e *Engine) ConstructorsOf(ctx context.Context, t *semantic.TypeSymbol) (Constructors, error) {
	var out Constructors
	if t == nil {
		return out, nil
	}
	for _, m := range t.InstanceConstructors() {
		if len(m.Parameters()) == 0 && out.Default == nil {
			out.Default = m
		}
	}
	for _, d := range t.TypeDecls() {
		if err := ctx.Err(); err != nil {
			return Constructors{}, err
		}
		for _, m := range d.Members {
			c, ok := m.(*syntax.ConstructorDecl)
			if !ok {
				continue
			}
			if c.Initializer != nil {
				out.Initializers = append(out.Initializers, c.Initializer)
			}
			if !c.Modifiers.Has(syntax.ModStatic) && !c.Modifiers.Has(syntax.ModPrivate) && hasAccessModifier(c.Modifiers) {
				out.NonPrivate = append(out.NonPrivate, c)
			}
		}
		syntax.Inspect(d, func(n syntax.Node) bool {
			switch n := n.(type) {
			case *syntax.TypeDecl:
				return n == d
			case *syntax.ObjectCreation:
				if created := e.model.TypeOf(n); created != nil && created.Definition() == t.Definition() {
					out.ObjectCreations = append(out.ObjectCreations, n)
				}
			}
			return true
		})
	}
	return out, nil
}

func hasAccessModifier(m syntax.Modifiers) bool {
	return m.Has(syntax.ModPublic) || m.Has(syntax.ModProtected) || m.Has(syntax.ModInternal)
}
