package walkers

import (
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// collectionAdders are the methods that store their last argument in a
// collection
var collectionAdders = map[string]bool{
	"Add":         true,
	"TryAdd":      true,
	"Push":        true,
	"Enqueue":     true,
	"Insert":      true,
	"AddFirst":    true,
	"AddLast":     true,
	"GetOrAdd":    true,
	"AddOrUpdate": true,
}

// addElements records the elements stored by a collection-valued expression:
// initializer items, dictionary values and array initializer items. Keys are
// never recorded.
func (w *assignedValueWalker) addElements(e syntax.Expr) {
	switch e := syntax.Unparen(e).(type) {
	case *syntax.ObjectCreation:
		w.addInitializerElements(e.Init)
	case *syntax.ArrayCreation:
		w.addInitializerElements(e.Init)
	case *syntax.Initializer:
		w.addInitializerElements(e)
	}
}

func (w *assignedValueWalker) addInitializerElements(init *syntax.Initializer) {
	if init == nil {
		return
	}
	for _, x := range init.Exprs {
		switch x := x.(type) {
		case *syntax.Initializer:
			// { key, value }
			if x.InitKind == syntax.InitComplex && len(x.Exprs) > 0 {
				w.values.Add(x.Exprs[len(x.Exprs)-1])
				continue
			}
			w.addInitializerElements(x)
		case *syntax.Assignment:
			// [key] = value
			if ea, ok := x.Left.(*syntax.ElementAccess); ok && ea.Expr == nil {
				w.values.Add(x.Right)
			}
		default:
			if init.InitKind != syntax.InitObject {
				w.values.Add(x)
			}
		}
	}
}

// visitCollectionCall records the value passed to an adder called on the
// collection
func (w *assignedValueWalker) visitCollectionCall(inv *syntax.Invocation) {
	ma, ok := inv.Expr.(*syntax.MemberAccess)
	if !ok || !collectionAdders[ma.Name.Name] || len(inv.Args) == 0 {
		return
	}
	if !w.isTarget(ma.Expr) || !w.precedesContext(inv) {
		return
	}
	w.values.Add(w.substitute(inv.Args[len(inv.Args)-1].Expr))
}
