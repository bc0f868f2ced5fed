package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// typeRef lowers any type node. Unknown shapes keep their text as the name.
func (l *lowerer) typeRef(n *tree_sitter.Node) *syntax.TypeRef {
	if n == nil {
		return nil
	}
	t := syntax.Build(&syntax.TypeRef{}, l.span(n))
	l.fillType(t, n)
	return t
}

func (l *lowerer) fillType(t *syntax.TypeRef, n *tree_sitter.Node) {
	switch n.Kind() {
	case "identifier", "predefined_type":
		t.Name = l.text(n)
	case "implicit_type":
		t.Name = "var"
	case "generic_name":
		name, args := l.genericParts(n)
		t.Name = name
		t.Args = args
	case "qualified_name":
		qualifier := field(n, "qualifier")
		right := field(n, "name")
		if qualifier == nil || right == nil {
			parts := l.named(n)
			if len(parts) >= 2 {
				qualifier, right = parts[0], parts[len(parts)-1]
			}
		}
		if qualifier == nil || right == nil {
			t.Name = l.text(n)
			return
		}
		var inner syntax.TypeRef
		l.fillType(&inner, right)
		t.Name = qualifiedName(l, qualifier) + "." + inner.Name
		t.Args = inner.Args
	case "alias_qualified_name":
		right := field(n, "name")
		if right == nil {
			parts := l.named(n)
			if len(parts) > 0 {
				right = parts[len(parts)-1]
			}
		}
		if right != nil {
			l.fillType(t, right)
		}
	case "nullable_type":
		if inner := l.innerType(n); inner != nil {
			l.fillType(t, inner)
		}
		t.Nullable = true
	case "array_type":
		if inner := l.innerType(n); inner != nil {
			l.fillType(t, inner)
		}
		t.Rank++
	case "pointer_type", "ref_type", "scoped_type":
		if inner := l.innerType(n); inner != nil {
			l.fillType(t, inner)
		}
	case "tuple_type":
		t.Name = "ValueTuple"
		for _, el := range l.named(n) {
			elType := field(el, "type")
			if elType == nil {
				parts := l.named(el)
				if len(parts) > 0 {
					elType = parts[0]
				}
			}
			if elType != nil {
				t.Tuple = append(t.Tuple, l.typeRef(elType))
			}
		}
	default:
		t.Name = strings.Join(strings.Fields(l.text(n)), "")
	}
}

// innerType returns the element type of a wrapper type node
func (l *lowerer) innerType(n *tree_sitter.Node) *tree_sitter.Node {
	if inner := field(n, "type"); inner != nil {
		return inner
	}
	parts := l.named(n)
	if len(parts) > 0 {
		return parts[0]
	}
	return nil
}

// genericParts splits Foo<A, B> into its name and lowered type arguments
func (l *lowerer) genericParts(n *tree_sitter.Node) (string, []*syntax.TypeRef) {
	name := field(n, "name")
	if name == nil {
		name = l.firstOfKind(n, "identifier")
	}
	var args []*syntax.TypeRef
	if list := l.firstOfKind(n, "type_argument_list"); list != nil {
		for _, a := range l.named(list) {
			args = append(args, l.typeRef(a))
		}
	}
	if name == nil {
		text := l.text(n)
		if i := strings.IndexByte(text, '<'); i > 0 {
			return strings.TrimSpace(text[:i]), args
		}
		return text, args
	}
	return l.text(name), args
}

// qualifiedName renders a name node as a dotted string without type arguments
func qualifiedName(l *lowerer, n *tree_sitter.Node) string {
	switch n.Kind() {
	case "identifier":
		return l.text(n)
	case "generic_name":
		name, _ := l.genericParts(n)
		return name
	case "qualified_name":
		qualifier := field(n, "qualifier")
		right := field(n, "name")
		if qualifier != nil && right != nil {
			return qualifiedName(l, qualifier) + "." + qualifiedName(l, right)
		}
	case "alias_qualified_name":
		if right := field(n, "name"); right != nil {
			return qualifiedName(l, right)
		}
	}
	text := strings.Join(strings.Fields(l.text(n)), "")
	text = strings.TrimPrefix(text, "global::")
	if i := strings.IndexByte(text, '<'); i > 0 {
		text = text[:i]
	}
	return text
}
