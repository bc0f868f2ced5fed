package walkers

import (
	"strings"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Aliases returns the using aliases (using X = Y;) declared in a tree,
// namespace bodies included
func Aliases(tree *syntax.Tree) []*syntax.UsingDirective {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var out []*syntax.UsingDirective
	syntax.Inspect(tree.Root, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.UsingDirective:
			if n.Alias != "" {
				out = append(out, n)
			}
		case *syntax.TypeDecl:
			return false
		}
		return true
	})
	return out
}

// IsTypeName reports whether name, as written at ctx, names the type
// fullName. Aliases are expanded and unqualified names match by their last
// segment.
func IsTypeName(name string, ctx syntax.Node, fullName string) bool {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "global::")
	if target := semantic.AliasTarget(name, ctx); target != "" {
		name = target
		if i := strings.IndexByte(name, '<'); i >= 0 {
			name = name[:i]
		}
	}
	if i := strings.IndexByte(fullName, '`'); i >= 0 {
		fullName = fullName[:i]
	}
	if name == fullName {
		return true
	}
	if strings.Contains(name, ".") {
		return strings.HasSuffix(fullName, "."+name)
	}
	return fullName[strings.LastIndexByte(fullName, '.')+1:] == name
}

// IsType reports whether the type reference t names fullName
func IsType(t *syntax.TypeRef, fullName string) bool {
	return t != nil && IsTypeName(t.Name, t, fullName)
}
