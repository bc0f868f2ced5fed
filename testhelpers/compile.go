package testhelpers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/standardbeagle/disposeflow/internal/parser"
	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Compile parses each source as Test<i>.cs and binds them into one compilation.
// Sources must parse without syntax errors.
func Compile(t testing.TB, sources ...string) *semantic.Compilation {
	t.Helper()
	trees := make([]*syntax.Tree, len(sources))
	for i, src := range sources {
		trees[i] = Parse(t, fmt.Sprintf("Test%d.cs", i), src)
	}
	return semantic.NewCompilation(trees...)
}

// Parse parses one source file, failing the test on syntax errors
func Parse(t testing.TB, path, src string) *syntax.Tree {
	t.Helper()
	tree, err := parser.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err, "parse %s", path)
	require.NotNil(t, tree)
	return tree
}

// CompileArchive binds the .cs files of a txtar archive. The archive comment is
// ignored, so it can describe the scenario.
func CompileArchive(t testing.TB, archive string) *semantic.Compilation {
	t.Helper()
	ar := txtar.Parse([]byte(archive))
	var trees []*syntax.Tree
	for _, f := range ar.Files {
		if !parser.IsCSharpFile(f.Name) {
			continue
		}
		trees = append(trees, Parse(t, f.Name, string(f.Data)))
	}
	require.NotEmpty(t, trees, "archive has no .cs files")
	return semantic.NewCompilation(trees...)
}

// Find returns the first node of type T, in file then pre-order, whose text
// equals text ignoring whitespace differences
func Find[T syntax.Node](t testing.TB, c *semantic.Compilation, text string) T {
	t.Helper()
	return find[T](t, c, text, func(got, want string) bool { return got == want })
}

// FindPrefix is Find matching on a text prefix, for nodes such as methods
// whose full text is long
func FindPrefix[T syntax.Node](t testing.TB, c *semantic.Compilation, prefix string) T {
	t.Helper()
	return find[T](t, c, prefix, strings.HasPrefix)
}

func find[T syntax.Node](t testing.TB, c *semantic.Compilation, text string, match func(got, want string) bool) T {
	t.Helper()
	want := squash(text)
	for _, tree := range c.Trees() {
		var found T
		ok := false
		syntax.Inspect(tree.Root, func(n syntax.Node) bool {
			if ok {
				return false
			}
			if x, is := n.(T); is && match(squash(syntax.Text(n)), want) {
				found, ok = x, true
			}
			return !ok
		})
		if ok {
			return found
		}
	}
	var zero T
	t.Fatalf("no %T with text %q", zero, text)
	return zero
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Texts renders nodes as their source text, for readable assertions
func Texts[N syntax.Node](nodes []N) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = syntax.Text(n)
	}
	return out
}
