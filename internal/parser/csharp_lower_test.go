package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/errors"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

func parseSource(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := Parse(context.Background(), "Test.cs", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

func findType(t *testing.T, tree *syntax.Tree, name string) *syntax.TypeDecl {
	t.Helper()
	for _, d := range syntax.Collect[*syntax.TypeDecl](tree.Root) {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("type %s not found", name)
	return nil
}

// TestParseTypeMembers covers the member shapes the walkers rely on.
func TestParseTypeMembers(t *testing.T) {
	tree := parseSource(t, `
using System;
using System.IO;

namespace N
{
    public sealed class C : IDisposable
    {
        private readonly Stream stream = File.OpenRead("a.txt");

        public C() : this(1)
        {
        }

        public C(int x)
        {
        }

        public int P { get; set; }

        public Stream Current => this.stream;

        public void Dispose()
        {
            this.stream?.Dispose();
        }
    }
}`)

	c := findType(t, tree, "C")
	assert.Equal(t, "class", c.Keyword)
	assert.True(t, c.Modifiers.Has(syntax.ModSealed))
	require.Len(t, c.Bases, 1)
	assert.Equal(t, "IDisposable", c.Bases[0].Name)

	fields := syntax.Collect[*syntax.FieldDecl](c)
	require.Len(t, fields, 1)
	f := fields[0]
	assert.True(t, f.Modifiers.Has(syntax.ModReadonly))
	assert.True(t, f.Modifiers.Has(syntax.ModPrivate))
	assert.Equal(t, "Stream", f.Type.Name)
	require.Len(t, f.Declarators, 1)
	assert.Equal(t, "stream", f.Declarators[0].Name)
	inv, ok := f.Declarators[0].Init.(*syntax.Invocation)
	require.True(t, ok, "initializer should be an invocation, got %T", f.Declarators[0].Init)
	require.Len(t, inv.Args, 1)

	ctors := syntax.Collect[*syntax.ConstructorDecl](c)
	require.Len(t, ctors, 2)
	require.NotNil(t, ctors[0].Initializer)
	assert.Equal(t, "this", ctors[0].Initializer.Keyword)
	assert.Len(t, ctors[0].Initializer.Args, 1)
	assert.Nil(t, ctors[1].Initializer)
	require.Len(t, ctors[1].Params, 1)
	assert.Equal(t, "x", ctors[1].Params[0].Name)

	props := syntax.Collect[*syntax.PropertyDecl](c)
	require.Len(t, props, 2)
	assert.True(t, props[0].IsAuto())
	assert.NotNil(t, props[0].Getter())
	assert.NotNil(t, props[0].Setter())
	assert.False(t, props[1].IsAuto())
	_, ok = props[1].ExprBody.(*syntax.MemberAccess)
	assert.True(t, ok, "expression body should be a member access, got %T", props[1].ExprBody)

	methods := syntax.Collect[*syntax.MethodDecl](c)
	require.Len(t, methods, 1)
	require.NotNil(t, methods[0].Body)
	require.Len(t, methods[0].Body.Stmts, 1)
	stmt, ok := methods[0].Body.Stmts[0].(*syntax.ExpressionStmt)
	require.True(t, ok)
	call, ok := stmt.Expr.(*syntax.Invocation)
	require.True(t, ok, "got %T", stmt.Expr)
	member, ok := call.Expr.(*syntax.MemberAccess)
	require.True(t, ok, "got %T", call.Expr)
	assert.True(t, member.Conditional)
	assert.Equal(t, "Dispose", member.Name.Name)
	recv, ok := member.Expr.(*syntax.MemberAccess)
	require.True(t, ok, "got %T", member.Expr)
	assert.Equal(t, "stream", recv.Name.Name)
	_, ok = recv.Expr.(*syntax.This)
	assert.True(t, ok)
}

// TestParseStatements covers locals, using declarations and inline out variables.
func TestParseStatements(t *testing.T) {
	tree := parseSource(t, `
class C
{
    async Task M(Dictionary<int, Stream> map)
    {
        using var a = new MemoryStream();
        using (var b = new MemoryStream())
        {
        }
        if (map.TryGetValue(1, out var s))
        {
            s.Dispose();
        }
        foreach (var item in map.Values)
        {
        }
        var t = await Task.FromResult(1).ConfigureAwait(false);
        Func<int, int> f = x => x + 1;
    }
}`)

	decls := syntax.Collect[*syntax.LocalDeclaration](tree.Root)
	require.GreaterOrEqual(t, len(decls), 4)
	assert.True(t, decls[0].Using)
	assert.True(t, decls[0].Type.IsVar())
	_, ok := decls[0].Declarators[0].Init.(*syntax.ObjectCreation)
	assert.True(t, ok)

	usings := syntax.Collect[*syntax.Using](tree.Root)
	require.Len(t, usings, 1)
	require.NotNil(t, usings[0].Decl)
	assert.Equal(t, "b", usings[0].Decl.Declarators[0].Name)
	assert.False(t, usings[0].Decl.Using, "only using var declarations are using declarations")

	outs := syntax.Collect[*syntax.DeclarationExpr](tree.Root)
	require.Len(t, outs, 1)
	assert.Equal(t, "s", outs[0].Name)
	arg, ok := outs[0].Parent().(*syntax.Argument)
	require.True(t, ok, "declaration parent should be an argument, got %T", outs[0].Parent())
	assert.Equal(t, syntax.RefOut, arg.RefKind)

	loops := syntax.Collect[*syntax.ForEach](tree.Root)
	require.Len(t, loops, 1)
	assert.Equal(t, "item", loops[0].Name)

	awaits := syntax.Collect[*syntax.Await](tree.Root)
	require.Len(t, awaits, 1)

	lambdas := syntax.Collect[*syntax.Lambda](tree.Root)
	require.Len(t, lambdas, 1)
	require.Len(t, lambdas[0].Params, 1)
	assert.Equal(t, "x", lambdas[0].Params[0].Name)
	_, ok = lambdas[0].ExprBody.(*syntax.Binary)
	assert.True(t, ok, "got %T", lambdas[0].ExprBody)
}

func TestParseParameters(t *testing.T) {
	tree := parseSource(t, `
class C
{
    int Sum(ref int seed, params int[] rest) => seed;
    string this[int i, params string[] keys] => null;
    void M()
    {
        Run(item => item.Dispose());
        Run((a, b) => a);
        Run(delegate (int v) { });
    }
}`)

	methods := syntax.Collect[*syntax.MethodDecl](tree.Root)
	require.NotEmpty(t, methods)
	sum := methods[0]
	require.Len(t, sum.Params, 2)
	assert.Equal(t, syntax.RefRef, sum.Params[0].RefKind)
	assert.False(t, sum.Params[0].Params)
	assert.Equal(t, "rest", sum.Params[1].Name)
	assert.True(t, sum.Params[1].Params)
	require.NotNil(t, sum.Params[1].Type)
	assert.Equal(t, "params int[] rest", syntax.Text(sum.Params[1]))

	props := syntax.Collect[*syntax.PropertyDecl](tree.Root)
	require.Len(t, props, 1)
	require.Len(t, props[0].Params, 2)
	assert.True(t, props[0].Params[1].Params)

	lambdas := syntax.Collect[*syntax.Lambda](tree.Root)
	require.Len(t, lambdas, 3)
	require.Len(t, lambdas[0].Params, 1)
	assert.Equal(t, "item", lambdas[0].Params[0].Name)
	_, ok := lambdas[0].ExprBody.(*syntax.Invocation)
	assert.True(t, ok, "got %T", lambdas[0].ExprBody)
	assert.Len(t, lambdas[1].Params, 2)
	assert.True(t, lambdas[2].Anonymous)
	assert.Len(t, lambdas[2].Params, 1)
}

func TestParseReusesPooledParsers(t *testing.T) {
	for i := 0; i < 3; i++ {
		tree, err := Parse(context.Background(), "Pooled.cs", []byte("class C { void M() { } }"))
		require.NoError(t, err)
		assert.Len(t, syntax.Collect[*syntax.MethodDecl](tree.Root), 1)
	}

	p, err := getParser()
	require.NoError(t, err)
	require.NotNil(t, p)
	releaseParser(p)
}

// TestParseInitializers covers collection, dictionary and object initializers.
func TestParseInitializers(t *testing.T) {
	tree := parseSource(t, `
class C
{
    object M(Disposable a, Disposable b)
    {
        var list = new List<Disposable> { a, b };
        var map = new Dictionary<int, Disposable> { [1] = a, [2] = b };
        var obj = new Holder { Value = a };
        return new[] { a };
    }
}`)

	inits := syntax.Collect[*syntax.Initializer](tree.Root)
	require.Len(t, inits, 4)
	assert.Equal(t, syntax.InitCollection, inits[0].InitKind)
	assert.Len(t, inits[0].Exprs, 2)

	assert.Equal(t, syntax.InitObject, inits[1].InitKind)
	require.Len(t, inits[1].Exprs, 2)
	assign, ok := inits[1].Exprs[0].(*syntax.Assignment)
	require.True(t, ok)
	_, ok = assign.Left.(*syntax.ElementAccess)
	assert.True(t, ok, "dictionary initializer target should be an element access, got %T", assign.Left)

	assert.Equal(t, syntax.InitObject, inits[2].InitKind)
	assert.Equal(t, syntax.InitArray, inits[3].InitKind)

	creations := syntax.Collect[*syntax.ObjectCreation](tree.Root)
	require.Len(t, creations, 3)
	assert.Equal(t, "Dictionary", creations[1].Type.Name)
	assert.Len(t, creations[1].Type.Args, 2)
}

// TestParentsAreWired checks that every node points back at the node listing it.
func TestParentsAreWired(t *testing.T) {
	tree := parseSource(t, `
class C
{
    private Stream s;
    void M() { s = new MemoryStream(); s.Dispose(); }
}`)

	count := 0
	syntax.Inspect(tree.Root, func(n syntax.Node) bool {
		count++
		assert.Same(t, tree, n.Tree())
		for _, child := range syntax.Children(n) {
			assert.True(t, child.Parent() == n, "%s should be the parent of %s", n.Kind(), child.Kind())
		}
		return true
	})
	assert.Greater(t, count, 10)
	assert.Nil(t, tree.Root.Parent())
}

func TestParseSyntaxErrorReturnsPartialTree(t *testing.T) {
	tree, err := Parse(context.Background(), "Broken.cs", []byte(`class C { void M() { var x = ; } }`))
	require.Error(t, err)
	var perr *errors.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Broken.cs", perr.FilePath)
	require.NotNil(t, tree)
	assert.True(t, tree.HasErrors)
	assert.NotEmpty(t, syntax.Collect[*syntax.TypeDecl](tree.Root))
}

func TestParseRejectsOtherLanguages(t *testing.T) {
	_, err := Parse(context.Background(), "main.go", []byte("package main"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedLanguage)
}

func TestParseHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, "Test.cs", []byte("class C {}"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsGenerated(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    bool
	}{
		{"designer file", "Form1.Designer.cs", "class C {}", true},
		{"source generator output", "obj/Foo.g.cs", "class C {}", true},
		{"auto-generated header", "Foo.cs", "// <auto-generated>\n// tool\n// </auto-generated>\nclass C {}", true},
		{"header after blank lines", "Foo.cs", "\n\n/* <autogenerated /> */\nclass C {}", true},
		{"plain source", "Foo.cs", "using System;\nclass C {}", false},
		{"marker after code", "Foo.cs", "class C {}\n// <auto-generated>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGenerated(tt.path, []byte(tt.content)))
		})
	}
}
