package walkers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/walkers"
	"github.com/standardbeagle/disposeflow/testhelpers"
)

const disposableSource = `
namespace N
{
    using System;

    public sealed class Disposable : IDisposable
    {
        public void Dispose()
        {
        }
    }
}`

func member(t *testing.T, c *semantic.Compilation, query string) semantic.Symbol {
	t.Helper()
	found := c.FindMember(query)
	require.NotEmpty(t, found, "member %s", query)
	return found[0]
}

func local(t *testing.T, c *semantic.Compilation, name string) semantic.Symbol {
	t.Helper()
	d := testhelpers.Find[*syntax.VariableDeclarator](t, c, name)
	s := c.DeclaredSymbol(d)
	require.NotNil(t, s, "local %s", name)
	return s
}

func assignedTexts(t *testing.T, e *walkers.Engine, s semantic.Symbol, at syntax.Node) []string {
	t.Helper()
	values, err := e.AssignedValues(context.Background(), s, at)
	require.NoError(t, err)
	return testhelpers.Texts(values)
}

func TestAssignedValuesConstructorChainOrder(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    private readonly int value;

    public C(string s)
        : this()
    {
        this.value = 2;
    }

    public C()
    {
        this.value = 1;
    }

    public int Get() => this.value;
}`)
	e := walkers.New(c)
	read := testhelpers.Find[*syntax.MemberAccess](t, c, "this.value")
	get := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public int Get()")
	at := syntax.Collect[*syntax.MemberAccess](get)[0]
	require.NotSame(t, read, at)

	assert.Equal(t, []string{"1", "2"}, assignedTexts(t, e, member(t, c, "C.value"), at))
}

func TestAssignedValuesStopAtContextInConstructor(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    public class C
    {
        private Disposable disposable = new Disposable();

        public C()
        {
            var before = this.disposable;
            this.disposable = new Disposable();
        }
    }
}`)
	e := walkers.New(c)
	init := testhelpers.Find[*syntax.VariableDeclarator](t, c, "before = this.disposable")

	field := member(t, c, "C.disposable").(*semantic.FieldSymbol)
	values, err := e.AssignedValues(context.Background(), field, init.Init)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Same(t, field.Declarator().Init, values[0], "the later assignment does not run before the read")
}

func TestAssignedValuesOutArgument(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public int M()
    {
        int value;
        Assign(out value, 5);
        return value;
    }

    private static void Assign(out int result, int arg)
    {
        result = arg;
    }
}`)
	e := walkers.New(c)
	ret := testhelpers.Find[*syntax.Return](t, c, "return value;")

	assert.Equal(t, []string{"5"}, assignedTexts(t, e, local(t, c, "value"), ret.Expr))
}

func TestAssignedValuesRefArgumentTopLevel(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public int M()
    {
        int value = 1;
        Bump(ref value);
        return value;
    }

    public static void Bump(ref int target)
    {
        target = 2;
    }
}`)
	e := walkers.New(c, walkers.WithScope(walkers.TopLevel))
	ret := testhelpers.Find[*syntax.Return](t, c, "return value;")

	assert.Equal(t, []string{"1", "2"}, assignedTexts(t, e, local(t, c, "value = 1"), ret.Expr),
		"ref arguments are followed whatever the scope")
}

func TestAssignedValuesLexicalOrderAndLoops(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public void M()
    {
        var x = 1;
        var first = x;
        x = 2;
        for (var i = 0; i < 3; i++)
        {
            var inLoop = x;
            x = 3;
        }
        x = 4;
    }
}`)
	e := walkers.New(c)
	x := local(t, c, "x = 1")

	first := testhelpers.Find[*syntax.VariableDeclarator](t, c, "first = x")
	assert.Equal(t, []string{"1"}, assignedTexts(t, e, x, first.Init))

	inLoop := testhelpers.Find[*syntax.VariableDeclarator](t, c, "inLoop = x")
	assert.Equal(t, []string{"1", "2", "3"}, assignedTexts(t, e, x, inLoop.Init))

	assert.Equal(t, []string{"1", "2", "3", "4"}, assignedTexts(t, e, x, nil))
}

func TestAssignedValuesAtTheAssignmentItself(t *testing.T) {
	c := testhelpers.Compile(t, `
using System.IO;

public class C
{
    public void M(string p, string q)
    {
        Stream s;
        s = File.OpenRead(p);
        for (var i = 0; i < 2; i++)
        {
            s = File.OpenRead(q);
        }
    }
}`)
	e := walkers.New(c)
	s := local(t, c, "s")

	first := testhelpers.Find[*syntax.Assignment](t, c, "s = File.OpenRead(p)")
	assert.Empty(t, assignedTexts(t, e, s, first), "an assignment does not precede itself")

	inLoop := testhelpers.Find[*syntax.Assignment](t, c, "s = File.OpenRead(q)")
	assert.Equal(t, []string{"File.OpenRead(p)", "File.OpenRead(q)"}, assignedTexts(t, e, s, inLoop),
		"the previous iteration ran it")
}

func TestAssignedValuesDictionaryInitializerAndIndexer(t *testing.T) {
	c := testhelpers.Compile(t, `
using System.Collections.Generic;

public class C
{
    public int M(int k)
    {
        var d = new Dictionary<int, int> { { 1, 1 }, { 2, 2 } };
        d[3] = 3;
        return d[k];
    }
}`)
	e := walkers.New(c)
	read := testhelpers.Find[*syntax.ElementAccess](t, c, "d[k]")

	values, err := e.AssignedValuesOf(context.Background(), read, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, testhelpers.Texts(values))
}

func TestAssignedValuesDictionaryElements(t *testing.T) {
	c := testhelpers.Compile(t, `
using System.Collections.Generic;

public class C
{
    public int M()
    {
        var map = new Dictionary<int, int> { { 0, 1 } };
        map[1] = 2;
        map.Add(2, 3);
        return map[0];
    }
}`)
	e := walkers.New(c)
	read := testhelpers.Find[*syntax.ElementAccess](t, c, "map[0]")

	values, err := e.AssignedValuesOf(context.Background(), read, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, testhelpers.Texts(values))
}

func TestAssignedValuesArrayAndListElements(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    using System.Collections.Generic;

    public class C
    {
        public object M()
        {
            var array = new[] { new Disposable(), null };
            var list = new List<Disposable>();
            list.Add(new Disposable());
            return array[0] ?? list[0];
        }
    }
}`)
	e := walkers.New(c)

	values, err := e.AssignedValuesOf(context.Background(), testhelpers.Find[*syntax.ElementAccess](t, c, "array[0]"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"new Disposable()", "null"}, testhelpers.Texts(values))

	values, err = e.AssignedValuesOf(context.Background(), testhelpers.Find[*syntax.ElementAccess](t, c, "list[0]"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"new Disposable()"}, testhelpers.Texts(values))
}

func TestAssignedValuesThroughSetter(t *testing.T) {
	c := testhelpers.Compile(t, `
using System.IO;

public class C
{
    private Stream stream;

    public C(string path)
    {
        this.Stream = File.OpenRead(path);
    }

    public Stream Stream
    {
        get => this.stream;
        set => this.stream = value;
    }
}`)
	e := walkers.New(c)

	got := assignedTexts(t, e, member(t, c, "C.stream"), nil)
	assert.Contains(t, got, "File.OpenRead(path)")
}

func TestAssignedValuesPrivateMethodParameter(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    public class C
    {
        public void Run()
        {
            Use(new Disposable());
            Use(null);
        }

        private void Use(Disposable item)
        {
            item = item ?? new Disposable();
        }
    }
}`)
	e := walkers.New(c)
	use := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "private void Use")
	p := c.DeclaredSymbol(use.Params[0])
	require.NotNil(t, p)

	got := assignedTexts(t, e, p, nil)
	assert.Equal(t, []string{"new Disposable()", "null", "item ?? new Disposable()"}, got)
}

func TestAssignedValuesPublicMethodParameter(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    private int value;

    public void Run()
    {
        this.Update(5);
    }

    public void Update(int arg)
    {
        this.value = arg;
    }
}`)
	e := walkers.New(c)

	// Update is also walked on its own, where arg is not substituted
	assert.Equal(t, []string{"5", "arg"}, assignedTexts(t, e, member(t, c, "C.value"), nil))
}

func TestAssignedValuesInvariants(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    public class C
    {
        private Disposable a;

        public C()
        {
            this.a = new Disposable();
            this.Reset();
            this.a = new Disposable();
        }

        public void Reset()
        {
            this.a = new Disposable();
            this.Reset();
        }
    }
}`)
	e := walkers.New(c, walkers.WithArena(walkers.NewArena(1, true)))
	a := member(t, c, "C.a")

	first, err := e.AssignedValues(context.Background(), a, nil)
	require.NoError(t, err)
	second, err := e.AssignedValues(context.Background(), a, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "idempotent")

	seen := make(map[string]bool)
	for _, v := range first {
		text := syntax.Text(v)
		assert.False(t, seen[text], "duplicate %s", text)
		seen[text] = true
	}
	assert.Equal(t, []string{"new Disposable()"}, testhelpers.Texts(first))
}

func TestAssignedValuesCancelled(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    private int v = 1;
}`)
	e := walkers.New(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	values, err := e.AssignedValues(ctx, member(t, c, "C.v"), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, values)
}

func TestAssignedValuesUnresolvedSymbol(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public void M() => Missing.Value = 1;
}`)
	e := walkers.New(c)
	target := testhelpers.Find[*syntax.MemberAccess](t, c, "Missing.Value")

	values, err := e.AssignedValuesOf(context.Background(), target, nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}
