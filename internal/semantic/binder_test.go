package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
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

func TestResolveMembers(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    using System;
    using System.IO;

    public class C
    {
        private readonly Stream stream;
        private int value;

        public C(string path)
        {
            this.stream = File.OpenRead(path);
            value = 1;
        }

        public int Value
        {
            get => this.value;
            set => this.value = value;
        }
    }
}`)

	field := testhelpers.Find[*syntax.MemberAccess](t, c, "this.stream")
	sym := c.ResolveSymbol(field)
	require.IsType(t, &semantic.FieldSymbol{}, sym)
	assert.Equal(t, "stream", sym.Name())
	assert.True(t, sym.(*semantic.FieldSymbol).IsReadonly())

	bare := testhelpers.Find[*syntax.Identifier](t, c, "value")
	assert.Equal(t, semantic.SymbolField, c.ResolveSymbol(bare).Kind())

	open := testhelpers.Find[*syntax.Invocation](t, c, "File.OpenRead(path)")
	m, ok := c.ResolveSymbol(open).(*semantic.MethodSymbol)
	require.True(t, ok)
	assert.Equal(t, "OpenRead", m.Name())
	assert.Nil(t, m.Declarations(), "framework methods have no declarations")
	assert.Equal(t, "FileStream", c.TypeOf(open).Name())

	path := testhelpers.Find[*syntax.Identifier](t, c, "path")
	assert.Equal(t, semantic.SymbolParameter, c.ResolveSymbol(path).Kind())
}

func TestResolveOverloads(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    private int v;

    public C()
    {
        this.v = 1;
    }

    public C(string s)
        : this()
    {
        this.v = 2;
    }

    public static C Create() => new C("a");

    public void M(int a, string b = null)
    {
    }

    public void M(string a)
    {
    }

    public void Call()
    {
        this.M(1);
        this.M("x");
        this.M(b: "y", a: 2);
    }
}`)

	create := testhelpers.Find[*syntax.ObjectCreation](t, c, `new C("a")`)
	ctor, ok := c.ResolveSymbol(create).(*semantic.MethodSymbol)
	require.True(t, ok)
	assert.Equal(t, semantic.MethodConstructor, ctor.MethodKind())
	require.Len(t, ctor.Parameters(), 1)
	assert.Equal(t, "s", ctor.Parameters()[0].Name())

	init := syntax.Collect[*syntax.ConstructorInitializer](c.Trees()[0].Root)
	require.Len(t, init, 1)
	chained, ok := c.ResolveSymbol(init[0]).(*semantic.MethodSymbol)
	require.True(t, ok)
	assert.Empty(t, chained.Parameters())

	intCall := testhelpers.Find[*syntax.Invocation](t, c, "this.M(1)")
	m := c.ResolveSymbol(intCall).(*semantic.MethodSymbol)
	assert.Len(t, m.Parameters(), 2)

	stringCall := testhelpers.Find[*syntax.Invocation](t, c, `this.M("x")`)
	m = c.ResolveSymbol(stringCall).(*semantic.MethodSymbol)
	assert.Len(t, m.Parameters(), 1)

	named := testhelpers.Find[*syntax.Invocation](t, c, `this.M(b: "y", a: 2)`)
	m = c.ResolveSymbol(named).(*semantic.MethodSymbol)
	require.Len(t, m.Parameters(), 2)
	v, ok := c.TryGetArgumentValue(m.Parameters()[0], named.Args)
	require.True(t, ok)
	assert.Equal(t, "2", syntax.Text(v))

	v, ok = c.TryGetArgumentValue(m.Parameters()[1], intCall.Args)
	require.True(t, ok, "default value")
	assert.Equal(t, "null", syntax.Text(v))
}

func TestTypeOfGenerics(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    using System.Collections.Generic;
    using System.Threading.Tasks;

    public class C
    {
        public async Task<Disposable> CreateAsync()
        {
            var list = new List<Disposable>();
            var d = list[0];
            var awaited = await Task.FromResult(new Disposable());
            var run = await Task.Run(() => new Disposable());
            var map = new Dictionary<int, Disposable>();
            map.TryGetValue(1, out var found);
            return awaited;
        }
    }
}`)

	d := testhelpers.Find[*syntax.ElementAccess](t, c, "list[0]")
	assert.Equal(t, "Disposable", nameOf(c.TypeOf(d)))

	awaited := testhelpers.Find[*syntax.Await](t, c, "await Task.FromResult(new Disposable())")
	assert.Equal(t, "Disposable", nameOf(c.TypeOf(awaited)))

	run := testhelpers.Find[*syntax.Await](t, c, "await Task.Run(() => new Disposable())")
	assert.Equal(t, "Disposable", nameOf(c.TypeOf(run)))

	found := testhelpers.Find[*syntax.DeclarationExpr](t, c, "var found")
	assert.Equal(t, "Disposable", nameOf(c.TypeOf(found)))

	awaitedRef := testhelpers.Find[*syntax.Return](t, c, "return awaited;")
	assert.Equal(t, "Disposable", nameOf(c.TypeOf(awaitedRef.Expr)))
}

func nameOf(t *semantic.TypeSymbol) string {
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

func TestSymbolsEqualAcrossHierarchy(t *testing.T) {
	c := testhelpers.Compile(t, `
using System;

public abstract class Base : IDisposable
{
    public virtual void Dispose()
    {
    }
}

public class Derived : Base
{
    public override void Dispose()
    {
    }
}

public partial class P
{
    private int a;
}

public partial class P
{
    public int A() => this.a;
}`)

	disposable := c.LookupType("System.IDisposable")
	require.NotNil(t, disposable)
	iface := disposable.MembersNamed("Dispose")[0]

	baseType := c.LookupType("Base")
	derivedType := c.LookupType("Derived")
	require.NotNil(t, baseType)
	require.NotNil(t, derivedType)
	baseDispose := baseType.MembersNamed("Dispose")[0]
	derivedDispose := derivedType.MembersNamed("Dispose")[0]

	assert.True(t, c.SymbolsEqual(derivedDispose, baseDispose), "override")
	assert.True(t, c.SymbolsEqual(baseDispose, iface), "implementation")
	assert.True(t, c.IsAssignableTo(derivedType, disposable))
	assert.False(t, c.IsAssignableTo(disposable, derivedType))

	p := c.LookupType("P")
	require.NotNil(t, p)
	assert.Len(t, p.Declarations(), 2, "partial parts")
	read := testhelpers.Find[*syntax.MemberAccess](t, c, "this.a")
	assert.Equal(t, semantic.SymbolField, c.ResolveSymbol(read).Kind())
}

func TestFindMemberAndSuggest(t *testing.T) {
	c := testhelpers.Compile(t, `
public class Foo
{
    private int stream;

    public Foo()
    {
    }

    public int Read() => this.stream;
}`)

	assert.Len(t, c.FindMember("Foo.stream"), 1)
	assert.Len(t, c.FindMember("Foo.ctor"), 1)
	assert.Empty(t, c.FindMember("Foo.missing"))
	assert.Contains(t, c.Suggest("Foo.strem"), "Foo.stream")
}

func TestSymbolAccessors(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
using System.IO;
using System.Threading.Tasks;

public class Loader
{
    public Stream Current { get; set; }

    public async Task<int> LoadAsync(string path, params int[] rest)
    {
        return rest.Length;
    }
}`)

	disposable := c.LookupType("N.Disposable")
	require.NotNil(t, disposable)
	assert.True(t, disposable.IsSealed())

	members := c.FindMember("Loader.LoadAsync")
	require.Len(t, members, 1)
	load := members[0].(*semantic.MethodSymbol)
	assert.True(t, load.IsAsync())
	require.Len(t, load.Parameters(), 2)
	assert.Equal(t, 1, load.Parameters()[1].Ordinal())
	assert.True(t, load.Parameters()[1].IsParams())
	assert.False(t, load.Parameters()[0].IsParams())

	members = c.FindMember("Loader.Current")
	require.Len(t, members, 1)
	current := members[0].(*semantic.PropertySymbol)
	require.NotNil(t, current.GetMethod())
	assert.Same(t, current, current.GetMethod().AssociatedProperty())
	assert.False(t, current.GetMethod().IsAsync())
}

func TestResolveNeverPanicsOnBrokenInput(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public void M()
    {
        var x = Unknown.Call(missing);
        x.Dispose();
        var y = y;
    }
}`)
	for _, tree := range c.Trees() {
		syntax.Inspect(tree.Root, func(n syntax.Node) bool {
			assert.NotPanics(t, func() { c.ResolveSymbol(n) })
			if e, ok := n.(syntax.Expr); ok {
				assert.NotPanics(t, func() { c.TypeOf(e) })
			}
			return true
		})
	}
}
