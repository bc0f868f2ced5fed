package walkers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/walkers"
	"github.com/standardbeagle/disposeflow/testhelpers"
)

func returnTexts(t *testing.T, e *walkers.Engine, n syntax.Node, scope walkers.SearchScope) []string {
	t.Helper()
	values, err := e.ReturnValues(context.Background(), n, scope)
	require.NoError(t, err)
	return testhelpers.Texts(values)
}

func TestReturnValuesAwaitUnwrapping(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    using System.Threading.Tasks;

    public class C
    {
        public async Task<Disposable> FromResultAsync()
        {
            return await Task.FromResult(new Disposable());
        }

        public async Task<Disposable> RunAsync()
        {
            return await Task.Run(() => new Disposable()).ConfigureAwait(false);
        }

        public Task<Disposable> NotAwaited() => Task.FromResult(new Disposable());
    }
}`)
	e := walkers.New(c)

	for _, scope := range []walkers.SearchScope{walkers.TopLevel, walkers.Recursive} {
		fromResult := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public async Task<Disposable> FromResultAsync()")
		assert.Equal(t, []string{"new Disposable()"}, returnTexts(t, e, fromResult, scope), scope.String())

		run := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public async Task<Disposable> RunAsync()")
		assert.Equal(t, []string{"new Disposable()"}, returnTexts(t, e, run, scope), scope.String())
	}

	notAwaited := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public Task<Disposable> NotAwaited()")
	assert.Equal(t, []string{"Task.FromResult(new Disposable())"}, returnTexts(t, e, notAwaited, walkers.Recursive))

	await := testhelpers.Find[*syntax.Await](t, c, "await Task.FromResult(new Disposable())")
	v, ok := e.SingleReturnValue(context.Background(), await)
	require.True(t, ok)
	assert.Equal(t, "new Disposable()", syntax.Text(v))
}

func TestReturnValuesExpandsCallsRecursively(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    using System.IO;

    public class C
    {
        public object Create(bool flag)
        {
            var local = flag ? Make() : Open("a");
            return local;
        }

        public Stream Existing { get; }

        private object Make() => new Disposable();

        private object Open(string path) => Wrap(File.OpenRead(path));

        private object Wrap(object inner) => inner ?? this.Existing;
    }
}`)
	e := walkers.New(c)
	create := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public object Create(bool flag)")

	assert.Equal(t,
		[]string{"new Disposable()", "File.OpenRead(path)", "this.Existing"},
		returnTexts(t, e, create, walkers.Recursive))
	assert.Equal(t,
		[]string{"Make()", `Open("a")`},
		returnTexts(t, e, create, walkers.TopLevel))
}

func TestReturnValuesParametersStayRawAtTheRoot(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public object Id(object value) => value;

    public object Choose(object a, object b) => a ?? (b as string);
}`)
	e := walkers.New(c)

	id := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public object Id")
	assert.Equal(t, []string{"value"}, returnTexts(t, e, id, walkers.Recursive))

	choose := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public object Choose")
	assert.Equal(t, []string{"a", "b"}, returnTexts(t, e, choose, walkers.Recursive))
}

func TestReturnValuesRecursionTerminates(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C<T>
{
    public T M(out T r)
    {
        r = default(T);
        return M(out r);
    }

    public int Count(int n) => n > 0 ? Count(n - 1) : 0;
}`)
	e := walkers.New(c)
	m := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public T M(out T r)")
	count := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public int Count")

	assert.Equal(t, []string{"M(out r)"}, returnTexts(t, e, m, walkers.Recursive),
		"the recursive call stays as its own placeholder and r is an out value, not a return")
	assert.Equal(t, []string{"0"}, returnTexts(t, e, count, walkers.Recursive))

	r := c.DeclaredSymbol(m.Params[0])
	values, err := e.AssignedValues(context.Background(), r, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"default(T)"}, testhelpers.Texts(values))
}

func TestReturnValuesGetterAndLambda(t *testing.T) {
	c := testhelpers.Compile(t, disposableSource, `
namespace N
{
    using System;

    public class C
    {
        private readonly Disposable disposable = new Disposable();

        public Disposable Current
        {
            get
            {
                return this.disposable;
            }
        }

        public Disposable Get() => this.Current;

        public Func<Disposable> Factory() => () => new Disposable();
    }
}`)
	e := walkers.New(c)

	get := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public Disposable Get()")
	assert.Equal(t, []string{"this.disposable"}, returnTexts(t, e, get, walkers.Recursive))
	assert.Equal(t, []string{"this.Current"}, returnTexts(t, e, get, walkers.TopLevel))

	factory := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public Func<Disposable> Factory()")
	assert.Equal(t, []string{"() => new Disposable()"}, returnTexts(t, e, factory, walkers.Recursive))

	lambda := testhelpers.Find[*syntax.Lambda](t, c, "() => new Disposable()")
	v, ok := e.SingleReturnValue(context.Background(), lambda)
	require.True(t, ok)
	assert.Equal(t, "new Disposable()", syntax.Text(v))
}

func TestReturnValuesReleasesWalkers(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public object A() => B();
    private object B() => C1();
    private object C1() => new object();
}`)
	arena := walkers.NewArena(8, true)
	e := walkers.New(c, walkers.WithArena(arena))
	a := testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public object A()")

	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"new object()"}, returnTexts(t, e, a, walkers.Recursive))
	}
	stats := arena.Stats()
	assert.Equal(t, int64(3), stats.Allocations, "root and two children, reused afterwards")
	assert.Equal(t, 3, stats.Idle)
}

func TestReturnValuesCancelled(t *testing.T) {
	c := testhelpers.Compile(t, `
public class C
{
    public object A() => new object();
}`)
	e := walkers.New(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	values, err := e.ReturnValues(ctx, testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public object A()"), walkers.Recursive)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, values)

	_, ok := e.SingleReturnValue(ctx, testhelpers.FindPrefix[*syntax.MethodDecl](t, c, "public object A()"))
	assert.False(t, ok)
}
