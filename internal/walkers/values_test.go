package walkers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/testhelpers"
)

func TestParseSearchScope(t *testing.T) {
	tests := []struct {
		in      string
		want    SearchScope
		wantErr bool
	}{
		{"", Recursive, false},
		{"recursive", Recursive, false},
		{"Type", Type, false},
		{"top-level", TopLevel, false},
		{"toplevel", TopLevel, false},
		{"everywhere", Recursive, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSearchScope(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, must(ParseSearchScope(got.String())))
		})
	}
}

func must(s SearchScope, err error) SearchScope {
	if err != nil {
		panic(err)
	}
	return s
}

func TestValuesAddKeepsDiscoveryOrder(t *testing.T) {
	tree := testhelpers.Parse(t, "Values.cs", `
class C
{
    int M() => 1 + 2;
}`)
	lits := syntax.Collect[*syntax.Literal](tree.Root)
	require.Len(t, lits, 2)

	var v Values
	assert.True(t, v.Add(lits[1]))
	assert.True(t, v.Add(lits[0]))
	assert.False(t, v.Add(lits[1]), "same node twice")
	assert.False(t, v.Add(nil))
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"2", "1"}, testhelpers.Texts(v.Items()))

	items := v.Items()
	items[0] = nil
	assert.NotNil(t, v.Items()[0], "Items returns a copy")

	v.reset()
	assert.Zero(t, v.Len())
	assert.True(t, v.Add(lits[1]), "reset forgets seen nodes")
}

func TestPurgeDuplicatesComparesStructure(t *testing.T) {
	tree := testhelpers.Parse(t, "Purge.cs", `
class C
{
    object A() => new object();
    object B() => new  object( );
    object D() => new string('a', 1);
}`)
	creations := syntax.Collect[*syntax.ObjectCreation](tree.Root)
	require.Len(t, creations, 3)

	values := []syntax.Expr{creations[0], creations[1], creations[2], creations[0]}
	got := PurgeDuplicates(values)
	require.Len(t, got, 2)
	assert.Same(t, creations[0], got[0], "first discovery wins")
	assert.Same(t, creations[2], got[1])
	assert.Len(t, values, 4, "input is not modified")
}
