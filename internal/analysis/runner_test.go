package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/disposeflow/internal/disposal"
	dferrors "github.com/standardbeagle/disposeflow/internal/errors"
	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/internal/walkers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const leakSource = `using System.IO;

public class Reader
{
    public string Read(string path)
    {
        var stream = File.OpenRead(path);
        return path;
    }
}
`

const factorySource = `using System.IO;

public class Factory
{
    private Stream current;

    public Stream Create(bool memory)
    {
        if (memory)
        {
            return new MemoryStream();
        }
        return File.OpenRead("a");
    }

    public void Swap(Stream next)
    {
        this.current = next;
        var local = this.Create(true);
        local.Dispose();
    }
}
`

const generatedSource = `// <auto-generated/>
using System.IO;

public class Generated
{
    public void M()
    {
        var s = File.OpenRead("x");
    }
}
`

func writeFiles(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	root := t.TempDir()
	var paths []string
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		paths = append(paths, path)
	}
	return root, paths
}

func newRunner(root string, opts ...disposal.Option) *Runner {
	return NewRunner(Options{
		Root:          root,
		Workers:       2,
		Scope:         walkers.Recursive,
		SkipGenerated: true,
		Checker:       opts,
	})
}

func TestRunnerReportsDiagnostics(t *testing.T) {
	root, files := writeFiles(t, map[string]string{
		"Reader.cs":         leakSource,
		"src/Factory.cs":    factorySource,
		"Generated.g.cs":    generatedSource,
		"obj/Marked.cs":     generatedSource,
		"Broken.cs":         "public class Broken { void M( { }",
		"NotThere/Ghost.cs": "",
	})
	require.NoError(t, os.Remove(filepath.Join(root, "NotThere", "Ghost.cs")))

	report, err := newRunner(root).Run(context.Background(), files)
	require.NoError(t, err)

	var rules []string
	for _, d := range report.Diagnostics {
		rules = append(rules, d.Rule)
	}
	assert.Equal(t, []string{"IDISP001"}, rules, "%v", report.Diagnostics)
	assert.Equal(t, filepath.Join(root, "Reader.cs"), report.Diagnostics[0].Location.Path)
	assert.Equal(t, 7, report.Diagnostics[0].Location.Line)

	assert.Equal(t, 2, report.Skipped, "generated files are bound but not checked")
	assert.Equal(t, 3, report.Files)
	require.Len(t, report.Errors, 2, "%v", report.Errors)
	assert.Equal(t, filepath.Join(root, "Broken.cs"), report.Errors[0].Path)
	assert.Equal(t, filepath.Join(root, "NotThere", "Ghost.cs"), report.Errors[1].Path)
	assert.Equal(t, root, report.Root)
}

func TestRunnerCachesUnchangedTrees(t *testing.T) {
	root, files := writeFiles(t, map[string]string{
		"Reader.cs":  leakSource,
		"Factory.cs": factorySource,
	})
	r := newRunner(root)

	_, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	hits, misses := r.CacheStats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(2), misses)

	fixed := `using System.IO;

public class Reader
{
    public string Read(string path)
    {
        using var stream = File.OpenRead(path);
        return path;
    }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "Reader.cs"), []byte(fixed), 0644))

	report, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)
	hits, misses = r.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(3), misses)

	_, err = r.Run(context.Background(), files[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, r.cache.Len(), "removed files leave the cache")
}

func TestRunnerCheckerOptions(t *testing.T) {
	root, files := writeFiles(t, map[string]string{"Reader.cs": leakSource})

	report, err := newRunner(root, disposal.WithSeverity("IDISP001", types.SeverityError)).Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.True(t, report.HasErrors())

	report, err = newRunner(root, disposal.WithDisabled("IDISP001")).Run(context.Background(), files)
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)
}

func TestRunnerMaxFileSize(t *testing.T) {
	root, files := writeFiles(t, map[string]string{"Reader.cs": leakSource})
	r := NewRunner(Options{Root: root, Scope: walkers.Recursive, MaxFileSize: 16})

	report, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Diagnostics)
}

func TestRunnerCancelled(t *testing.T) {
	root, files := writeFiles(t, map[string]string{"Reader.cs": leakSource})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(root).Run(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotQueries(t *testing.T) {
	root, files := writeFiles(t, map[string]string{"Factory.cs": factorySource})
	r := newRunner(root)
	assert.Nil(t, r.Last())

	_, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	snap := r.Last()
	require.NotNil(t, snap)
	ctx := context.Background()

	returns, err := snap.ReturnValues(ctx, "Factory.Create")
	require.NoError(t, err)
	assert.Equal(t, types.QueryReturn, returns.Kind)
	assert.Equal(t, "Factory.Create", returns.Symbol)
	require.Len(t, returns.Values, 2)
	assert.Equal(t, "new MemoryStream()", returns.Values[0].Expr)
	assert.Equal(t, `File.OpenRead("a")`, returns.Values[1].Expr)
	assert.Equal(t, 11, returns.Values[0].Location.Line)

	assigned, err := snap.AssignedValues(ctx, "Factory.current", "")
	require.NoError(t, err)
	require.Len(t, assigned.Values, 1)
	assert.Equal(t, "next", assigned.Values[0].Expr)

	local, err := snap.AssignedValues(ctx, "local", "Factory.cs:20")
	require.NoError(t, err)
	require.Len(t, local.Values, 1)
	assert.Equal(t, "this.Create(true)", local.Values[0].Expr)
	assert.Equal(t, "Factory.cs:20", local.At)

	_, err = snap.ReturnValues(ctx, "Factory.Creat")
	var qerr *dferrors.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.ErrorIs(t, err, dferrors.ErrSymbolNotFound)
	assert.Contains(t, qerr.Suggestions, "Factory.Create")

	_, err = snap.AssignedValues(ctx, "local", "Missing.cs:3")
	assert.Error(t, err)
}
