package indexing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/disposeflow/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("class C {}\n"), 0644))
	}
	return root
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFileScannerScan(t *testing.T) {
	root := writeTree(t,
		"Program.cs",
		"src/Shop/Cart.cs",
		"src/Shop/Cart.g.cs",
		"src/Shop/bin/Debug/Copy.cs",
		"src/Shop/obj/Gen.cs",
		"src/.vs/State.cs",
		"legacy/Old.cs",
		"README.md",
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("legacy/\n"), 0644))

	s := NewFileScanner(config.Default(root))
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Program.cs", "src/Shop/Cart.cs"}, relAll(t, root, files))
}

func TestFileScannerGitignoreDisabled(t *testing.T) {
	root := writeTree(t, "legacy/Old.cs")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("legacy/\n"), 0644))

	cfg := config.Default(root)
	cfg.Analysis.RespectGitignore = false
	files, err := NewFileScanner(cfg).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy/Old.cs"}, relAll(t, root, files))
}

func TestFileScannerInclude(t *testing.T) {
	root := writeTree(t, "src/A.cs", "tests/ATests.cs")
	cfg := config.Default(root)
	cfg.Include = []string{"src/**/*.cs"}

	files, err := NewFileScanner(cfg).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/A.cs"}, relAll(t, root, files))
}

func TestFileScannerScanPaths(t *testing.T) {
	root := writeTree(t, "src/A.cs", "src/B.cs", "tests/T.cs", "notes.txt")
	s := NewFileScanner(config.Default(root))

	files, err := s.ScanPaths(context.Background(), []string{
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "A.cs"),
		filepath.Join(root, "tests", "T.cs"),
		filepath.Join(root, "notes.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/A.cs", "src/B.cs", "tests/T.cs"}, relAll(t, root, files))

	_, err = s.ScanPaths(context.Background(), []string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}

func TestFileScannerCancelled(t *testing.T) {
	root := writeTree(t, "A.cs", "sub/B.cs")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileScanner(config.Default(root)).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileScannerShouldSkipDir(t *testing.T) {
	root := t.TempDir()
	s := NewFileScanner(config.Default(root))

	assert.True(t, s.ShouldSkipDir(filepath.Join(root, "bin")))
	assert.True(t, s.ShouldSkipDir(filepath.Join(root, "src", "obj")))
	assert.True(t, s.ShouldSkipDir(filepath.Join(root, ".git")))
	assert.False(t, s.ShouldSkipDir(filepath.Join(root, "src")))
	assert.False(t, s.ShouldSkipDir(filepath.Join(root, "binary")))
}
