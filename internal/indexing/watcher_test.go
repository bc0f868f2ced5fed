package indexing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/config"
)

func startWatcher(t *testing.T, root string) (*FileWatcher, <-chan Batch) {
	t.Helper()
	batches := make(chan Batch, 16)
	fw, err := NewFileWatcher(NewFileScanner(config.Default(root)), 50*time.Millisecond, func(ctx context.Context, b Batch) {
		batches <- b
	})
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	t.Cleanup(func() { assert.NoError(t, fw.Stop()) })
	return fw, batches
}

func waitBatch(t *testing.T, batches <-chan Batch) Batch {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
		return nil
	}
}

func TestFileWatcherDebouncesWrites(t *testing.T) {
	root := writeTree(t, "A.cs")
	fw, batches := startWatcher(t, root)

	a := filepath.Join(root, "A.cs")
	b := filepath.Join(root, "B.cs")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(a, []byte("class A { }\n"), 0644))
	}
	require.NoError(t, os.WriteFile(b, []byte("class B { }\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	batch := waitBatch(t, batches)
	assert.Equal(t, []string{a, b}, batch.Paths())
	assert.Equal(t, FileEventWrite, batch[a])

	stats := fw.Stats()
	assert.Equal(t, int64(1), stats.Batches)
	assert.GreaterOrEqual(t, stats.EventsProcessed, int64(4))
}

func TestFileWatcherRemove(t *testing.T) {
	root := writeTree(t, "A.cs")
	_, batches := startWatcher(t, root)

	a := filepath.Join(root, "A.cs")
	require.NoError(t, os.Remove(a))

	batch := waitBatch(t, batches)
	assert.Equal(t, FileEventRemove, batch[a])
}

func TestFileWatcherIgnoresExcludedDirs(t *testing.T) {
	root := writeTree(t, "A.cs", "bin/Out.cs")
	_, batches := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "Out.cs"), []byte("class O {}"), 0644))
	a := filepath.Join(root, "A.cs")
	require.NoError(t, os.WriteFile(a, []byte("class A {}"), 0644))

	batch := waitBatch(t, batches)
	assert.Equal(t, []string{a}, batch.Paths())
}

func TestFileWatcherWatchesNewDirectories(t *testing.T) {
	root := writeTree(t, "A.cs")
	_, batches := startWatcher(t, root)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	file := filepath.Join(sub, "New.cs")

	// the watch on sub is added asynchronously; keep writing until seen
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		require.NoError(t, os.WriteFile(file, []byte("class N {}"), 0644))
		select {
		case b := <-batches:
			if _, ok := b[file]; ok {
				return
			}
		case <-deadline:
			t.Fatal("write in new directory not seen")
		case <-tick.C:
		}
	}
}

func TestFileEventTypeString(t *testing.T) {
	assert.Equal(t, "create", FileEventCreate.String())
	assert.Equal(t, "remove", FileEventRemove.String())
	assert.Equal(t, "FileEventType(9)", FileEventType(9).String())
}
