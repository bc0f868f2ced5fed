package indexing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/disposeflow/internal/debug"
)

// FileEventType represents the type of file system event
type FileEventType int

const (
	FileEventCreate FileEventType = iota
	FileEventWrite
	FileEventRemove
	FileEventRename
)

func (t FileEventType) String() string {
	switch t {
	case FileEventCreate:
		return "create"
	case FileEventWrite:
		return "write"
	case FileEventRemove:
		return "remove"
	case FileEventRename:
		return "rename"
	}
	return fmt.Sprintf("FileEventType(%d)", int(t))
}

// Batch is the set of files that changed during one debounce window, with the
// last event seen for each
type Batch map[string]FileEventType

// Paths returns the changed paths, sorted
func (b Batch) Paths() []string {
	out := make([]string, 0, len(b))
	for p := range b {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FileWatcher monitors a directory tree and reports debounced batches of
// changed source files
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	scanner  *FileScanner
	debounce time.Duration
	onBatch  func(ctx context.Context, batch Batch)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu         sync.RWMutex
	eventsProcessed int64
	batches         int64
	errorCount      int64
}

// NewFileWatcher creates a watcher. onBatch runs on the watcher goroutine,
// so batches never overlap; the context passed to it is cancelled by Stop.
func NewFileWatcher(scanner *FileScanner, debounce time.Duration, onBatch func(ctx context.Context, batch Batch)) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FileWatcher{
		watcher:  watcher,
		scanner:  scanner,
		debounce: debounce,
		onBatch:  onBatch,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start adds watches for every directory under the scanner root that is not
// excluded and begins processing events
func (fw *FileWatcher) Start() error {
	root := fw.scanner.Root()
	debug.LogIndexing("starting file watcher for %s\n", root)
	if err := fw.addWatches(root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
	}
	fw.wg.Add(1)
	go fw.processEvents()
	return nil
}

// Stop stops the watcher and waits for a running batch to return. Pending
// events are dropped.
func (fw *FileWatcher) Stop() error {
	fw.cancel()
	err := fw.watcher.Close()
	fw.wg.Wait()
	debug.LogIndexing("file watcher stopped\n")
	return err
}

// WatchStats are counters since Start
type WatchStats struct {
	EventsProcessed int64
	Batches         int64
	Errors          int64
}

func (fw *FileWatcher) Stats() WatchStats {
	fw.statsMu.RLock()
	defer fw.statsMu.RUnlock()
	return WatchStats{EventsProcessed: fw.eventsProcessed, Batches: fw.batches, Errors: fw.errorCount}
}

// addWatches recursively adds watches, skipping excluded directories and
// symlink cycles
func (fw *FileWatcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil || visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true
		if path != root && fw.scanner.ShouldSkipDir(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			debug.LogIndexing("failed to watch %s: %v\n", path, err)
		}
		return nil
	})
}

// processEvents collects events until the debounce window closes with no
// further events, then hands the batch to onBatch
func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	pending := make(Batch)
	timer := time.NewTimer(fw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.handleEvent(event, pending) {
				timer.Reset(fw.debounce)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.statsMu.Lock()
			fw.errorCount++
			fw.statsMu.Unlock()
			debug.LogIndexing("file watcher error: %v\n", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := pending
			pending = make(Batch)
			fw.statsMu.Lock()
			fw.batches++
			fw.statsMu.Unlock()
			debug.LogIndexing("processing %d debounced file events\n", len(batch))
			fw.onBatch(fw.ctx, batch)
		}
	}
}

// handleEvent records event in pending and reports whether it was relevant
func (fw *FileWatcher) handleEvent(event fsnotify.Event, pending Batch) bool {
	path := event.Name
	fw.statsMu.Lock()
	fw.eventsProcessed++
	fw.statsMu.Unlock()

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) && !fw.scanner.ShouldSkipDir(path) {
			if err := fw.addWatches(path); err != nil {
				debug.LogIndexing("failed to watch new directory %s: %v\n", path, err)
			}
		}
		return false
	}
	if !fw.scanner.ShouldProcess(path) {
		return false
	}

	var eventType FileEventType
	switch {
	case event.Has(fsnotify.Remove), err != nil:
		eventType = FileEventRemove
	case event.Has(fsnotify.Rename):
		eventType = FileEventRename
	case event.Has(fsnotify.Create):
		eventType = FileEventCreate
	case event.Has(fsnotify.Write):
		eventType = FileEventWrite
	default:
		return false
	}
	debug.LogIndexing("%s %s\n", eventType, path)
	pending[path] = eventType
	return true
}
