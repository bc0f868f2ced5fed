// Package analysis runs the disposal rules over a set of C# files.
//
// A Runner parses files in parallel, binds them into one compilation and
// checks every hand-written file against it. Parsed trees are cached by
// content hash so watch-mode reruns only reparse edited files.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/disposal"
	dferrors "github.com/standardbeagle/disposeflow/internal/errors"
	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/internal/walkers"
)

// Options configures a Runner. Scope is used as given, so the zero value
// walks at TopLevel; callers normally pass walkers.Recursive.
type Options struct {
	Root           string // reported as Report.Root
	Workers        int    // <= 0 uses NumCPU
	Scope          walkers.SearchScope
	MaxIdleWalkers int
	DebugPool      bool
	SkipGenerated  bool
	MaxFileSize    int64 // 0 = unlimited
	Checker        []disposal.Option
}

// Runner analyses file sets. It is safe for concurrent use, but runs are
// serialized.
type Runner struct {
	opts  Options
	arena *walkers.Arena
	cache *TreeCache

	runMu sync.Mutex
	mu    sync.RWMutex
	last  *Snapshot
}

// Snapshot is the compilation of a finished run, kept for value queries
type Snapshot struct {
	Compilation *semantic.Compilation
	Engine      *walkers.Engine
	Checker     *disposal.Checker
}

func NewRunner(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Runner{
		opts:  opts,
		arena: walkers.NewArena(opts.MaxIdleWalkers, opts.DebugPool),
		cache: NewTreeCache(),
	}
}

// parsed is one file's outcome
type parsed struct {
	tree    *syntax.Tree
	skipped bool
	err     error
}

// Run parses files, binds them and checks each non-generated file. File read
// and syntax errors are recorded in the report; only cancellation fails the
// run.
func (r *Runner) Run(ctx context.Context, files []string) (*types.Report, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := time.Now()
	results, err := r.parseAll(ctx, files)
	if err != nil {
		return nil, err
	}

	report := &types.Report{Root: r.opts.Root}
	var trees []*syntax.Tree
	for i, res := range results {
		if res.err != nil {
			report.Errors = append(report.Errors, types.FileError{Path: files[i], Message: fileErrorMessage(res.err)})
		}
		switch {
		case res.skipped:
			report.Skipped++
		case res.tree != nil:
			trees = append(trees, res.tree)
		}
	}
	r.cache.Retain(files)

	snap := r.bind(trees)
	diags, err := r.checkAll(ctx, snap.Checker, trees, report)
	if err != nil {
		return nil, err
	}
	report.Diagnostics = diags
	report.Sort()
	report.Duration = time.Since(start)

	r.mu.Lock()
	r.last = snap
	r.mu.Unlock()

	debug.LogAnalysis("run: %d files, %d skipped, %d diagnostics, %d errors in %v\n",
		report.Files, report.Skipped, len(report.Diagnostics), len(report.Errors), report.Duration)
	return report, nil
}

// Last returns the compilation of the latest completed run, nil before the
// first
func (r *Runner) Last() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// CacheStats reports tree cache hits and misses since the Runner was created
func (r *Runner) CacheStats() (hits, misses int64) {
	return r.cache.Stats()
}

func (r *Runner) parseAll(ctx context.Context, files []string) ([]parsed, error) {
	results := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.parseOne(gctx, path)
			if errors.Is(results[i].err, context.Canceled) || errors.Is(results[i].err, context.DeadlineExceeded) {
				return results[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) parseOne(ctx context.Context, path string) parsed {
	info, err := os.Stat(path)
	if err != nil {
		return parsed{err: dferrors.NewFileError("stat", path, err)}
	}
	if r.opts.MaxFileSize > 0 && info.Size() > r.opts.MaxFileSize {
		debug.LogAnalysis("skipping %s: %d bytes exceeds limit\n", path, info.Size())
		return parsed{skipped: true}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return parsed{err: dferrors.NewFileError("read", path, err)}
	}
	if isBinary(content) {
		debug.LogAnalysis("skipping %s: binary content\n", path)
		return parsed{skipped: true}
	}
	tree, err := r.cache.Parse(ctx, path, content)
	if tree == nil {
		if err == nil {
			err = fmt.Errorf("%s: no syntax tree", path)
		}
		return parsed{err: err}
	}
	// syntax errors are reported while the partial tree is still analysed
	return parsed{tree: tree, err: err}
}

// fileErrorMessage drops the path from err since reports already carry it
func fileErrorMessage(err error) string {
	var perr *dferrors.ParseError
	if errors.As(err, &perr) {
		if perr.Token != "" {
			return fmt.Sprintf("%d:%d: %v near %q", perr.Line, perr.Column, perr.Underlying, perr.Token)
		}
		return fmt.Sprintf("%d:%d: %v", perr.Line, perr.Column, perr.Underlying)
	}
	var ferr *dferrors.FileError
	if errors.As(err, &ferr) {
		return fmt.Sprintf("%s failed: %v", ferr.Operation, ferr.Underlying)
	}
	return err.Error()
}

func (r *Runner) bind(trees []*syntax.Tree) *Snapshot {
	c := semantic.NewCompilation(trees...)
	engine := walkers.New(c, walkers.WithArena(r.arena), walkers.WithScope(r.opts.Scope))
	return &Snapshot{
		Compilation: c,
		Engine:      engine,
		Checker:     disposal.NewChecker(engine, r.opts.Checker...),
	}
}

// checkAll checks trees in parallel. Per-file diagnostics are concatenated in
// tree order before the report is sorted.
func (r *Runner) checkAll(ctx context.Context, checker *disposal.Checker, trees []*syntax.Tree, report *types.Report) ([]types.Diagnostic, error) {
	perFile := make([][]types.Diagnostic, len(trees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, tree := range trees {
		if r.opts.SkipGenerated && tree.Generated {
			report.Skipped++
			continue
		}
		report.Files++
		g.Go(func() error {
			diags, err := checker.CheckTree(gctx, tree)
			if err != nil {
				return fmt.Errorf("checking %s: %w", tree.Path, err)
			}
			perFile[i] = diags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []types.Diagnostic
	for _, diags := range perFile {
		all = append(all, diags...)
	}
	return all, nil
}
