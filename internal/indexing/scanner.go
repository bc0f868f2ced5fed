// Package indexing discovers the C# files of a project and watches them for
// changes.
package indexing

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/disposeflow/internal/config"
	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/parser"
	"github.com/standardbeagle/disposeflow/pkg/pathutil"
)

// FileScanner selects source files under a root with doublestar include and
// exclude patterns matched against slash-separated paths relative to the root
type FileScanner struct {
	root            string
	include         []string
	exclude         []string
	gitignoreParser *config.GitignoreParser
}

// NewFileScanner creates a scanner for the project configuration
func NewFileScanner(cfg *config.Config) *FileScanner {
	s := &FileScanner{
		root:    cfg.Project.Root,
		include: slices.Clone(cfg.Include),
		exclude: slices.Clone(cfg.Exclude),
	}
	if cfg.Analysis.RespectGitignore {
		gp := config.NewGitignoreParser()
		if err := gp.LoadGitignore(cfg.Project.Root); err == nil {
			s.gitignoreParser = gp
		} else {
			debug.LogIndexing("ignoring unreadable .gitignore: %v\n", err)
		}
	}
	return s
}

// Root returns the absolute directory patterns are relative to
func (s *FileScanner) Root() string { return s.root }

// Scan walks the root and returns the matching files, sorted
func (s *FileScanner) Scan(ctx context.Context) ([]string, error) {
	return s.ScanPaths(ctx, []string{s.root})
}

// ScanPaths expands each path: directories are walked with the patterns,
// files are taken as given when they are C# sources. The result is sorted and
// free of duplicates.
func (s *FileScanner) ScanPaths(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if parser.IsCSharpFile(abs) {
				files = append(files, abs)
			}
			continue
		}
		found, err := s.walk(ctx, abs)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	slices.Sort(files)
	files = slices.Compact(files)
	debug.LogIndexing("scan found %d files under %v\n", len(files), paths)
	return files, nil
}

func (s *FileScanner) walk(ctx context.Context, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the walk goes on
			debug.LogIndexing("skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && s.ShouldSkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if s.ShouldProcess(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ShouldProcess reports whether the file at path is selected
func (s *FileScanner) ShouldProcess(path string) bool {
	if !parser.IsCSharpFile(path) {
		return false
	}
	rel := s.relative(path)
	if s.excluded(rel, false) {
		return false
	}
	if len(s.include) == 0 {
		return true
	}
	for _, pattern := range s.include {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// ShouldSkipDir reports whether nothing under the directory can be selected
func (s *FileScanner) ShouldSkipDir(path string) bool {
	return s.excluded(s.relative(path), true)
}

func (s *FileScanner) excluded(rel string, isDir bool) bool {
	for _, pattern := range s.exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		// "**/bin/**" also names the directory itself
		if isDir {
			if dirPattern, ok := strings.CutSuffix(pattern, "/**"); ok {
				if matched, _ := doublestar.Match(dirPattern, rel); matched {
					return true
				}
			}
		}
	}
	return s.gitignoreParser != nil && s.gitignoreParser.ShouldIgnore(rel, isDir)
}

// relative returns path relative to the root with forward slashes; paths
// outside the root are matched as given
func (s *FileScanner) relative(path string) string {
	return filepath.ToSlash(pathutil.ToRelative(path, s.root))
}
