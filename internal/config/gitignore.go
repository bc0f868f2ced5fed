package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser reads a root .gitignore and matches paths against it
type GitignoreParser struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool // trailing slash: matches directories only
	Absolute  bool // contains a slash: anchored at the root

	glob string
}

func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads patterns from rootPath/.gitignore. A missing file is
// not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	return gp.Read(file)
}

// Read adds every pattern line of r
func (gp *GitignoreParser) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		gp.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern adds one .gitignore line; blank lines and comments are skipped
func (gp *GitignoreParser) AddPattern(line string) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	p := GitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\`) {
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") {
		p.Absolute = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return
	}
	p.Pattern = line
	if p.Absolute {
		p.glob = line
	} else {
		p.glob = "**/" + line
	}
	gp.patterns = append(gp.patterns, p)
}

// ShouldIgnore reports whether the slash-separated path relative to the root
// is ignored. The last matching pattern wins, so negations re-include.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	ignored := false
	for _, p := range gp.patterns {
		if p.matches(path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (p GitignorePattern) matches(path string, isDir bool) bool {
	if ok, _ := doublestar.Match(p.glob, path); ok && (isDir || !p.Directory) {
		return true
	}
	// anything inside an ignored directory
	if ok, _ := doublestar.Match(p.glob+"/**", path); ok {
		return true
	}
	return false
}

// GetExclusionPatterns returns the non-negated patterns as exclusion globs
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, p := range gp.patterns {
		if p.Negate {
			continue
		}
		if p.Directory {
			exclusions = append(exclusions, p.glob+"/**")
			continue
		}
		exclusions = append(exclusions, p.glob, p.glob+"/**")
	}
	return exclusions
}
