// Package parser turns C# source into syntax trees.
//
// Parsing is done by tree-sitter; the concrete syntax tree is lowered into the
// typed nodes of internal/syntax and the tree-sitter tree is freed before Parse
// returns, so callers never hold CGO memory.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/errors"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Parser wraps a tree-sitter parser configured for C#.
// A Parser is not safe for concurrent use; use Parse for pooled access.
type Parser struct {
	ts *tree_sitter.Parser
}

// NewParser creates a C# parser. Call Close when done.
func NewParser() (*Parser, error) {
	ts := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_csharp.Language())
	if err := ts.SetLanguage(language); err != nil {
		ts.Close()
		return nil, fmt.Errorf("failed to load C# grammar: %w", err)
	}
	return &Parser{ts: ts}, nil
}

// Close releases the underlying tree-sitter parser
func (p *Parser) Close() {
	if p != nil && p.ts != nil {
		p.ts.Close()
		p.ts = nil
	}
}

// parserPool holds ready C# parsers for parallel parsing
var (
	parserPool     sync.Pool
	parserPoolOnce sync.Once
)

// getParser returns a parser from the pool
func getParser() (*Parser, error) {
	parserPoolOnce.Do(func() {
		parserPool.New = func() any {
			p, err := NewParser()
			if err != nil {
				debug.Log(debug.ComponentParser, "failed to create parser: %v\n", err)
				return nil
			}
			return p
		}
	})
	p, _ := parserPool.Get().(*Parser)
	if p == nil {
		return NewParser()
	}
	return p, nil
}

// releaseParser returns a parser to the pool for reuse
func releaseParser(p *Parser) {
	if p != nil && p.ts != nil {
		parserPool.Put(p)
	}
}

// Parse parses one file with a pooled parser. See (*Parser).Parse.
func Parse(ctx context.Context, path string, content []byte) (*syntax.Tree, error) {
	p, err := getParser()
	if err != nil {
		return nil, err
	}
	defer releaseParser(p)
	return p.Parse(ctx, path, content)
}

// Parse parses C# source into a syntax tree.
//
// Like go/parser, a tree is returned even when the source contains syntax
// errors: erroneous regions become Unknown nodes and the returned error is an
// *errors.ParseError describing the first one. A nil tree means the file could
// not be parsed at all.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !IsCSharpFile(path) {
		return nil, errors.NewFileError("parse", path, errors.ErrUnsupportedLanguage)
	}

	tsTree := p.ts.Parse(content, nil)
	if tsTree == nil {
		return nil, errors.NewParseError(path, 0, 0, "", fmt.Errorf("parser returned no tree"))
	}
	defer tsTree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree := &syntax.Tree{
		Path:      path,
		Source:    content,
		Generated: IsGenerated(path, content),
	}
	l := newLowerer(content)
	tree.Root = l.compilationUnit(tsTree.RootNode())
	syntax.Finish(tree)

	if l.firstError != nil {
		tree.HasErrors = true
		debug.Log(debug.ComponentParser, "%s has syntax errors: %v\n", path, l.firstError)
		return tree, errors.NewParseError(path, l.firstError.line, l.firstError.column, l.firstError.token, fmt.Errorf("syntax error"))
	}
	return tree, nil
}

// IsCSharpFile reports whether path names a C# source file
func IsCSharpFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cs")
}
