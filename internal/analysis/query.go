package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	dferrors "github.com/standardbeagle/disposeflow/internal/errors"
	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/types"
)

// AssignedValues answers "what may symbol hold". symbol is "Type.member", or
// a local or parameter name when at is given. at is "path:line"; when set,
// only values assigned before the statement starting on that line count.
func (s *Snapshot) AssignedValues(ctx context.Context, symbol, at string) (*types.ValueReport, error) {
	var site syntax.Node
	var sym semantic.Symbol
	if at != "" {
		tree, line, err := s.position(at)
		if err != nil {
			return nil, err
		}
		site = statementAt(tree, line)
		if site == nil {
			return nil, dferrors.NewQueryError(at, fmt.Errorf("no statement starts on line %d", line))
		}
		if !strings.Contains(symbol, ".") {
			if sym = s.symbolAt(tree, line, symbol); sym == nil {
				sym = s.symbolInScope(site, symbol)
			}
		}
	}
	if sym == nil {
		found, err := s.member(symbol)
		if err != nil {
			return nil, err
		}
		sym = found
	}

	values, err := s.Engine.AssignedValues(ctx, sym, site)
	if err != nil {
		return nil, err
	}
	return &types.ValueReport{
		Kind:   types.QueryAssigned,
		Query:  symbol,
		Symbol: sym.String(),
		At:     at,
		Scope:  s.Engine.Scope().String(),
		Values: valuesOf(values),
	}, nil
}

// ReturnValues answers "what may method return" for "Type.Method" or a
// property "Type.Property"
func (s *Snapshot) ReturnValues(ctx context.Context, method string) (*types.ValueReport, error) {
	sym, err := s.member(method)
	if err != nil {
		return nil, err
	}
	var decl syntax.Node
	switch m := sym.(type) {
	case *semantic.MethodSymbol, *semantic.PropertySymbol:
		if decls := m.Declarations(); len(decls) > 0 {
			decl = decls[0]
		}
	}
	if decl == nil {
		return nil, dferrors.NewQueryError(method, dferrors.ErrNotAnalyzable)
	}
	values, err := s.Engine.ReturnValues(ctx, decl, s.Engine.Scope())
	if err != nil {
		return nil, err
	}
	return &types.ValueReport{
		Kind:   types.QueryReturn,
		Query:  method,
		Symbol: sym.String(),
		Scope:  s.Engine.Scope().String(),
		Values: valuesOf(values),
	}, nil
}

// member resolves a "Type.member" query, preferring fields and properties
// over overloads of the same name
func (s *Snapshot) member(query string) (semantic.Symbol, error) {
	found := s.Compilation.FindMember(query)
	if len(found) == 0 {
		return nil, dferrors.NewQueryError(query, dferrors.ErrSymbolNotFound).
			WithSuggestions(s.Compilation.Suggest(query))
	}
	for _, m := range found {
		switch m.(type) {
		case *semantic.FieldSymbol, *semantic.PropertySymbol:
			return m, nil
		}
	}
	return found[0], nil
}

// position parses "path:line" and finds the tree. The path may be a suffix of
// the tree path.
func (s *Snapshot) position(at string) (*syntax.Tree, int, error) {
	i := strings.LastIndexByte(at, ':')
	if i <= 0 {
		return nil, 0, dferrors.NewQueryError(at, fmt.Errorf("expected path:line"))
	}
	line, err := strconv.Atoi(at[i+1:])
	if err != nil || line < 1 {
		return nil, 0, dferrors.NewQueryError(at, fmt.Errorf("invalid line %q", at[i+1:]))
	}
	want := filepath.ToSlash(filepath.Clean(at[:i]))
	for _, tree := range s.Compilation.Trees() {
		got := filepath.ToSlash(filepath.Clean(tree.Path))
		if got == want || strings.HasSuffix(got, "/"+want) {
			return tree, line, nil
		}
	}
	return nil, 0, dferrors.NewQueryError(at, fmt.Errorf("file %s is not part of the analysis", at[:i]))
}

// statementAt returns the outermost statement other than a block that starts
// on line
func statementAt(tree *syntax.Tree, line int) syntax.Node {
	var found syntax.Node
	syntax.Inspect(tree.Root, func(n syntax.Node) bool {
		if found != nil {
			return false
		}
		sp := n.Span()
		if sp.EndLine < line || sp.StartLine > line {
			return false
		}
		if _, isBlock := n.(*syntax.Block); !isBlock && sp.StartLine == line {
			if _, ok := n.(syntax.Stmt); ok {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// symbolAt finds a local, parameter or referenced name on line
func (s *Snapshot) symbolAt(tree *syntax.Tree, line int, name string) semantic.Symbol {
	var found semantic.Symbol
	syntax.Inspect(tree.Root, func(n syntax.Node) bool {
		if found != nil {
			return false
		}
		sp := n.Span()
		if sp.EndLine < line || sp.StartLine > line {
			return false
		}
		switch n := n.(type) {
		case *syntax.VariableDeclarator:
			if n.Name == name && n.NameSpan.StartLine == line {
				found = s.Compilation.DeclaredSymbol(n)
			}
		case *syntax.Parameter:
			if n.Name == name && sp.StartLine == line {
				found = s.Compilation.DeclaredSymbol(n)
			}
		case *syntax.Identifier:
			if n.Name == name && sp.StartLine == line {
				found = s.Compilation.ResolveSymbol(n)
			}
		}
		return found == nil
	})
	return found
}

// symbolInScope finds a local or parameter named name declared in the
// function enclosing site
func (s *Snapshot) symbolInScope(site syntax.Node, name string) semantic.Symbol {
	fn := syntax.EnclosingFunction(site)
	if fn == nil {
		return nil
	}
	for _, v := range syntax.Collect[*syntax.VariableDeclarator](fn) {
		if v.Name == name && syntax.IsBefore(v, site) {
			return s.Compilation.DeclaredSymbol(v)
		}
	}
	for _, p := range syntax.Collect[*syntax.Parameter](fn) {
		if p.Name == name {
			return s.Compilation.DeclaredSymbol(p)
		}
	}
	return nil
}

func valuesOf(exprs []syntax.Expr) []types.Value {
	out := make([]types.Value, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, types.Value{
			Expr:     syntax.Text(e),
			Kind:     e.Kind().String(),
			Location: locationOf(e),
		})
	}
	return out
}

func locationOf(n syntax.Node) types.Location {
	sp := n.Span()
	loc := types.Location{
		Line:      sp.StartLine,
		Column:    sp.StartCol,
		EndLine:   sp.EndLine,
		EndColumn: sp.EndCol,
	}
	if t := n.Tree(); t != nil {
		loc.Path = t.Path
	}
	return loc
}
