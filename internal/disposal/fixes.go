package disposal

import (
	"strings"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
	"github.com/standardbeagle/disposeflow/internal/types"
)

// indentUnit is added for statements inserted one level deeper than a brace
const indentUnit = "    "

// usingFix turns `var x = ...;` into `using var x = ...;`. Only plain block
// statements can be rewritten.
func usingFix(tree *syntax.Tree, decl *syntax.LocalDeclaration) (types.Fix, bool) {
	if _, ok := decl.Parent().(*syntax.Block); !ok {
		return types.Fix{}, false
	}
	start := decl.Span().Start
	return types.Fix{
		Title: "Use using declaration",
		Edits: []types.TextEdit{{Path: tree.Path, Start: start, End: start, NewText: "using "}},
	}, true
}

// disposeMemberFix appends a dispose statement for member to the body of the
// Dispose method declared by td. The conditional ?. is left out when the
// member is never null.
func disposeMemberFix(tree *syntax.Tree, td *syntax.TypeDecl, member semantic.Symbol, neverNull bool) (types.Fix, bool) {
	body := disposeBody(td)
	if body == nil || body.Tree() != tree {
		return types.Fix{}, false
	}
	call := "this." + member.Name() + "?.Dispose();"
	if neverNull {
		call = "this." + member.Name() + ".Dispose();"
	}
	closing := body.Span().End - 1
	if closing < 0 || closing >= len(tree.Source) || tree.Source[closing] != '}' {
		return types.Fix{}, false
	}
	lineStart := lineStartOf(tree.Source, closing)
	indent := string(tree.Source[lineStart:closing])
	var edit types.TextEdit
	if strings.TrimSpace(indent) == "" {
		edit = types.TextEdit{Path: tree.Path, Start: lineStart, End: lineStart, NewText: indent + indentUnit + call + "\n"}
	} else {
		// single-line body
		edit = types.TextEdit{Path: tree.Path, Start: closing, End: closing, NewText: call + " "}
	}
	return types.Fix{Title: "Dispose member in Dispose()", Edits: []types.TextEdit{edit}}, true
}

// disposeBody returns the block body of Dispose(bool) when declared, else of
// Dispose()
func disposeBody(td *syntax.TypeDecl) *syntax.Block {
	var plain *syntax.Block
	for _, m := range td.Members {
		md, ok := m.(*syntax.MethodDecl)
		if !ok || md.Name != "Dispose" || md.Body == nil {
			continue
		}
		switch len(md.Params) {
		case 1:
			return disposingBlock(md)
		case 0:
			plain = md.Body
		}
	}
	return plain
}

// disposingBlock returns the `if (disposing) { }` block of Dispose(bool), or
// its body when there is none
func disposingBlock(md *syntax.MethodDecl) *syntax.Block {
	for _, s := range md.Body.Stmts {
		ifStmt, ok := s.(*syntax.If)
		if !ok {
			continue
		}
		id, ok := syntax.Unparen(ifStmt.Cond).(*syntax.Identifier)
		then, isBlock := ifStmt.Then.(*syntax.Block)
		if ok && isBlock && id.Name == md.Params[0].Name {
			return then
		}
	}
	return md.Body
}

// disposePreviousFix inserts `x?.Dispose();` before the statement assigning x
func disposePreviousFix(tree *syntax.Tree, a *syntax.Assignment) (types.Fix, bool) {
	stmt, ok := a.Parent().(*syntax.ExpressionStmt)
	if !ok {
		return types.Fix{}, false
	}
	if _, inBlock := stmt.Parent().(*syntax.Block); !inBlock {
		return types.Fix{}, false
	}
	start := stmt.Span().Start
	lineStart := lineStartOf(tree.Source, start)
	indent := string(tree.Source[lineStart:start])
	if strings.TrimSpace(indent) != "" {
		indent = " "
	} else {
		indent = "\n" + indent
	}
	return types.Fix{
		Title: "Dispose previous value",
		Edits: []types.TextEdit{{
			Path:    tree.Path,
			Start:   start,
			End:     start,
			NewText: syntax.Text(a.Left) + "?.Dispose();" + indent,
		}},
	}, true
}

func lineStartOf(src []byte, offset int) int {
	for i := offset - 1; i >= 0; i-- {
		if src[i] == '\n' {
			return i + 1
		}
	}
	return 0
}
