package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// syntaxErrorPos records where the first ERROR or MISSING node was seen
type syntaxErrorPos struct {
	line   int
	column int
	token  string
}

// lowerer converts a tree-sitter C# tree into syntax nodes.
// It is used for a single file and then discarded.
type lowerer struct {
	src        []byte
	firstError *syntaxErrorPos
	// binding is the receiver of the innermost conditional access (a in a?.b)
	binding []syntax.Expr
}

func newLowerer(src []byte) *lowerer {
	return &lowerer{src: src}
}

func (l *lowerer) span(n *tree_sitter.Node) syntax.Span {
	sp, ep := n.StartPosition(), n.EndPosition()
	return syntax.Span{
		Start:     int(n.StartByte()),
		End:       int(n.EndByte()),
		StartLine: int(sp.Row) + 1,
		StartCol:  int(sp.Column) + 1,
		EndLine:   int(ep.Row) + 1,
		EndCol:    int(ep.Column) + 1,
	}
}

// joinSpan spans from the start of a to the end of b
func joinSpan(a, b syntax.Span) syntax.Span {
	return syntax.Span{
		Start:     a.Start,
		End:       b.End,
		StartLine: a.StartLine,
		StartCol:  a.StartCol,
		EndLine:   b.EndLine,
		EndCol:    b.EndCol,
	}
}

func (l *lowerer) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(l.src)
}

func (l *lowerer) noteError(n *tree_sitter.Node) {
	if l.firstError != nil {
		return
	}
	sp := n.StartPosition()
	tok := l.text(n)
	if len(tok) > 40 {
		tok = tok[:40]
	}
	l.firstError = &syntaxErrorPos{line: int(sp.Row) + 1, column: int(sp.Column) + 1, token: tok}
}

// isTrivia reports nodes that carry no semantics: comments and preprocessor lines
func isTrivia(kind string) bool {
	return kind == "comment" || strings.HasPrefix(kind, "preproc")
}

// named returns the named, non-trivia children of n. ERROR nodes are recorded
// and kept so their content can still be lowered.
func (l *lowerer) named(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || isTrivia(child.Kind()) {
			continue
		}
		if child.IsError() || child.IsMissing() {
			l.noteError(child)
		}
		out = append(out, child)
	}
	return out
}

// all returns every non-trivia child of n including anonymous tokens
func (l *lowerer) all(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	count := n.ChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil || isTrivia(child.Kind()) {
			continue
		}
		if child.IsMissing() {
			l.noteError(child)
		}
		out = append(out, child)
	}
	return out
}

// field returns the child for the first field name that is present
func field(n *tree_sitter.Node, names ...string) *tree_sitter.Node {
	if n == nil {
		return nil
	}
	for _, name := range names {
		if c := n.ChildByFieldName(name); c != nil {
			return c
		}
	}
	return nil
}

// firstOfKind returns the first named child whose kind is one of kinds
func (l *lowerer) firstOfKind(n *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	for _, c := range l.named(n) {
		for _, k := range kinds {
			if c.Kind() == k {
				return c
			}
		}
	}
	return nil
}

// hasToken reports whether n has an anonymous child with the given text
func (l *lowerer) hasToken(n *tree_sitter.Node, tok string) bool {
	for _, c := range l.all(n) {
		if !c.IsNamed() && c.Kind() == tok {
			return true
		}
	}
	return false
}

// afterToken returns the first named child following the anonymous token tok
func (l *lowerer) afterToken(n *tree_sitter.Node, tok string) *tree_sitter.Node {
	seen := false
	for _, c := range l.all(n) {
		if !c.IsNamed() && c.Kind() == tok {
			seen = true
			continue
		}
		if seen && c.IsNamed() {
			return c
		}
	}
	return nil
}

// modifiers collects declaration modifiers. Newer grammars wrap each keyword in a
// modifier node; older ones emit bare tokens before the declaration keyword.
func (l *lowerer) modifiers(n *tree_sitter.Node) syntax.Modifiers {
	var mods syntax.Modifiers
	for _, c := range l.all(n) {
		switch {
		case c.Kind() == "modifier":
			for _, word := range strings.Fields(l.text(c)) {
				mods |= syntax.ParseModifier(word)
			}
		case !c.IsNamed():
			mods |= syntax.ParseModifier(c.Kind())
		case c.Kind() == "attribute_list":
			continue
		default:
			// modifiers always precede the first named, non-attribute child
			return mods
		}
	}
	return mods
}

// nameOf returns the text and span of the declaration name
func (l *lowerer) nameOf(n *tree_sitter.Node) (string, syntax.Span) {
	name := field(n, "name")
	if name == nil {
		name = l.firstOfKind(n, "identifier")
	}
	if name == nil {
		return "", l.span(n)
	}
	return l.text(name), l.span(name)
}

// typeParams returns the names in a type_parameter_list child
func (l *lowerer) typeParams(n *tree_sitter.Node) []string {
	list := field(n, "type_parameters")
	if list == nil {
		list = l.firstOfKind(n, "type_parameter_list")
	}
	if list == nil {
		return nil
	}
	var out []string
	for _, tp := range l.named(list) {
		name := field(tp, "name")
		if name == nil {
			name = l.firstOfKind(tp, "identifier")
		}
		if name == nil {
			name = tp
		}
		out = append(out, l.text(name))
	}
	return out
}
