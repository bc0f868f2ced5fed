package walkers

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// SearchScope controls how far a walk follows execution out of the walked node
type SearchScope uint8

const (
	// TopLevel never leaves the walked subtree
	TopLevel SearchScope = iota
	// Type follows calls, constructor chains and accessors declared in the
	// walked type or its base types
	Type
	// Recursive follows every target that has source
	Recursive
)

func (s SearchScope) String() string {
	switch s {
	case TopLevel:
		return "toplevel"
	case Type:
		return "type"
	case Recursive:
		return "recursive"
	}
	return fmt.Sprintf("SearchScope(%d)", uint8(s))
}

// ParseSearchScope parses the names produced by String
func ParseSearchScope(s string) (SearchScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toplevel", "top-level", "top_level":
		return TopLevel, nil
	case "type":
		return Type, nil
	case "recursive", "":
		return Recursive, nil
	}
	return Recursive, fmt.Errorf("unknown search scope %q", s)
}

// Values is an ordered candidate value set. Order is discovery order and an
// expression node is never present twice.
type Values struct {
	items []syntax.Expr
	seen  map[syntax.Node]struct{}
}

// Add appends e unless e is nil or already present
func (v *Values) Add(e syntax.Expr) bool {
	if e == nil {
		return false
	}
	if v.seen == nil {
		v.seen = make(map[syntax.Node]struct{})
	}
	if _, ok := v.seen[e]; ok {
		return false
	}
	v.seen[e] = struct{}{}
	v.items = append(v.items, e)
	return true
}

func (v *Values) Len() int { return len(v.items) }

// Items returns a copy of the values
func (v *Values) Items() []syntax.Expr {
	return append([]syntax.Expr(nil), v.items...)
}

func (v *Values) reset() {
	v.items = v.items[:0]
	clear(v.seen)
}

// PurgeDuplicates removes expressions structurally equivalent to an earlier
// one, keeping first discovery order
func PurgeDuplicates(values []syntax.Expr) []syntax.Expr {
	out := values[:0:0]
	for _, e := range values {
		dup := false
		for _, kept := range out {
			if syntax.Equivalent(kept, e) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}
