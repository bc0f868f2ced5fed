package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Implementations returns the members overriding or implementing member in
// the source of the compilation. Generated files are skipped.
func (e *Engine) Implementations(ctx context.Context, member semantic.Symbol) ([]semantic.Symbol, error) {
	if member == nil || member.ContainingType() == nil {
		return nil, nil
	}
	declaring := member.ContainingType()
	var out []semantic.Symbol
	seen := make(map[semantic.Symbol]struct{})
	for _, tree := range e.model.Trees() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if tree.Generated || tree.Root == nil {
			continue
		}
		for _, d := range syntax.Collect[*syntax.TypeDecl](tree.Root) {
			t, ok := e.model.DeclaredSymbol(d).(*semantic.TypeSymbol)
			if !ok || t.Definition() == declaring.Definition() {
				continue
			}
			if !e.model.IsAssignableTo(t, declaring) {
				continue
			}
			for _, candidate := range t.MembersNamed(member.Name()) {
				if candidate.Kind() != member.Kind() {
					continue
				}
				if _, dup := seen[candidate]; dup {
					continue
				}
				if e.model.SymbolsEqual(candidate, member) {
					seen[candidate] = struct{}{}
					out = append(out, candidate)
				}
			}
		}
	}
	return out, nil
}
