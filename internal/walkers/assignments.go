package walkers

import (
	"context"

	"github.com/standardbeagle/disposeflow/internal/semantic"
	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// Assignments returns the assignments executed by root
func (e *Engine) Assignments(ctx context.Context, root syntax.Node, scope SearchScope) ([]*syntax.Assignment, error) {
	return collect[*syntax.Assignment](ctx, e, root, scope, nil)
}

func (e *Engine) assignmentsTo(ctx context.Context, symbol semantic.Symbol, root syntax.Node, scope SearchScope) ([]*syntax.Assignment, error) {
	return collect(ctx, e, root, scope, func(a *syntax.Assignment) bool {
		left := syntax.Unparen(a.Left)
		switch left.(type) {
		case *syntax.Identifier, *syntax.MemberAccess:
			return e.model.SymbolsEqual(e.model.ResolveSymbol(left), symbol)
		}
		return false
	})
}

// FirstAssignmentTo returns the first executed assignment to symbol
func (e *Engine) FirstAssignmentTo(ctx context.Context, symbol semantic.Symbol, root syntax.Node, scope SearchScope) (*syntax.Assignment, bool, error) {
	found, err := e.assignmentsTo(ctx, symbol, root, scope)
	if err != nil || len(found) == 0 {
		return nil, false, err
	}
	return found[0], true, nil
}

// SingleAssignmentTo returns the assignment to symbol when root executes
// exactly one
func (e *Engine) SingleAssignmentTo(ctx context.Context, symbol semantic.Symbol, root syntax.Node, scope SearchScope) (*syntax.Assignment, bool, error) {
	found, err := e.assignmentsTo(ctx, symbol, root, scope)
	if err != nil || len(found) != 1 {
		return nil, false, err
	}
	return found[0], true, nil
}

// FirstAssignmentWithValue returns the first executed assignment whose right
// side is value
func (e *Engine) FirstAssignmentWithValue(ctx context.Context, value syntax.Expr, root syntax.Node, scope SearchScope) (*syntax.Assignment, bool, error) {
	found, err := collect(ctx, e, root, scope, func(a *syntax.Assignment) bool {
		return syntax.Unparen(a.Right) == syntax.Unparen(value)
	})
	if err != nil || len(found) == 0 {
		return nil, false, err
	}
	return found[0], true, nil
}
