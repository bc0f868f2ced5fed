package semantic

import (
	"math"

	"github.com/standardbeagle/disposeflow/internal/syntax"
)

// TryGetArgumentValue maps a formal parameter to the expression passed for it:
// a named argument, the positional argument at its ordinal, or its default value
func (c *Compilation) TryGetArgumentValue(p *ParameterSymbol, args []*syntax.Argument) (syntax.Expr, bool) {
	if p == nil {
		return nil, false
	}
	for _, a := range args {
		if a.Name != "" && a.Name == p.name {
			return a.Expr, a.Expr != nil
		}
	}
	if p.ordinal < len(args) && args[p.ordinal].Name == "" && args[p.ordinal].Expr != nil {
		return args[p.ordinal].Expr, true
	}
	if d := p.Default(); d != nil {
		return d, true
	}
	return nil, false
}

// parameterFor returns the parameter an argument binds to
func parameterFor(m *MethodSymbol, args []*syntax.Argument, arg *syntax.Argument) *ParameterSymbol {
	if m == nil {
		return nil
	}
	if arg.Name != "" {
		return m.Parameter(arg.Name)
	}
	for i, a := range args {
		if a != arg {
			continue
		}
		if i < len(m.params) {
			return m.params[i]
		}
		if n := len(m.params); n > 0 && m.params[n-1].isParams {
			return m.params[n-1]
		}
	}
	return nil
}

// ParameterFor returns the parameter of m that arg binds to in args
func ParameterFor(m *MethodSymbol, args []*syntax.Argument, arg *syntax.Argument) *ParameterSymbol {
	return parameterFor(m, args, arg)
}

// chooseMethod picks the best applicable overload for args. With a single
// candidate it is returned even when the arguments do not fit.
func (c *Compilation) chooseMethod(cands []*MethodSymbol, args []*syntax.Argument, typeArgs []*syntax.TypeRef, depth int) *MethodSymbol {
	switch len(cands) {
	case 0:
		return nil
	case 1:
		return cands[0]
	}
	var best *MethodSymbol
	bestScore := math.MinInt
	for _, m := range cands {
		if len(typeArgs) > 0 && len(m.typeParams) != len(typeArgs) {
			continue
		}
		score, ok := c.applicability(m, args, depth)
		if !ok {
			continue
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	if best == nil {
		for _, m := range cands {
			if len(m.params) == len(args) {
				return m
			}
		}
		return cands[0]
	}
	return best
}

// applicability scores how well args fit m; ok is false when they cannot bind
func (c *Compilation) applicability(m *MethodSymbol, args []*syntax.Argument, depth int) (score int, ok bool) {
	used := make([]bool, len(m.params))
	for i, a := range args {
		var p *ParameterSymbol
		switch {
		case a.Name != "":
			p = m.Parameter(a.Name)
		case i < len(m.params):
			p = m.params[i]
		case len(m.params) > 0 && m.params[len(m.params)-1].isParams:
			p = m.params[len(m.params)-1]
		}
		if p == nil || p.ordinal >= len(used) {
			return 0, false
		}
		used[p.ordinal] = true
		if byRef(a.RefKind) != byRef(p.refKind) {
			return 0, false
		}
		score += c.argumentScore(a.Expr, p, depth)
	}
	for i, p := range m.params {
		if !used[i] && p.Default() == nil && !p.isParams {
			return 0, false
		}
	}
	return score, true
}

func byRef(k syntax.RefKind) bool { return k == syntax.RefRef || k == syntax.RefOut }

func (c *Compilation) argumentScore(e syntax.Expr, p *ParameterSymbol, depth int) int {
	if p.typ == nil || e == nil {
		return 0
	}
	if l, ok := e.(*syntax.Lambda); ok {
		return c.lambdaScore(l, p.typ, depth)
	}
	if lit, ok := e.(*syntax.Literal); ok && lit.LitKind == syntax.LitNull {
		if p.typ.IsValueType() {
			return -3
		}
		return 1
	}
	at := c.typeOf(e, depth)
	switch {
	case at == nil:
		return 0
	case SameType(at, p.typ):
		return 3
	case c.IsAssignableTo(at, p.typ):
		return 2
	case containsTypeParam(p.typ):
		return 1
	case p.isParams && p.typ.IsArray() && c.IsAssignableTo(at, p.typ.elem):
		return 1
	}
	return -3
}

// lambdaScore prefers Func for lambdas producing a value, Action otherwise,
// and Func<Task<T>> for lambdas producing a task
func (c *Compilation) lambdaScore(l *syntax.Lambda, delegate *TypeSymbol, depth int) int {
	name := delegate.Definition().FullName()
	ret := c.lambdaReturnType(l, depth)
	producesValue := ret != nil || lambdaReturnsValue(l)
	switch name {
	case "System.Func":
		if !producesValue {
			return -2
		}
		last := delegate.args[len(delegate.args)-1]
		if IsTaskLike(last) != IsTaskLike(ret) {
			return 0
		}
		return 2
	case "System.Action":
		if producesValue {
			return -1
		}
		return 2
	}
	return 0
}

func lambdaReturnsValue(l *syntax.Lambda) bool {
	if l.ExprBody != nil {
		return true
	}
	found := false
	syntax.Inspect(l.Body, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Lambda, *syntax.LocalFunction:
			return false
		case *syntax.Return:
			if n.Expr != nil {
				found = true
			}
		}
		return !found
	})
	return found
}

// lambdaReturnType infers the type a lambda body produces. Async lambdas
// produce Task<T>.
func (c *Compilation) lambdaReturnType(l *syntax.Lambda, depth int) *TypeSymbol {
	var t *TypeSymbol
	if l.ExprBody != nil {
		t = c.typeOf(l.ExprBody, depth+1)
	} else {
		syntax.Inspect(l.Body, func(n syntax.Node) bool {
			switch n := n.(type) {
			case *syntax.Lambda, *syntax.LocalFunction:
				return false
			case *syntax.Return:
				if t == nil && n.Expr != nil {
					t = c.typeOf(n.Expr, depth+1)
				}
			}
			return t == nil
		})
	}
	if t != nil && l.Modifiers.Has(syntax.ModAsync) {
		if task := c.lookupFull("System.Threading.Tasks.Task`1"); task != nil {
			return c.construct(task, []*TypeSymbol{t})
		}
	}
	return t
}

func containsTypeParam(t *TypeSymbol) bool {
	if t == nil {
		return false
	}
	switch t.typeKind {
	case TypeParameter:
		return true
	case TypeArray:
		return containsTypeParam(t.elem)
	}
	for _, a := range t.args {
		if containsTypeParam(a) {
			return true
		}
	}
	return false
}

// invocationEnv collects the type parameter bindings of a call: the
// receiver's type arguments and the method's explicit or inferred ones
func (c *Compilation) invocationEnv(inv *syntax.Invocation, m *MethodSymbol, depth int) map[string]*TypeSymbol {
	env := make(map[string]*TypeSymbol)
	var recv *TypeSymbol
	var typeArgs []*syntax.TypeRef
	switch target := syntax.Unparen(inv.Expr).(type) {
	case *syntax.MemberAccess:
		if target.Name != nil {
			typeArgs = target.Name.TypeArgs
		}
		if m.name == "Invoke" && (target.Name == nil || target.Name.Name != "Invoke") {
			recv = c.memberType(c.bindMemberAccess(target, nil, depth), c.receiverOf(target.Expr, depth).typ)
		} else {
			recv = c.receiverOf(target.Expr, depth).typ
		}
	case *syntax.Identifier:
		typeArgs = target.TypeArgs
		if m.name == "Invoke" && target.Name != "Invoke" {
			recv = c.symbolType(c.bindName(target, depth), depth)
		} else {
			recv = c.enclosingTypeSymbol(target)
		}
	default:
		recv = c.typeOf(inv.Expr, depth)
	}
	for k, v := range memberEnv(recv, m.containing) {
		env[k] = v
	}
	if len(m.typeParams) == 0 {
		return env
	}
	if len(typeArgs) == len(m.typeParams) {
		for i, name := range m.typeParams {
			if t := c.resolveType(typeArgs[i], inv); t != nil {
				env[name] = t
			}
		}
		return env
	}
	for _, a := range inv.Args {
		p := parameterFor(m, inv.Args, a)
		if p == nil || !containsTypeParam(p.typ) {
			continue
		}
		var at *TypeSymbol
		if l, ok := a.Expr.(*syntax.Lambda); ok {
			at = c.lambdaDelegate(l, c.substitute(p.typ, env), depth)
		} else {
			at = c.typeOf(a.Expr, depth)
		}
		c.unify(p.typ, at, env)
	}
	return env
}

// lambdaDelegate synthesises the delegate type of a lambda passed for a
// parameter of type target
func (c *Compilation) lambdaDelegate(l *syntax.Lambda, target *TypeSymbol, depth int) *TypeSymbol {
	if target == nil || target.Definition().FullName() != "System.Func" || len(target.args) == 0 {
		return nil
	}
	ret := c.lambdaReturnType(l, depth)
	if ret == nil {
		return nil
	}
	args := append([]*TypeSymbol(nil), target.args...)
	args[len(args)-1] = ret
	return c.construct(target.definition, args)
}

// unify binds type parameters in pattern to the matching parts of actual
func (c *Compilation) unify(pattern, actual *TypeSymbol, env map[string]*TypeSymbol) {
	if pattern == nil || actual == nil {
		return
	}
	switch pattern.typeKind {
	case TypeParameter:
		if _, ok := env[pattern.name]; !ok {
			env[pattern.name] = actual
		}
		return
	case TypeArray:
		if actual.IsArray() {
			c.unify(pattern.elem, actual.elem, env)
		}
		return
	}
	if len(pattern.args) == 0 {
		return
	}
	def := pattern.Definition()
	candidates := append(actual.BaseTypes(), actual.AllInterfaces()...)
	for _, x := range candidates {
		if x.Definition() != def || len(x.args) != len(pattern.args) {
			continue
		}
		for i := range pattern.args {
			c.unify(pattern.args[i], x.args[i], env)
		}
		return
	}
}
