// Package observe implements the profile observer (spec component C6): a
// pass with the same traversal shape as internal/infer, but it reads live
// profile data (ValueProfile, FunctionProfile, If branch counters) rather
// than re-deriving types from the tree's syntax. It writes ObservedType
// rather than InferredType, and joins with OpportunisticUnion throughout,
// including at If nodes: a branch that was never taken must not pollute
// the observed type of a branch that was.
package observe

import (
	"tierwalk/internal/ir"
	"tierwalk/internal/types"
)

func unitFunctions(fn *ir.Function) []*ir.Function {
	out := []*ir.Function{fn}
	for _, n := range fn.Nested {
		out = append(out, unitFunctions(n)...)
	}
	return out
}

// Run observes types for fn's entire compilation unit from the profile
// data accumulated by whichever interpreter tier has been executing it.
// Like infer.Run it iterates to a fixed point, since a Direct call's
// observed result type depends on its callee's ObservedReturnType, which
// may belong to a function visited later in the same pass.
func Run(fn *ir.Function) {
	funcs := unitFunctions(fn)
	for {
		changed := false
		for _, f := range funcs {
			if observeOne(f) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func observeOne(f *ir.Function) bool {
	changed := false
	note := func() { changed = true }

	refresh := func(v *ir.Variable) {
		observed := v.Profile.ObservedKind()
		if !observed.Equal(v.ObservedType) {
			v.ObservedType = observed
			note()
		}
	}
	for _, p := range f.Params {
		refresh(p)
	}
	for _, c := range f.Captures {
		refresh(c)
	}

	var visit func(n *ir.Node) types.ExprType
	visit = func(n *ir.Node) types.ExprType {
		if n == nil {
			return types.Known(types.Void)
		}
		result := visitPayload(f, n, visit, refresh, note)
		if !n.ObservedType.Equal(result) {
			n.ObservedType = result
			note()
		}
		return result
	}

	visit(f.Body)
	return changed
}

func visitPayload(owner *ir.Function, n *ir.Node, visit func(*ir.Node) types.ExprType, refresh func(*ir.Variable), note func()) types.ExprType {
	switch p := n.Payload.(type) {
	case *ir.Constant:
		return n.InferredType // a literal's kind never varies; reuse the static answer
	case *ir.GetVar:
		return p.Var.ObservedType
	case *ir.SetVar:
		visit(p.RHS)
		return types.Known(types.Void)
	case *ir.Let:
		visit(p.Init)
		refresh(p.Var)
		return visit(p.Body)
	case *ir.If:
		visit(p.Cond)
		thenT := visit(p.Then)
		elseT := visit(p.Else)
		result := types.Unknown()
		if p.TakenCount > 0 {
			result = result.OpportunisticUnion(thenT)
		}
		if p.NotTakenCount > 0 {
			result = result.OpportunisticUnion(elseT)
		}
		return result
	case *ir.While:
		visit(p.Cond)
		visit(p.Body)
		return types.Known(types.Void)
	case *ir.Block:
		result := types.Known(types.Void)
		for _, s := range p.Stmts {
			result = visit(s)
		}
		return result
	case *ir.Return:
		var vt types.ExprType
		if p.Value != nil {
			vt = visit(p.Value)
		} else {
			vt = types.Known(types.Void)
		}
		widenReturn(owner, vt, note)
		return types.Known(types.Void)
	case *ir.Call:
		for _, a := range p.Args {
			visit(a)
		}
		if p.Direct {
			return p.DirectTarget.ObservedReturnType
		}
		visit(p.Callee)
		if callee, ok := p.Profile.MonomorphicCallee(); ok {
			return callee.ObservedReturnType
		}
		return types.Unknown()
	case *ir.Primitive:
		for _, a := range p.Args {
			visit(a)
		}
		return n.InferredType // the op's result kind is static once args are known
	case *ir.Closure, *ir.FreeFunctionRef:
		return types.Known(types.Ref)
	default:
		return types.Unknown()
	}
}

func widenReturn(f *ir.Function, contribution types.ExprType, note func()) {
	if f == nil {
		return
	}
	joined := f.ObservedReturnType.OpportunisticUnion(contribution)
	if !joined.Equal(f.ObservedReturnType) {
		f.ObservedReturnType = joined
		note()
	}
}
