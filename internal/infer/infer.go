// Package infer implements the static type inferencer (spec component
// C5): a bottom-up, fixed-point pass over a whole compilation unit's Node
// trees that annotates InferredType on every Node and Variable, and
// InferredReturnType on every Function. It is monotone in the type
// lattice and therefore terminating: each revisit can only move a type
// from Unknown to Known or widen a Known kind toward Ref, never the
// reverse.
package infer

import (
	"tierwalk/internal/builtin"
	"tierwalk/internal/errs"
	"tierwalk/internal/ir"
	"tierwalk/internal/types"
	"tierwalk/internal/value"
)

// unitFunctions flattens fn and every (transitively) Nested function into
// one slice, since the fixed-point loop needs to revisit every function in
// the unit together: a Direct call from one nested function to a sibling,
// or to the top-level function itself (recursion), is exactly the kind of
// cross-function dependency that makes a single top-down pass insufficient.
func unitFunctions(fn *ir.Function) []*ir.Function {
	out := []*ir.Function{fn}
	for _, n := range fn.Nested {
		out = append(out, unitFunctions(n)...)
	}
	return out
}

// Run infers types for fn's entire compilation unit, iterating until no
// function's annotations change in a full pass. It returns a
// *errs.CompilerError, per spec §7's taxonomy, the first time an If or
// While condition's inferred type is Known and not Bool or Ref.
func Run(fn *ir.Function) error {
	funcs := unitFunctions(fn)
	for {
		changed := false
		for _, f := range funcs {
			c, err := inferOne(f)
			if err != nil {
				return err
			}
			if c {
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
}

func inferOne(f *ir.Function) (bool, error) {
	changed := false
	note := func() { changed = true }

	var visit func(n *ir.Node) (types.ExprType, error)
	visit = func(n *ir.Node) (types.ExprType, error) {
		if n == nil {
			return types.Known(types.Void), nil
		}
		result, err := visitPayload(f, n, visit, note)
		if err != nil {
			return types.Unknown(), err
		}
		if !n.InferredType.Equal(result) {
			n.InferredType = result
			note()
		}
		return result, nil
	}

	if _, err := visit(f.Body); err != nil {
		return false, err
	}
	return changed, nil
}

// checkCondition enforces spec §4.2's rule that a condition whose
// inferredType is Known must be Bool or Ref (Ref covers the
// not-yet-specialized case where the condition could still turn out
// boolean at a tier that observes more). Any other Known kind is a
// static type error, one of the three CompilerError triggers spec §7
// names.
func checkCondition(owner string, condT types.ExprType) error {
	kind, known := condT.Kind()
	if !known {
		return nil
	}
	if kind == types.Bool || kind == types.Ref {
		return nil
	}
	return errs.NewCompilerError("%s: condition is not a boolean (inferred %s)", owner, kind)
}

func visitPayload(owner *ir.Function, n *ir.Node, visit func(*ir.Node) (types.ExprType, error), note func()) (types.ExprType, error) {
	switch p := n.Payload.(type) {
	case *ir.Constant:
		return types.Known(value.KindOf(p.Value)), nil
	case *ir.GetVar:
		return p.Var.InferredType, nil
	case *ir.SetVar:
		rhsT, err := visit(p.RHS)
		if err != nil {
			return types.Unknown(), err
		}
		widenVar(p.Var, rhsT, note)
		return types.Known(types.Void), nil
	case *ir.Let:
		initT, err := visit(p.Init)
		if err != nil {
			return types.Unknown(), err
		}
		widenVar(p.Var, initT, note)
		return visit(p.Body)
	case *ir.If:
		condT, err := visit(p.Cond)
		if err != nil {
			return types.Unknown(), err
		}
		if err := checkCondition("if", condT); err != nil {
			return types.Unknown(), err
		}
		thenT, err := visit(p.Then)
		if err != nil {
			return types.Unknown(), err
		}
		elseT, err := visit(p.Else)
		if err != nil {
			return types.Unknown(), err
		}
		return thenT.Union(elseT), nil
	case *ir.While:
		condT, err := visit(p.Cond)
		if err != nil {
			return types.Unknown(), err
		}
		if err := checkCondition("while", condT); err != nil {
			return types.Unknown(), err
		}
		if _, err := visit(p.Body); err != nil {
			return types.Unknown(), err
		}
		return types.Known(types.Void), nil
	case *ir.Block:
		result := types.Known(types.Void)
		for _, s := range p.Stmts {
			var err error
			result, err = visit(s)
			if err != nil {
				return types.Unknown(), err
			}
		}
		return result, nil
	case *ir.Return:
		vt := types.Known(types.Void)
		if p.Value != nil {
			var err error
			vt, err = visit(p.Value)
			if err != nil {
				return types.Unknown(), err
			}
		}
		widenReturn(owner, vt, note)
		return types.Known(types.Void), nil
	case *ir.Call:
		for _, a := range p.Args {
			if _, err := visit(a); err != nil {
				return types.Unknown(), err
			}
		}
		if p.Direct {
			return p.DirectTarget.InferredReturnType, nil
		}
		if _, err := visit(p.Callee); err != nil {
			return types.Unknown(), err
		}
		return types.Unknown(), nil
	case *ir.Primitive:
		allKnown := true
		for _, a := range p.Args {
			at, err := visit(a)
			if err != nil {
				return types.Unknown(), err
			}
			if at.IsUnknown() {
				allKnown = false
			}
		}
		op := builtin.Lookup(p.Op)
		if op == nil || !allKnown {
			return types.Unknown(), nil
		}
		return types.Known(op.ResultKind), nil
	case *ir.Closure, *ir.FreeFunctionRef:
		return types.Known(types.Ref), nil
	default:
		return types.Unknown(), nil
	}
}

// widenVar folds a newly observed contribution into v's accumulated
// InferredType. OpportunisticUnion, not the pessimistic Union, is the
// right operator here even though this is the static (non-profiling)
// pass: a Variable's type is the join of every assignment site that
// targets it, and during fixed-point iteration an as-yet-unresolved site
// must not erase what other sites have already established. Reserve the
// pessimistic Union for merging the two arms of a single If expression,
// where not knowing one arm genuinely means not knowing the whole
// expression.
func widenVar(v *ir.Variable, contribution types.ExprType, note func()) {
	joined := v.InferredType.OpportunisticUnion(contribution)
	if !joined.Equal(v.InferredType) {
		v.InferredType = joined
		note()
	}
}

func widenReturn(f *ir.Function, contribution types.ExprType, note func()) {
	if f == nil {
		return
	}
	joined := f.InferredReturnType.OpportunisticUnion(contribution)
	if !joined.Equal(f.InferredReturnType) {
		f.InferredReturnType = joined
		note()
	}
}
