package unit

import (
	"tierwalk/internal/ir"
	"tierwalk/internal/types"
)

// assignSpecializedKinds populates fn's SpecializedParamKinds,
// SpecializedReturnKind, and every one of its Variables' SpecializedKind
// (Params, Captures, and every Let binding reachable in Body) from the
// inference/observation annotations internal/infer and internal/observe
// just wrote. internal/codegen.Compile's doc comment names this step as
// its precondition; it must run, for every Function in a unit, after
// infer.Run and observe.Run and before codegen.Compile.
func assignSpecializedKinds(fn *ir.Function) {
	fn.SpecializedParamKinds = make([]types.Kind, len(fn.Params))
	for i, p := range fn.Params {
		p.SpecializedKind = kindOfVar(p)
		fn.SpecializedParamKinds[i] = p.SpecializedKind
	}
	for _, c := range fn.Captures {
		c.SpecializedKind = kindOfVar(c)
	}
	fn.SpecializedReturnKind = kindOf(fn.ObservedReturnType, fn.InferredReturnType)

	if fn.Body != nil {
		walkLets(fn.Body)
	}
}

// walkLets finds every Let node in n's subtree and assigns its bound
// Variable's SpecializedKind, stopping at a Closure boundary the way
// Node.Children already does — a nested Function's own Lets are handled
// when assignSpecializedKinds runs on that Function in turn.
func walkLets(n *ir.Node) {
	if n == nil {
		return
	}
	if let, ok := n.Payload.(*ir.Let); ok {
		let.Var.SpecializedKind = kindOfVar(let.Var)
	}
	for _, child := range n.Children() {
		walkLets(child)
	}
}

// kindOfVar mirrors internal/codegen's specializedKindOf precedence
// (observed, then inferred, then Ref) but reads a Variable's own
// annotations rather than a Node's, since a Variable's kind must be
// settled once for every read/write of its slot, not recomputed per use.
func kindOfVar(v *ir.Variable) types.Kind {
	return kindOf(v.ObservedType, v.InferredType)
}

func kindOf(observed, inferred types.ExprType) types.Kind {
	if k, ok := observed.Kind(); ok {
		return k
	}
	if k, ok := inferred.Kind(); ok {
		return k
	}
	return types.Ref
}
