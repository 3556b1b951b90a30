package codegen

import (
	"tierwalk/internal/builtin"
	"tierwalk/internal/dispatch"
	"tierwalk/internal/errs"
	"tierwalk/internal/ir"
	"tierwalk/internal/types"
	"tierwalk/internal/value"
)

// specializedKindOf reports the most precise non-Unknown kind implied by
// n's observed type, falling back to its inferred type, and to Ref when
// neither applies — spec §4.6's definition of a node's specialized type.
func specializedKindOf(n *ir.Node) types.Kind {
	if k, ok := n.ObservedType.Kind(); ok {
		return k
	}
	if k, ok := n.InferredType.Kind(); ok {
		return k
	}
	return types.Ref
}

func specializedVarKind(v *ir.Variable) types.Kind {
	if v.SpecializedKind == types.Invalid {
		return types.Ref
	}
	return v.SpecializedKind
}

// compileSpecialized walks n once, same as compileGeneric, but assumes the
// kinds already established by inference/observation hold at runtime,
// raising a square-peg signal (via dispatch.Raise) the moment a value
// doesn't fit an assumption instead of proceeding on bad data. Constant,
// GetVar, Closure and FreeFunctionRef nodes gain nothing from
// specialization and simply delegate to compileGeneric.
func compileSpecialized(fn *ir.Function, n *ir.Node) (compiledNode, error) {
	switch p := n.Payload.(type) {
	case *ir.Constant, *ir.GetVar, *ir.Closure, *ir.FreeFunctionRef:
		return compileGeneric(n)

	case *ir.SetVar:
		rhs, err := compileSpecialized(fn, p.RHS)
		if err != nil {
			return nil, err
		}
		v := p.Var
		kind := specializedVarKind(v)
		return func(frame []value.Value) (value.Value, bool, error) {
			val, returned, err := rhs(frame)
			if err != nil || returned {
				return nil, returned, err
			}
			if kind != types.Ref && !value.IsCompatible(kind, val) {
				dispatch.Raise("setvar: value does not match specialized kind")
			}
			frame[v.FrameIndex] = val
			return val, false, nil
		}, nil

	case *ir.Let:
		init, err := compileSpecialized(fn, p.Init)
		if err != nil {
			return nil, err
		}
		body, err := compileSpecialized(fn, p.Body)
		if err != nil {
			return nil, err
		}
		v := p.Var
		kind := specializedVarKind(v)
		return func(frame []value.Value) (value.Value, bool, error) {
			val, returned, err := init(frame)
			if err != nil || returned {
				return nil, returned, err
			}
			if kind != types.Ref && !value.IsCompatible(kind, val) {
				dispatch.Raise("let: initializer does not match specialized kind")
			}
			frame[v.FrameIndex] = val
			return body(frame)
		}, nil

	case *ir.If:
		if fused, err, ok := compileFusedIf(fn, p); ok {
			return fused, err
		}
		cond, err := compileSpecialized(fn, p.Cond)
		if err != nil {
			return nil, err
		}
		thenC, err := compileSpecialized(fn, p.Then)
		if err != nil {
			return nil, err
		}
		elseC, err := compileSpecialized(fn, p.Else)
		if err != nil {
			return nil, err
		}
		return func(frame []value.Value) (value.Value, bool, error) {
			cv, returned, err := cond(frame)
			if err != nil || returned {
				return nil, returned, err
			}
			b, ok := cv.(bool)
			if !ok {
				return nil, false, errs.NewRuntimeError("if condition is not bool")
			}
			if b {
				return thenC(frame)
			}
			return elseC(frame)
		}, nil

	case *ir.While:
		cond, err := compileSpecialized(fn, p.Cond)
		if err != nil {
			return nil, err
		}
		body, err := compileSpecialized(fn, p.Body)
		if err != nil {
			return nil, err
		}
		return func(frame []value.Value) (value.Value, bool, error) {
			for {
				cv, returned, err := cond(frame)
				if err != nil || returned {
					return nil, returned, err
				}
				b, ok := cv.(bool)
				if !ok {
					return nil, false, errs.NewRuntimeError("while condition is not bool")
				}
				if !b {
					return nil, false, nil
				}
				_, returned, err = body(frame)
				if err != nil || returned {
					return nil, returned, err
				}
			}
		}, nil

	case *ir.Block:
		stmts := make([]compiledNode, len(p.Stmts))
		for i, s := range p.Stmts {
			c, err := compileSpecialized(fn, s)
			if err != nil {
				return nil, err
			}
			stmts[i] = c
		}
		return func(frame []value.Value) (value.Value, bool, error) {
			var last value.Value
			for _, s := range stmts {
				v, returned, err := s(frame)
				if err != nil || returned {
					return v, returned, err
				}
				last = v
			}
			return last, false, nil
		}, nil

	case *ir.Return:
		if p.Value == nil {
			return func(frame []value.Value) (value.Value, bool, error) { return nil, true, nil }, nil
		}
		val, err := compileSpecialized(fn, p.Value)
		if err != nil {
			return nil, err
		}
		return func(frame []value.Value) (value.Value, bool, error) {
			v, _, err := val(frame)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		}, nil

	case *ir.Call:
		return compileSpecializedCall(fn, p)

	case *ir.Primitive:
		return compileSpecializedPrimitive(fn, p)

	default:
		return nil, errs.NewCompilerError("codegen: unhandled node kind %v", n.Kind)
	}
}

// compileFusedIf implements spec §4.7's OptimizedIf path: when the
// condition is a two-argument compare primitive whose operands are both
// statically Int, the fused form evaluates the two operands as raw int64
// and branches on the native Go comparison, never boxing an intermediate
// bool. The third return value reports whether fusion applied at all; when
// false the caller falls through to the ordinary boxed If compilation.
func compileFusedIf(fn *ir.Function, p *ir.If) (compiledNode, error, bool) {
	prim, ok := p.Cond.Payload.(*ir.Primitive)
	if !ok || len(prim.Args) != 2 {
		return nil, nil, false
	}
	branch, ok := compareBranches[prim.Op]
	if !ok {
		return nil, nil, false
	}
	if specializedKindOf(prim.Args[0]) != types.Int || specializedKindOf(prim.Args[1]) != types.Int {
		return nil, nil, false
	}

	lhs, err := compileSpecialized(fn, prim.Args[0])
	if err != nil {
		return nil, err, true
	}
	rhs, err := compileSpecialized(fn, prim.Args[1])
	if err != nil {
		return nil, err, true
	}
	thenC, err := compileSpecialized(fn, p.Then)
	if err != nil {
		return nil, err, true
	}
	elseC, err := compileSpecialized(fn, p.Else)
	if err != nil {
		return nil, err, true
	}
	compiled := func(frame []value.Value) (value.Value, bool, error) {
		lv, returned, err := lhs(frame)
		if err != nil || returned {
			return nil, returned, err
		}
		rv, returned, err := rhs(frame)
		if err != nil || returned {
			return nil, returned, err
		}
		li, ok := lv.(int64)
		if !ok {
			dispatch.Raise("fused compare: left operand is not int")
		}
		ri, ok := rv.(int64)
		if !ok {
			dispatch.Raise("fused compare: right operand is not int")
		}
		if branch(li, ri) {
			return thenC(frame)
		}
		return elseC(frame)
	}
	return compiled, nil, true
}

func compileSpecializedPrimitive(fn *ir.Function, p *ir.Primitive) (compiledNode, error) {
	op := builtin.Lookup(p.Op)
	if op == nil {
		return nil, errs.NewCompilerError("codegen: unknown primitive %q", p.Op)
	}
	args := make([]compiledNode, len(p.Args))
	for i, a := range p.Args {
		c, err := compileSpecialized(fn, a)
		if err != nil {
			return nil, err
		}
		args[i] = c
	}
	return func(frame []value.Value) (value.Value, bool, error) {
		vals, returned, err := evalArgs(args, frame)
		if err != nil || returned {
			return nil, returned, err
		}
		for _, v := range vals {
			if !value.IsCompatible(op.ArgKind, v) {
				dispatch.Raise("primitive operand does not match specialized kind")
			}
		}
		v, err := applyOp(op, vals)
		return v, false, err
	}, nil
}

func compileSpecializedCall(fn *ir.Function, p *ir.Call) (compiledNode, error) {
	args := make([]compiledNode, len(p.Args))
	for i, a := range p.Args {
		c, err := compileSpecialized(fn, a)
		if err != nil {
			return nil, err
		}
		args[i] = c
	}

	if p.Direct {
		target := p.DirectTarget
		return func(frame []value.Value) (value.Value, bool, error) {
			vals, returned, err := evalArgs(args, frame)
			if err != nil || returned {
				return nil, returned, err
			}
			v, err := dispatch.Invoke(target, nil, vals)
			return v, false, err
		}, nil
	}

	callee, err := compileGeneric(p.Callee)
	if err != nil {
		return nil, err
	}
	return func(frame []value.Value) (value.Value, bool, error) {
		vals, returned, err := evalArgs(args, frame)
		if err != nil || returned {
			return nil, returned, err
		}
		cv, returned, err := callee(frame)
		if err != nil || returned {
			return cv, returned, err
		}
		switch t := cv.(type) {
		case *ir.Function:
			v, err := dispatch.Invoke(t, nil, vals)
			return v, false, err
		case *ir.ClosureValue:
			v, err := dispatch.Invoke(t.Fn, t.Captured, vals)
			return v, false, err
		default:
			return nil, false, errs.NewRuntimeError("call target is not a function")
		}
	}, nil
}
