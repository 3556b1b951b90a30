// Package codegen implements the code generator (spec component C10): it
// turns a Function's already-analyzed, already-inferred, already-observed
// Node tree into a dispatch.GenericEntry and, when the function is
// specialization-eligible, a dispatch.SpecializedEntry. internal/unit calls
// Compile once per function on a compile trigger and publishes the result
// on the function's dispatch.Slot.
//
// There is no bytecode or machine code here: "compiled code" is a tree of
// Go closures built once by walking the Node tree, so that every
// subsequent call pays only for the logic a given node actually needs
// instead of re-switching on n.Payload on every evaluation the way
// internal/interp does. The generic entry and the specialized entry are
// two separately compiled closure trees over the same Node tree.
package codegen

import (
	"tierwalk/internal/builtin"
	"tierwalk/internal/dispatch"
	"tierwalk/internal/errs"
	"tierwalk/internal/ir"
	"tierwalk/internal/types"
	"tierwalk/internal/value"
)

// compiledNode is the shape every compiled subexpression takes: given a
// frame, produce its value, whether a Return unwound through it, and any
// error. Mirrors internal/interp's evaluator.eval signature exactly, since
// both tiers must agree on what a Node means.
type compiledNode func(frame []value.Value) (value.Value, bool, error)

// Compile builds fn's generic entry and, when fn is specialization-
// eligible, its specialized entry. A function is specialization-eligible
// iff at least one parameter's SpecializedKind is non-Ref; internal/unit
// is responsible for populating SpecializedParamKinds, SpecializedKind on
// each Variable, and SpecializedReturnKind from the inference/observation
// passes before calling Compile.
func Compile(fn *ir.Function) (dispatch.GenericEntry, dispatch.SpecializedEntry, error) {
	genericRoot, err := compileGeneric(fn.Body)
	if err != nil {
		return nil, nil, err
	}
	generic := func(captures, args []value.Value) (value.Value, error) {
		frame, err := bindFrame(fn, captures, args)
		if err != nil {
			return nil, err
		}
		v, returned, err := genericRoot(frame)
		if err != nil {
			return nil, err
		}
		if !returned {
			v = nil
		}
		return v, nil
	}

	if !specializationEligible(fn) {
		return generic, nil, nil
	}

	specializedRoot, err := compileSpecialized(fn, fn.Body)
	if err != nil {
		// A specialized tree that fails to compile is not fatal: the
		// function still runs correctly, just always through the generic
		// entry. This should only happen for a node kind codegen hasn't
		// learned to specialize yet, not for ordinary programs.
		return generic, nil, nil
	}
	specialized := func(captures, args []value.Value) (value.Value, error) {
		frame, err := bindFrame(fn, captures, args)
		if err != nil {
			return nil, err
		}
		v, returned, err := specializedRoot(frame)
		if err != nil {
			return nil, err
		}
		if !returned {
			v = nil
		}
		if retKind := fn.SpecializedReturnKind; retKind != types.Ref && !value.IsCompatible(retKind, v) {
			dispatch.Raise("return value does not match specialized return kind")
		}
		return v, nil
	}
	return generic, specialized, nil
}

// specializationEligible mirrors spec §4.6's definition exactly: at least
// one parameter's specialized kind must be non-Ref.
func specializationEligible(fn *ir.Function) bool {
	for _, k := range fn.SpecializedParamKinds {
		if k != types.Ref {
			return true
		}
	}
	return false
}

// bindFrame lays out one invocation's frame: args at their Params'
// FrameIndex, captures at their Captures' FrameIndex, exactly as
// internal/analysis's Indexer placed them.
func bindFrame(fn *ir.Function, captures, args []value.Value) ([]value.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, errs.NewRuntimeError("%s: called with %d arguments, want %d", fn.Name, len(args), len(fn.Params))
	}
	frame := make([]value.Value, fn.FrameSize)
	for i, a := range args {
		frame[fn.Params[i].FrameIndex] = a
	}
	for i, c := range fn.Captures {
		if i < len(captures) {
			frame[c.FrameIndex] = captures[i]
		}
	}
	return frame, nil
}

func evalArgs(args []compiledNode, frame []value.Value) ([]value.Value, bool, error) {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, returned, err := a(frame)
		if err != nil || returned {
			return nil, returned, err
		}
		vals[i] = v
	}
	return vals, false, nil
}

// compileGeneric walks n once, switching on its payload exactly once per
// node rather than once per evaluation, and returns the closure that
// re-plays that logic on every call.
func compileGeneric(n *ir.Node) (compiledNode, error) {
	switch p := n.Payload.(type) {
	case *ir.Constant:
		v := p.Value
		return func(frame []value.Value) (value.Value, bool, error) { return v, false, nil }, nil

	case *ir.GetVar:
		v := p.Var
		return func(frame []value.Value) (value.Value, bool, error) { return frame[v.FrameIndex], false, nil }, nil

	case *ir.SetVar:
		rhs, err := compileGeneric(p.RHS)
		if err != nil {
			return nil, err
		}
		v := p.Var
		return func(frame []value.Value) (value.Value, bool, error) {
			val, returned, err := rhs(frame)
			if err != nil || returned {
				return nil, returned, err
			}
			frame[v.FrameIndex] = val
			return val, false, nil
		}, nil

	case *ir.Let:
		init, err := compileGeneric(p.Init)
		if err != nil {
			return nil, err
		}
		body, err := compileGeneric(p.Body)
		if err != nil {
			return nil, err
		}
		v := p.Var
		return func(frame []value.Value) (value.Value, bool, error) {
			val, returned, err := init(frame)
			if err != nil || returned {
				return nil, returned, err
			}
			frame[v.FrameIndex] = val
			return body(frame)
		}, nil

	case *ir.If:
		cond, err := compileGeneric(p.Cond)
		if err != nil {
			return nil, err
		}
		thenC, err := compileGeneric(p.Then)
		if err != nil {
			return nil, err
		}
		elseC, err := compileGeneric(p.Else)
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
		cond, err := compileGeneric(p.Cond)
		if err != nil {
			return nil, err
		}
		body, err := compileGeneric(p.Body)
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
			c, err := compileGeneric(s)
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
		val, err := compileGeneric(p.Value)
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
		return compileGenericCall(p)

	case *ir.Primitive:
		op := builtin.Lookup(p.Op)
		if op == nil {
			return nil, errs.NewCompilerError("codegen: unknown primitive %q", p.Op)
		}
		args := make([]compiledNode, len(p.Args))
		for i, a := range p.Args {
			c, err := compileGeneric(a)
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
			v, err := applyOp(op, vals)
			return v, false, err
		}, nil

	case *ir.Closure:
		suppliers := make([]compiledNode, len(p.Captures))
		for i, c := range p.Captures {
			cn, err := compileGeneric(c.Supplier)
			if err != nil {
				return nil, err
			}
			suppliers[i] = cn
		}
		fn := p.Fn
		return func(frame []value.Value) (value.Value, bool, error) {
			captured, returned, err := evalArgs(suppliers, frame)
			if err != nil || returned {
				return nil, returned, err
			}
			return &ir.ClosureValue{Fn: fn, Captured: captured}, false, nil
		}, nil

	case *ir.FreeFunctionRef:
		fn := p.Fn
		return func(frame []value.Value) (value.Value, bool, error) { return fn, false, nil }, nil

	default:
		return nil, errs.NewCompilerError("codegen: unhandled node kind %v", n.Kind)
	}
}

func compileGenericCall(p *ir.Call) (compiledNode, error) {
	args := make([]compiledNode, len(p.Args))
	for i, a := range p.Args {
		c, err := compileGeneric(a)
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

// applyOp calls the already-resolved Op's Apply1/Apply2 directly, skipping
// the name-indexed registry lookup builtin.Apply performs on every
// invocation; compileGeneric only pays that lookup once, at compile time.
func applyOp(op *builtin.Op, args []value.Value) (value.Value, error) {
	switch len(args) {
	case 1:
		return op.Apply1(args[0])
	case 2:
		return op.Apply2(args[0], args[1])
	default:
		return nil, errs.NewRuntimeError("primitive %q called with %d arguments", op.Name, len(args))
	}
}
