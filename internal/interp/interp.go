// Package interp implements the two tree-walking execution tiers (spec
// components C7 and C8): RunProfiling, which evaluates a Function's body
// while recording the profile data internal/observe later reads, and
// RunPlain, which evaluates the identical tree without paying for any of
// that bookkeeping. Both share one evaluator; profiling is a boolean
// threaded through rather than a second copy of the walk, since the two
// tiers must never drift out of sync on what a given Node means.
package interp

import (
	"tierwalk/internal/builtin"
	"tierwalk/internal/errs"
	"tierwalk/internal/ir"
	"tierwalk/internal/types"
	"tierwalk/internal/value"
)

// Invoke is how this package makes a call to another Function reachable
// through a dispatch call site rather than by recursing straight back into
// this package's own evaluator. internal/unit sets this once, at startup,
// to internal/dispatch's Invoke: wiring it here rather than importing
// internal/dispatch directly keeps this package free of any dependency on
// the dispatch/codegen machinery, which in turn depends on this package's
// entry points. If left nil (as in this package's own unit tests) calls
// fall back to invoking the callee with the same tier directly, skipping
// the tier-upgrade machinery entirely.
var Invoke func(fn *ir.Function, captures, args []value.Value) (value.Value, error)

// CompileTrigger is called after every profiling invocation of a top-level
// Function (one with no Parent), so internal/unit can check the
// invocation counter against its configured threshold and kick off a
// compile without this package needing to import internal/unit or
// internal/config to know what that threshold is. Left nil in this
// package's own tests, where no tier promotion is exercised.
var CompileTrigger func(fn *ir.Function)

// RunProfiling evaluates fn.Body with args bound to its parameters,
// recording invocation counts, per-parameter and return value profiles,
// and If branch-taken counters as it goes. fn must not itself require
// captures; a ClosureValue is invoked through InvokeClosure instead.
func RunProfiling(fn *ir.Function, args []value.Value) (value.Value, error) {
	return run(fn, nil, args, true)
}

// RunPlain evaluates fn.Body with args bound to its parameters, without
// touching any profile data.
func RunPlain(fn *ir.Function, args []value.Value) (value.Value, error) {
	return run(fn, nil, args, false)
}

// InvokeClosure runs a ClosureValue built by a prior Closure evaluation,
// binding its captured values alongside args. internal/lang uses this to
// call a closure handed back across the library boundary.
func InvokeClosure(cv *ir.ClosureValue, args []value.Value, profiling bool) (value.Value, error) {
	return run(cv.Fn, cv.Captured, args, profiling)
}

// RunTier is the general form RunProfiling/RunPlain/InvokeClosure all
// specialize: internal/unit uses it directly to build the
// dispatch.GenericEntry adapters for the profiling and plain tiers, since
// at that point it has a bare captures slice (from a call site) rather
// than an already-built ClosureValue.
func RunTier(fn *ir.Function, captures, args []value.Value, profiling bool) (value.Value, error) {
	return run(fn, captures, args, profiling)
}

// run binds captures and args into a fresh frame and evaluates fn.Body.
// captures is nil for a top-level, capture-free Function; InvokeClosure
// and evalCall's closure-call path are the only callers that pass a
// non-nil one.
func run(fn *ir.Function, captures, args []value.Value, profiling bool) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, errs.NewRuntimeError("%s: called with %d arguments, want %d", fn.Name, len(args), len(fn.Params))
	}
	if profiling {
		fn.Profile.RecordInvocation(args, value.KindOf)
		if fn.Parent == nil && CompileTrigger != nil {
			CompileTrigger(fn)
		}
	}
	frame := make([]value.Value, fn.FrameSize)
	for i, a := range args {
		frame[fn.Params[i].FrameIndex] = a
		if profiling {
			fn.Params[i].Profile.Observe(a, value.KindOf(a))
		}
	}
	for i, c := range fn.Captures {
		if i < len(captures) {
			frame[c.FrameIndex] = captures[i]
		}
	}
	ev := &evaluator{fn: fn, frame: frame, profiling: profiling}
	val, returned, err := ev.eval(fn.Body)
	if err != nil {
		return nil, err
	}
	if !returned {
		val = nil // a body that falls off the end without Return yields Void
	}
	if profiling {
		fn.Profile.RecordReturn(val, value.KindOf)
	}
	return val, nil
}

// evaluator holds the state threaded through one invocation's tree walk.
type evaluator struct {
	fn        *ir.Function
	frame     []value.Value
	profiling bool
}

// eval returns the node's value, whether a Return has unwound through it,
// and any error. A tree-walking interpreter's Return is ordinary Go
// control flow here (a propagated bool), not a panic: panic/recover is
// reserved for the square-peg signal in internal/dispatch.
func (ev *evaluator) eval(n *ir.Node) (value.Value, bool, error) {
	switch p := n.Payload.(type) {
	case *ir.Constant:
		return p.Value, false, nil

	case *ir.GetVar:
		return ev.slot(p.Var), false, nil

	case *ir.SetVar:
		v, returned, err := ev.eval(p.RHS)
		if err != nil || returned {
			return nil, returned, err
		}
		ev.setSlot(p.Var, v)
		return v, false, nil

	case *ir.Let:
		v, returned, err := ev.eval(p.Init)
		if err != nil || returned {
			return nil, returned, err
		}
		ev.setSlot(p.Var, v)
		return ev.eval(p.Body)

	case *ir.If:
		condVal, returned, err := ev.eval(p.Cond)
		if err != nil || returned {
			return nil, returned, err
		}
		cond, ok := condVal.(bool)
		if !ok {
			return nil, false, errs.NewRuntimeError("if condition is not bool")
		}
		if cond {
			if ev.profiling {
				p.TakenCount++
			}
			return ev.eval(p.Then)
		}
		if ev.profiling {
			p.NotTakenCount++
		}
		return ev.eval(p.Else)

	case *ir.While:
		for {
			condVal, returned, err := ev.eval(p.Cond)
			if err != nil || returned {
				return nil, returned, err
			}
			cond, ok := condVal.(bool)
			if !ok {
				return nil, false, errs.NewRuntimeError("while condition is not bool")
			}
			if !cond {
				return nil, false, nil
			}
			_, returned, err = ev.eval(p.Body)
			if err != nil || returned {
				return nil, returned, err
			}
		}

	case *ir.Block:
		var last value.Value
		for _, s := range p.Stmts {
			v, returned, err := ev.eval(s)
			if err != nil || returned {
				return v, returned, err
			}
			last = v
		}
		return last, false, nil

	case *ir.Return:
		if p.Value == nil {
			return nil, true, nil
		}
		v, _, err := ev.eval(p.Value)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil

	case *ir.Call:
		return ev.evalCall(p)

	case *ir.Primitive:
		args := make([]value.Value, len(p.Args))
		for i, a := range p.Args {
			v, returned, err := ev.eval(a)
			if err != nil || returned {
				return v, returned, err
			}
			args[i] = v
		}
		v, err := builtin.Apply(p.Op, args)
		return v, false, err

	case *ir.Closure:
		captured := make([]value.Value, len(p.Captures))
		for i, c := range p.Captures {
			v, returned, err := ev.eval(c.Supplier)
			if err != nil || returned {
				return v, returned, err
			}
			captured[i] = v
		}
		return &ir.ClosureValue{Fn: p.Fn, Captured: captured}, false, nil

	case *ir.FreeFunctionRef:
		return p.Fn, false, nil

	default:
		return nil, false, errs.NewRuntimeError("interp: unhandled node kind %v", n.Kind)
	}
}

func (ev *evaluator) evalCall(p *ir.Call) (value.Value, bool, error) {
	args := make([]value.Value, len(p.Args))
	for i, a := range p.Args {
		v, returned, err := ev.eval(a)
		if err != nil || returned {
			return v, returned, err
		}
		args[i] = v
	}

	if p.Direct {
		v, err := ev.dispatch(p.DirectTarget, nil, args)
		return v, false, err
	}

	calleeVal, returned, err := ev.eval(p.Callee)
	if err != nil || returned {
		return calleeVal, returned, err
	}
	if ev.profiling {
		p.Profile.Observe(calleeVal, types.Ref)
	}
	switch callee := calleeVal.(type) {
	case *ir.Function:
		v, err := ev.dispatch(callee, nil, args)
		return v, false, err
	case *ir.ClosureValue:
		v, err := ev.dispatch(callee.Fn, callee.Captured, args)
		return v, false, err
	default:
		return nil, false, errs.NewRuntimeError("call target is not a function")
	}
}

// dispatch routes a call through Invoke when wired, so that a repeatedly-
// called function can be promoted to a faster tier between calls; absent
// that wiring it just runs the callee at the current tier, which keeps
// this package self-sufficient for its own tests.
func (ev *evaluator) dispatch(fn *ir.Function, captures, args []value.Value) (value.Value, error) {
	if Invoke != nil {
		return Invoke(fn, captures, args)
	}
	return run(fn, captures, args, ev.profiling)
}

func (ev *evaluator) slot(v *ir.Variable) value.Value {
	return ev.frame[v.FrameIndex]
}

func (ev *evaluator) setSlot(v *ir.Variable, val value.Value) {
	ev.frame[v.FrameIndex] = val
	if ev.profiling {
		v.Profile.Observe(val, value.KindOf(val))
	}
}
