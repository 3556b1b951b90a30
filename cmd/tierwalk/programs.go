package main

import (
	"sort"

	"tierwalk/internal/ir"
)

// programs is the CLI's fixed set of runnable demo functions, built
// directly with internal/ir's constructors. Spec's Non-goals keep the
// surface expression builder (a Lisp-syntax parser) out of scope, so `run`,
// `inspect`, and `watch` all operate on these pre-built trees rather than on
// arbitrary source text — this is the embedded-programs resolution to that
// gap, recorded in DESIGN.md.
var programs = map[string]func() *ir.Function{
	"fib":        buildFib,
	"sum-to-n":   buildSumToN,
	"make-adder": buildMakeAdder,
}

// programNames lists every registered demo program, sorted for stable
// --help and error-message output.
func programNames() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildFib builds a recursive `fib(n) = if n < 2 then n else fib(n-1) +
// fib(n-2)`, exercising a DirectCall back into its own Function — the
// self-reference a caller gets for free from NewFunction returning a
// pointer before Body is ever assigned.
func buildFib() *ir.Function {
	fn := ir.NewFunction("fib", []string{"n"})
	n := fn.Params[0]

	cond := ir.NewPrimitive("lt", []*ir.Node{ir.NewGetVar(n), ir.NewConstant(int64(2))})
	recurseLeft := ir.NewDirectCall(fn, []*ir.Node{
		ir.NewPrimitive("sub", []*ir.Node{ir.NewGetVar(n), ir.NewConstant(int64(1))}),
	})
	recurseRight := ir.NewDirectCall(fn, []*ir.Node{
		ir.NewPrimitive("sub", []*ir.Node{ir.NewGetVar(n), ir.NewConstant(int64(2))}),
	})
	sum := ir.NewPrimitive("add", []*ir.Node{recurseLeft, recurseRight})

	fn.Body = ir.NewReturn(ir.NewIf(cond, ir.NewGetVar(n), sum))
	return fn
}

// buildSumToN builds an iterative `sum-to-n(n) = 0 + 1 + ... + (n-1)` over
// two Let-bound locals, the same While-loop shape internal/interp's own
// tests exercise.
func buildSumToN() *ir.Function {
	fn := ir.NewFunction("sum-to-n", []string{"n"})
	n := fn.Params[0]
	sum := ir.NewLetBound("sum", fn, 1)
	i := ir.NewLetBound("i", fn, 2)
	fn.FrameSize = 3

	loop := ir.NewWhile(
		ir.NewPrimitive("lt", []*ir.Node{ir.NewGetVar(i), ir.NewGetVar(n)}),
		ir.NewBlock([]*ir.Node{
			ir.NewSetVar(sum, ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(sum), ir.NewGetVar(i)})),
			ir.NewSetVar(i, ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(i), ir.NewConstant(int64(1))})),
		}),
	)

	fn.Body = ir.NewLet(sum, ir.NewConstant(int64(0)),
		ir.NewLet(i, ir.NewConstant(int64(0)),
			ir.NewBlock([]*ir.Node{loop, ir.NewReturn(ir.NewGetVar(sum))}),
		),
	)
	return fn
}

// buildMakeAdder builds `make-adder(n)`, a top-level Function whose body is
// a single Closure literal: calling it hands back a ClosureValue over a
// nested `adder(x) = x + n`, the outbound callable-value surface
// internal/lang.Closure wraps.
func buildMakeAdder() *ir.Function {
	outer := ir.NewFunction("make-adder", []string{"n"})
	inner := ir.NewFunction("adder", []string{"x"})
	inner.Parent = outer

	capture := ir.NewCopiedVariable("n", inner, len(inner.Params), outer.Params[0], ir.NewGetVar(outer.Params[0]))
	inner.Captures = []*ir.Variable{capture}
	inner.FrameSize = len(inner.Params) + 1
	inner.Body = ir.NewReturn(ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(inner.Params[0]), ir.NewGetVar(capture)}))

	outer.Nested = []*ir.Function{inner}
	outer.Body = ir.NewReturn(ir.NewClosure(inner, []*ir.Variable{capture}))
	return outer
}
