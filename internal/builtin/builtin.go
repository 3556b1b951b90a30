// Package builtin implements the primitive operator contract: the fixed
// set of INT/BOOL operations every execution tier and the code generator
// agree on. Per spec this runtime does not define a general primitive
// extension mechanism — only the specific contract named here, looked up
// by name from a Primitive node.
package builtin

import (
	"tierwalk/internal/errs"
	"tierwalk/internal/types"
	"tierwalk/internal/value"
)

// Op describes one primitive: how many arguments it takes, the static
// result kind its arguments' kinds imply, whether it is suitable as the
// fused operand of an OptimizedIf (a comparison whose boolean result is
// about to be branched on and need never be boxed), and how to apply it to
// concrete values.
type Op struct {
	Name       string
	Arity      int
	ArgKind    types.Kind // the single kind every argument must have
	ResultKind types.Kind
	IsCompare  bool
	Apply2     func(a, b value.Value) (value.Value, error)
	Apply1     func(a value.Value) (value.Value, error)
}

var registry = buildRegistry()

// Lookup returns the Op registered under name, or nil if there is none.
func Lookup(name string) *Op {
	return registry[name]
}

func buildRegistry() map[string]*Op {
	r := make(map[string]*Op)
	arith := []struct {
		name string
		fn   func(a, b int64) int64
	}{
		{"add", func(a, b int64) int64 { return a + b }},
		{"sub", func(a, b int64) int64 { return a - b }},
		{"mul", func(a, b int64) int64 { return a * b }},
	}
	for _, a := range arith {
		fn := a.fn
		r[a.name] = &Op{
			Name: a.name, Arity: 2, ArgKind: types.Int, ResultKind: types.Int,
			Apply2: func(x, y value.Value) (value.Value, error) {
				xi, yi, err := twoInts(a.name, x, y)
				if err != nil {
					return nil, err
				}
				return fn(xi, yi), nil
			},
		}
	}
	r["div"] = &Op{
		Name: "div", Arity: 2, ArgKind: types.Int, ResultKind: types.Int,
		Apply2: func(x, y value.Value) (value.Value, error) {
			xi, yi, err := twoInts("div", x, y)
			if err != nil {
				return nil, err
			}
			if yi == 0 {
				return nil, errs.NewRuntimeError("division by zero")
			}
			return xi / yi, nil
		},
	}
	r["mod"] = &Op{
		Name: "mod", Arity: 2, ArgKind: types.Int, ResultKind: types.Int,
		Apply2: func(x, y value.Value) (value.Value, error) {
			xi, yi, err := twoInts("mod", x, y)
			if err != nil {
				return nil, err
			}
			if yi == 0 {
				return nil, errs.NewRuntimeError("modulo by zero")
			}
			return xi % yi, nil
		},
	}

	cmp := []struct {
		name string
		fn   func(a, b int64) bool
	}{
		{"lt", func(a, b int64) bool { return a < b }},
		{"le", func(a, b int64) bool { return a <= b }},
		{"gt", func(a, b int64) bool { return a > b }},
		{"ge", func(a, b int64) bool { return a >= b }},
		{"eq", func(a, b int64) bool { return a == b }},
		{"ne", func(a, b int64) bool { return a != b }},
	}
	for _, c := range cmp {
		fn := c.fn
		r[c.name] = &Op{
			Name: c.name, Arity: 2, ArgKind: types.Int, ResultKind: types.Bool, IsCompare: true,
			Apply2: func(x, y value.Value) (value.Value, error) {
				xi, yi, err := twoInts(c.name, x, y)
				if err != nil {
					return nil, err
				}
				return fn(xi, yi), nil
			},
		}
	}

	r["and"] = &Op{
		Name: "and", Arity: 2, ArgKind: types.Bool, ResultKind: types.Bool,
		Apply2: func(x, y value.Value) (value.Value, error) {
			xb, yb, err := twoBools("and", x, y)
			if err != nil {
				return nil, err
			}
			return xb && yb, nil
		},
	}
	r["or"] = &Op{
		Name: "or", Arity: 2, ArgKind: types.Bool, ResultKind: types.Bool,
		Apply2: func(x, y value.Value) (value.Value, error) {
			xb, yb, err := twoBools("or", x, y)
			if err != nil {
				return nil, err
			}
			return xb || yb, nil
		},
	}
	r["not"] = &Op{
		Name: "not", Arity: 1, ArgKind: types.Bool, ResultKind: types.Bool,
		Apply1: func(x value.Value) (value.Value, error) {
			xb, ok := x.(bool)
			if !ok {
				return nil, errs.NewRuntimeError("not: argument is not bool")
			}
			return !xb, nil
		},
	}
	r["neg"] = &Op{
		Name: "neg", Arity: 1, ArgKind: types.Int, ResultKind: types.Int,
		Apply1: func(x value.Value) (value.Value, error) {
			xi, ok := x.(int64)
			if !ok {
				return nil, errs.NewRuntimeError("neg: argument is not int")
			}
			return -xi, nil
		},
	}
	return r
}

func twoInts(op string, a, b value.Value) (int64, int64, error) {
	ai, ok := a.(int64)
	if !ok {
		return 0, 0, errs.NewRuntimeError("%s: left argument is not int", op)
	}
	bi, ok := b.(int64)
	if !ok {
		return 0, 0, errs.NewRuntimeError("%s: right argument is not int", op)
	}
	return ai, bi, nil
}

func twoBools(op string, a, b value.Value) (bool, bool, error) {
	ab, ok := a.(bool)
	if !ok {
		return false, false, errs.NewRuntimeError("%s: left argument is not bool", op)
	}
	bb, ok := b.(bool)
	if !ok {
		return false, false, errs.NewRuntimeError("%s: right argument is not bool", op)
	}
	return ab, bb, nil
}

// Apply dispatches to the registered Op's Apply1 or Apply2 by arity,
// returning a RuntimeError if name isn't registered at all (a condition
// that should have been caught at build time, but the interpreter tiers
// treat it as a runtime failure rather than panicking).
func Apply(name string, args []value.Value) (value.Value, error) {
	op := Lookup(name)
	if op == nil {
		return nil, errs.NewRuntimeError("unknown primitive %q", name)
	}
	switch len(args) {
	case 1:
		if op.Apply1 == nil {
			return nil, errs.NewRuntimeError("primitive %q is not unary", name)
		}
		return op.Apply1(args[0])
	case 2:
		if op.Apply2 == nil {
			return nil, errs.NewRuntimeError("primitive %q is not binary", name)
		}
		return op.Apply2(args[0], args[1])
	default:
		return nil, errs.NewRuntimeError("primitive %q called with %d arguments", name, len(args))
	}
}
