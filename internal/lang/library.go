// Package lang is the outward-facing library surface (spec §6's
// "Expression builder (inbound)"/"Callable value surface (outbound)"
// contracts): Library binds named top-level Functions, UserFunction
// wraps one such binding with a Call surface that drives the
// compile-on-demand tier upgrades transparently, and Closure exposes the
// arity-0/1/2 invocation contract over a captured ClosureValue. None of
// this builds IR trees itself — that remains the caller's job via
// internal/ir's node constructors, exactly as spec.md's Non-goals (the
// surface expression builder is out of scope) intend; Library only takes
// already-built *ir.Function values and makes them callable.
package lang

import (
	"sync"

	"tierwalk/internal/dispatch"
	"tierwalk/internal/errs"
	"tierwalk/internal/ir"
	"tierwalk/internal/unit"
	"tierwalk/internal/value"
)

// Library is a named collection of top-level Functions bound for external
// invocation, backed by one unit.Driver. Self-reference for direct
// recursion needs no placeholder mechanism of its own here: a caller
// builds the *ir.Function first (NewFunction returns a pointer immediately)
// and is free to reference that same pointer from within the body it
// assigns afterward, before ever calling Define.
type Library struct {
	driver *unit.Driver

	mu        sync.Mutex
	functions map[string]*UserFunction
	names     map[*ir.Function]string
}

// New builds a Library over driver, which must already have had Wire
// called so dispatch.Invoke is ready to bootstrap a Function's first call.
func New(driver *unit.Driver) *Library {
	return &Library{
		driver:    driver,
		functions: make(map[string]*UserFunction),
		names:     make(map[*ir.Function]string),
	}
}

// Define binds fn under name, returning the UserFunction wrapper spec §6
// says the translator "hands back" for a top-level function. Redefining an
// existing name replaces the old binding but does not affect any
// UserFunction or Closure a caller is still holding onto.
func (l *Library) Define(name string, fn *ir.Function) *UserFunction {
	l.mu.Lock()
	defer l.mu.Unlock()
	uf := &UserFunction{name: name, fn: fn, lib: l}
	l.functions[name] = uf
	l.names[fn] = name
	return uf
}

// Lookup finds a previously defined binding by name.
func (l *Library) Lookup(name string) (*UserFunction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	uf, ok := l.functions[name]
	return uf, ok
}

// NameOf reports the name fn was bound under, if any. A nested (closure)
// Function, or a top-level one never passed to Define, has none — this is
// the "optional association" supplementing spec.md's data model with the
// original implementation's FunctionImplementation.name().
func (l *Library) NameOf(fn *ir.Function) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name, ok := l.names[fn]
	return name, ok
}

// Names lists every currently bound name, in no particular order.
func (l *Library) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.functions))
	for name := range l.functions {
		out = append(out, name)
	}
	return out
}

// Driver exposes the underlying unit.Driver, e.g. for cmd/tierwalk's
// --timings and watch-TUI wiring, which need it directly rather than
// through a UserFunction.
func (l *Library) Driver() *unit.Driver { return l.driver }

// UserFunction is a top-level Function bound in a Library. Calling it is
// the only way external code invokes into the runtime; every call goes
// through dispatch.Invoke, so a UserFunction transparently rides whatever
// tier its unit is currently running at and triggers a compile exactly as
// if it had been called directly from Lisp-level code.
type UserFunction struct {
	name string
	fn   *ir.Function
	lib  *Library
}

// Name returns the name this UserFunction was bound under.
func (u *UserFunction) Name() string { return u.name }

// Function exposes the wrapped *ir.Function, e.g. for unit.Driver.Registry
// lookups or introspection.
func (u *UserFunction) Function() *ir.Function { return u.fn }

// State reports the Function's current position in its compilation state
// machine.
func (u *UserFunction) State() ir.State { return u.fn.State() }

// Call invokes the Function with args, bootstrapping it through the
// profiling tier on its very first call if it has never been invoked
// before. Arity must match exactly; a mismatch is a RuntimeError, per
// spec §7 (the user-visible failure kind), not a panic.
func (u *UserFunction) Call(args []value.Value) (value.Value, error) {
	if len(args) != len(u.fn.Params) {
		return nil, errs.NewRuntimeError("%s: called with %d arguments, want %d", u.name, len(args), len(u.fn.Params))
	}
	return dispatch.Invoke(u.fn, nil, args)
}

// ForceCompile compiles this binding's unit immediately rather than
// waiting for the profiling interpreter to cross the configured
// threshold on its own. The CompilerError spec §7 calls internal-only
// becomes caller-visible here, exactly as SPEC_FULL.md's ambient-errors
// section names as the one sanctioned crossing point.
func (u *UserFunction) ForceCompile() error {
	return u.lib.driver.ForceCompile(u.fn)
}

// Closure is the arity-0/1/2 callable value surface spec §6 names
// ("Callable value surface (outbound)"): a ClosureValue handed back from
// evaluating a Closure node, wrapped so external code can invoke it
// without reaching into internal/ir directly.
type Closure struct {
	cv *ir.ClosureValue
}

// WrapClosure adapts a raw ClosureValue (as returned inside a Call's
// evaluated arguments, or via introspection) into the outward-facing
// Closure surface.
func WrapClosure(cv *ir.ClosureValue) *Closure { return &Closure{cv: cv} }

// Call invokes the closure with args; only arities 0, 1, and 2 are
// supported, matching spec §6 exactly ("others -> unsupported").
func (c *Closure) Call(args []value.Value) (value.Value, error) {
	switch len(args) {
	case 0, 1, 2:
		return dispatch.Invoke(c.cv.Fn, c.cv.Captured, args)
	default:
		return nil, errs.NewRuntimeError("closure: arity %d is unsupported (only 0, 1, 2 are)", len(args))
	}
}

// Call0 invokes a zero-argument closure.
func (c *Closure) Call0() (value.Value, error) { return c.Call(nil) }

// Call1 invokes a one-argument closure.
func (c *Closure) Call1(a value.Value) (value.Value, error) { return c.Call([]value.Value{a}) }

// Call2 invokes a two-argument closure.
func (c *Closure) Call2(a, b value.Value) (value.Value, error) {
	return c.Call([]value.Value{a, b})
}
