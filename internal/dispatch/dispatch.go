// Package dispatch implements the mutable call site (spec component
// C11) shared by every execution tier. A Function's CallSite holds one
// *Slot, swapped atomically whenever the owning compilation unit upgrades
// from the profiling interpreter to the plain interpreter or to compiled
// code. Every call in the runtime, whether from outside or from one
// Function's body calling another, goes through Invoke, which is what
// lets a hot call site upgrade invisibly to its callers.
//
// This package deliberately knows nothing about internal/unit,
// internal/interp, or internal/codegen: Bootstrap is the one hook those
// packages wire in (from internal/unit, at process startup) to produce a
// fresh Slot the first time a Function is called. Keeping the dependency
// one-way (interp and unit import dispatch; dispatch imports neither) is
// what avoids turning "every tier can call every other tier" into an
// import cycle.
package dispatch

import (
	"sync/atomic"

	"tierwalk/internal/errs"
	"tierwalk/internal/ir"
	"tierwalk/internal/value"
)

// GenericEntry accepts a closure's captured values (nil for a top-level,
// capture-free Function) and boxed arguments, and returns a boxed result.
// Every Slot always has one, however the Function is currently executed.
// Captures travel alongside args rather than being baked into the entry
// itself because one Function's Slot, and therefore its compiled code, is
// shared across every closure instance built over that Function — only
// the captured values differ per instance.
type GenericEntry func(captures, args []value.Value) (value.Value, error)

// SpecializedEntry is the narrower, kind-checked entry internal/codegen
// produces once a Function is compiled with a concrete parameter/return
// signature. A Slot only calls it when the caller's argument kinds match
// the Function's SpecializedParamKinds; a mismatch discovered deeper
// inside it (the "square peg" case) is reported via Raise and caught here,
// never propagated past this package.
type SpecializedEntry func(captures, args []value.Value) (value.Value, error)

// squarePeg is raised, strictly inside the dispatch guard's dynamic
// extent, when specialized code discovers at runtime that a value it
// already began operating on does not fit its assumed kind. It must never
// be observable as a panic anywhere else: callGuarded recovers it immediately
// and falls back to the generic entry.
type squarePeg struct{ reason string }

// Raise reports a square-peg failure from inside a SpecializedEntry.
// Calling it anywhere outside a SpecializedEntry invoked through a Slot
// is a bug: there is nothing to catch the resulting panic.
func Raise(reason string) {
	panic(squarePeg{reason: reason})
}

type entryPair struct {
	Generic     GenericEntry
	Specialized SpecializedEntry
}

// Slot is one Function's mutable call target.
type Slot struct {
	fn     *ir.Function
	target atomic.Pointer[entryPair]
}

// NewSlot builds a Slot with only a generic entry; Publish adds a
// specialized one once the owning unit compiles.
func NewSlot(fn *ir.Function, generic GenericEntry) *Slot {
	s := &Slot{fn: fn}
	s.target.Store(&entryPair{Generic: generic})
	return s
}

// SetGeneric atomically replaces the generic entry, leaving any
// specialized entry in place.
func (s *Slot) SetGeneric(g GenericEntry) {
	for {
		old := s.target.Load()
		next := &entryPair{Generic: g, Specialized: old.Specialized}
		if s.target.CompareAndSwap(old, next) {
			return
		}
	}
}

// Publish atomically replaces both entries at once, so that callers never
// observe a generic entry from one compilation paired with a specialized
// entry from another. internal/unit calls this once per Function after a
// successful compile, back to back across every Function in the unit. A
// concurrent caller can see one Function's Slot published before a
// sibling's; that is safe, since compiled code reaches every callee
// through Invoke and never assumes a sibling's Slot has switched over.
func (s *Slot) Publish(g GenericEntry, sp SpecializedEntry) {
	s.target.Store(&entryPair{Generic: g, Specialized: sp})
}

// Invoke runs captures and args through this Slot's current target,
// trying the specialized entry first when the argument kinds fit its
// signature, and falling back to the generic entry otherwise or if the
// specialized entry raises a square-peg signal partway through.
func (s *Slot) Invoke(captures, args []value.Value) (value.Value, error) {
	pair := s.target.Load()
	if pair.Specialized != nil && s.argsMatchSpecialized(args) {
		v, err, caught := callGuarded(pair.Specialized, captures, args)
		if !caught {
			return v, err
		}
	}
	return pair.Generic(captures, args)
}

func (s *Slot) argsMatchSpecialized(args []value.Value) bool {
	kinds := s.fn.SpecializedParamKinds
	if len(kinds) != len(args) {
		return false
	}
	for i, k := range kinds {
		if !value.IsCompatible(k, args[i]) {
			return false
		}
	}
	return true
}

// callGuarded invokes sp, recovering a square-peg panic and reporting it
// through the caught return rather than letting it propagate. Any other
// panic is a genuine bug in the compiled code and is allowed to continue
// unwinding.
func callGuarded(sp SpecializedEntry, captures, args []value.Value) (v value.Value, err error, caught bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(squarePeg); ok {
				caught = true
				return
			}
			panic(r)
		}
	}()
	v, err = sp(captures, args)
	return v, err, false
}

// Bootstrap produces the first GenericEntry for a Function that has never
// been called before. internal/unit sets this at startup to run the
// Function's analyzer passes and hand back a profiling-interpreter entry.
// Left nil, Invoke reports a CompilerError instead of panicking, which
// matters for this package's own tests and for any caller that invokes a
// Function before internal/unit has finished wiring itself in.
var Bootstrap func(fn *ir.Function) GenericEntry

// Invoke is the package-level entry point used by every Call node and by
// the outward-facing library surface: it finds or creates fn's Slot, then
// delegates to Slot.Invoke. Pass a nil captures slice for a top-level,
// capture-free Function.
func Invoke(fn *ir.Function, captures, args []value.Value) (value.Value, error) {
	slot, ok := fn.CallSite.(*Slot)
	if !ok || slot == nil {
		if Bootstrap == nil {
			return nil, errs.NewCompilerError("dispatch: %q has no call site and no Bootstrap hook is wired", fn.Name)
		}
		generic := Bootstrap(fn)
		slot = NewSlot(fn, generic)
		fn.CallSite = slot
	}
	return slot.Invoke(captures, args)
}
