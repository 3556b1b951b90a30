// Package unit implements the compilation-unit driver (spec component C9):
// the one piece of the runtime that knows about internal/dispatch,
// internal/interp, and internal/codegen all at once. It wires
// dispatch.Bootstrap and interp.CompileTrigger at startup, owns each
// Function's Invalid->Profiling->Compiling->Compiled transitions, and on a
// compile trigger runs analysis once, then infer+observe+codegen for the
// whole unit before swapping every Function's dispatch.Slot over together.
package unit

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"tierwalk/internal/analysis"
	"tierwalk/internal/codegen"
	"tierwalk/internal/config"
	"tierwalk/internal/dispatch"
	"tierwalk/internal/infer"
	"tierwalk/internal/interp"
	"tierwalk/internal/ir"
	"tierwalk/internal/observ"
	"tierwalk/internal/observe"
	"tierwalk/internal/trace"
	"tierwalk/internal/value"
)

// analysisState caches the outcome of running internal/analysis over one
// top-level Function's unit exactly once, the first time any Function in
// it is invoked.
type analysisState struct {
	once sync.Once
	err  error
}

// Driver holds the process-wide state a running unit needs beyond what
// lives on the IR itself: the function registry, the trace sink, the
// per-unit analysis cache, and the singleflight group that collapses
// concurrent threads racing to compile the same unit into one compile —
// spec §5's "only one thread compiles a given top-level unit".
type Driver struct {
	cfg    config.Runtime
	tracer trace.Tracer

	registry *ir.Registry
	events   chan Event

	mu        sync.Mutex
	analyzed  map[*ir.Function]*analysisState
	reports   map[*ir.Function]observ.Report
	compiling singleflight.Group
}

// New builds a Driver. A nil tracer is replaced with trace.Nop so callers
// never need a nil check of their own.
func New(cfg config.Runtime, tracer trace.Tracer) *Driver {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Driver{
		cfg:      cfg,
		tracer:   tracer,
		registry: ir.NewRegistry(),
		events:   make(chan Event, 64),
		analyzed: make(map[*ir.Function]*analysisState),
		reports:  make(map[*ir.Function]observ.Report),
	}
}

// Events returns the channel tier-transition events are posted to. Sends
// are non-blocking: a full channel (no one reading, e.g. the CLI's watch
// TUI not running) drops the event rather than stalling the runtime.
func (d *Driver) Events() <-chan Event { return d.events }

// Registry exposes the process-wide function table internal/lang's
// introspection snapshot walks.
func (d *Driver) Registry() *ir.Registry { return d.registry }

// CompileReport returns the phase timings of top's most recent compile,
// and whether one has happened yet.
func (d *Driver) CompileReport(top *ir.Function) (observ.Report, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.reports[topLevelOf(top)]
	return r, ok
}

// Wire installs this Driver's hooks into internal/dispatch and
// internal/interp. Call exactly once at process startup, before any
// Function is invoked for the first time.
func (d *Driver) Wire() {
	dispatch.Bootstrap = d.bootstrap
	interp.Invoke = dispatch.Invoke
	interp.CompileTrigger = d.maybeCompile
}

// bootstrap is internal/dispatch's Bootstrap hook: it runs on the first
// call ever made to fn (its Slot doesn't exist yet), ensures fn's whole
// unit has been analyzed, and hands back whichever tier's adapter matches
// fn's current state.
func (d *Driver) bootstrap(fn *ir.Function) dispatch.GenericEntry {
	top := topLevelOf(fn)
	if err := d.ensureAnalyzed(top); err != nil {
		return func(captures, args []value.Value) (value.Value, error) {
			return nil, err
		}
	}
	return d.entryForState(fn)
}

func (d *Driver) entryForState(fn *ir.Function) dispatch.GenericEntry {
	switch fn.State() {
	case ir.Compiling, ir.Compiled:
		return d.plainEntry(fn)
	default:
		return d.profilingEntry(fn)
	}
}

func (d *Driver) profilingEntry(fn *ir.Function) dispatch.GenericEntry {
	return func(captures, args []value.Value) (value.Value, error) {
		return interp.RunTier(fn, captures, args, true)
	}
}

func (d *Driver) plainEntry(fn *ir.Function) dispatch.GenericEntry {
	return func(captures, args []value.Value) (value.Value, error) {
		return interp.RunTier(fn, captures, args, false)
	}
}

// ensureAnalyzed runs internal/analysis's three passes over top exactly
// once (spec §4.9's INVALID -> PROFILING transition), then moves every
// Function in the unit to Profiling and registers them in the function
// table. Safe to call concurrently for the same top; later calls block on
// the first and then observe its result.
func (d *Driver) ensureAnalyzed(top *ir.Function) error {
	d.mu.Lock()
	st, ok := d.analyzed[top]
	if !ok {
		st = &analysisState{}
		d.analyzed[top] = st
	}
	d.mu.Unlock()

	st.once.Do(func() {
		span := trace.Begin(d.tracer, trace.ScopeModule, "analyze:"+top.Name, 0)
		st.err = analysis.Analyze(top)
		if st.err != nil {
			span.End(st.err.Error())
			return
		}
		for _, fn := range unitFunctions(top) {
			d.registry.Register(fn)
			_ = fn.TransitionTo(ir.Profiling)
			d.emit(fn, ir.Profiling, "")
		}
		span.End("")
	})
	return st.err
}

// maybeCompile is internal/interp's CompileTrigger hook: called after
// every profiling invocation of a top-level Function. It checks the
// invocation counter against the configured threshold and, the first
// time it's crossed, kicks off a compile. There is no caller here to
// report a compile failure to; compile() traces it instead.
func (d *Driver) maybeCompile(top *ir.Function) {
	if top.Profile.InvocationCount < d.cfg.Profiling.Threshold {
		return
	}
	if top.State() != ir.Profiling {
		return
	}
	d.compiling.Do(unitKey(top), func() (any, error) {
		return nil, d.compile(top)
	})
}

// ForceCompile compiles top's unit immediately, without waiting for the
// profiling interpreter to trip the threshold on its own — the
// `unit.ForceCompile` entry point SPEC_FULL.md's ambient-errors section
// names as the one place a CompilerError from analysis or codegen becomes
// caller-visible, used by cmd/tierwalk's --force-compile flag and by tests that
// want compiled code without running the program to threshold first.
func (d *Driver) ForceCompile(top *ir.Function) error {
	top = topLevelOf(top)
	if err := d.ensureAnalyzed(top); err != nil {
		return err
	}
	if top.State() != ir.Profiling {
		return nil
	}
	_, err, _ := d.compiling.Do(unitKey(top), func() (any, error) {
		return nil, d.compile(top)
	})
	return err
}

// compile runs spec §4.6's compile sequence for top's unit: mark
// Compiling and retarget existing call sites to the plain interpreter,
// then infer -> observe -> specialize -> codegen, then publish every
// Function's generic and specialized entries together and mark Compiled.
// A failure at any point after the Compiling mark leaves the unit there,
// running on the plain interpreter — spec §5's documented safe fallback,
// not a crash.
func (d *Driver) compile(top *ir.Function) error {
	funcs := unitFunctions(top)
	span := trace.Begin(d.tracer, trace.ScopePass, "compile:"+top.Name, 0)
	timer := observ.NewTimer()
	defer func() {
		d.mu.Lock()
		d.reports[top] = timer.Report()
		d.mu.Unlock()
	}()

	mark := timer.Begin("mark-compiling")
	for _, fn := range funcs {
		if err := fn.TransitionTo(ir.Compiling); err != nil {
			timer.End(mark, err.Error())
			span.End(err.Error())
			return err
		}
		d.emit(fn, ir.Compiling, "")
		if slot, ok := fn.CallSite.(*dispatch.Slot); ok {
			slot.SetGeneric(d.plainEntry(fn))
		}
	}
	timer.End(mark, "")

	inferIdx := timer.Begin("infer")
	if err := infer.Run(top); err != nil {
		timer.End(inferIdx, err.Error())
		span.End(err.Error())
		d.emit(top, ir.Compiling, "compile failed: "+err.Error())
		return err
	}
	timer.End(inferIdx, "")

	observeIdx := timer.Begin("observe")
	observe.Run(top)
	timer.End(observeIdx, "")

	specializeIdx := timer.Begin("specialize")
	for _, fn := range funcs {
		assignSpecializedKinds(fn)
	}
	timer.End(specializeIdx, "")

	type compiledFn struct {
		fn          *ir.Function
		generic     dispatch.GenericEntry
		specialized dispatch.SpecializedEntry
	}
	codegenIdx := timer.Begin("codegen")
	results := make([]compiledFn, 0, len(funcs))
	for _, fn := range funcs {
		generic, specialized, err := codegen.Compile(fn)
		if err != nil {
			timer.End(codegenIdx, err.Error())
			span.End(err.Error())
			d.emit(top, ir.Compiling, "compile failed: "+err.Error())
			return err
		}
		if !d.cfg.Codegen.AllowSpecialization {
			specialized = nil
		}
		results = append(results, compiledFn{fn, generic, specialized})
	}
	timer.End(codegenIdx, "")

	install := timer.Begin("install")
	for _, r := range results {
		r.fn.GenericEntry = r.generic
		r.fn.SpecializedEntry = r.specialized
		slot, ok := r.fn.CallSite.(*dispatch.Slot)
		if !ok || slot == nil {
			slot = dispatch.NewSlot(r.fn, r.generic)
			r.fn.CallSite = slot
		}
		slot.Publish(r.generic, r.specialized)
	}
	for _, fn := range funcs {
		_ = fn.TransitionTo(ir.Compiled)
		specialized := ""
		if fn.SpecializedEntry != nil {
			specialized = "specialized"
		}
		d.emit(fn, ir.Compiled, specialized)
	}
	timer.End(install, "")
	span.End("")
	return nil
}

func (d *Driver) emit(fn *ir.Function, state ir.State, note string) {
	select {
	case d.events <- Event{Function: fn.Name, State: state, Note: note}:
	default:
	}
}

// topLevelOf walks up a Function's Parent chain to find the top-level
// Function that owns its compilation unit.
func topLevelOf(fn *ir.Function) *ir.Function {
	for fn.Parent != nil {
		fn = fn.Parent
	}
	return fn
}

// unitFunctions flattens top and every (transitively) Nested function
// into one slice, same shape as internal/infer's and internal/observe's
// private helpers of the same name, since unit needs the identical
// whole-unit traversal for analysis/compile bookkeeping.
func unitFunctions(top *ir.Function) []*ir.Function {
	out := []*ir.Function{top}
	for _, n := range top.Nested {
		out = append(out, unitFunctions(n)...)
	}
	return out
}

// unitKey gives singleflight.Group a stable string key per top-level
// Function; pointer identity is exactly the right granularity since two
// distinct Functions are always two distinct compilation units.
func unitKey(top *ir.Function) string {
	return fmt.Sprintf("%p", top)
}
