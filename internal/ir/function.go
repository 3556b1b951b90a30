package ir

import (
	"fmt"
	"sync"

	"tierwalk/internal/types"
)

// State is a Function's position in its compilation state machine:
// Invalid -> Profiling -> Compiling -> Compiled, plus one back edge,
// Compiling -> Profiling, for an aborted compile attempt. Compiled is
// final. Square-peg recovery falls back to the generic entry at the call
// granularity (internal/dispatch) without touching this state.
type State uint8

const (
	Invalid State = iota
	Profiling
	Compiling
	Compiled
)

func (s State) String() string {
	switch s {
	case Profiling:
		return "Profiling"
	case Compiling:
		return "Compiling"
	case Compiled:
		return "Compiled"
	default:
		return "Invalid"
	}
}

// validTransition is the edge set of the state machine.
func validTransition(from, to State) bool {
	switch from {
	case Invalid:
		return to == Profiling
	case Profiling:
		return to == Compiling
	case Compiling:
		return to == Compiled || to == Profiling // Profiling: compile attempt aborted, falls back
	case Compiled:
		return false
	default:
		return false
	}
}

// Function is one compilation unit: a top-level function together with
// the nested closures defined lexically within it, compiled as a single
// batch by internal/unit. Its CallSite, GenericEntry and SpecializedEntry
// fields are opaque (any) on purpose: internal/dispatch and
// internal/codegen own their concrete types (dispatch.Slot,
// dispatch.GenericEntry, dispatch.SpecializedEntry) and this package
// cannot import either without creating ir <-> dispatch <-> codegen <->
// ir cycle, since both of those packages need to refer back to a
// *Function.
type Function struct {
	ID   int
	Name string

	Params    []*Variable
	FrameSize int
	Body      *Node

	// Nested holds the closures defined directly within this Function, in
	// the order the tree's builder listed them; each one's own Nested
	// holds the closures within it. internal/analysis's ClosureConverter
	// converts a closure's Nested children before the closure itself.
	Nested []*Function
	Parent *Function

	// Captures holds this Function's own CopiedVariable slots, in the
	// order internal/analysis's ClosureConverter added them. Kept as an
	// explicit list (rather than requiring callers to rediscover them by
	// walking Body) since the Indexer pass needs to lay them out right
	// after Params and before any Let-bound locals.
	Captures []*Variable

	Profile *FunctionProfile

	// InferredReturnType is the opportunistic join (internal/infer) of every
	// Return node's inferred value type reachable in Body;
	// ObservedReturnType is the same join (internal/observe) over the
	// Return nodes' observed value types. A Call node targeting this Function reads
	// whichever of the two the caller pass needs.
	InferredReturnType types.ExprType
	ObservedReturnType types.ExprType

	mu    sync.Mutex
	state State

	// CallSite holds a *dispatch.Slot once internal/unit wires this
	// Function into the dispatch machinery. nil until then.
	CallSite any
	// GenericEntry and SpecializedEntry hold dispatch.GenericEntry and
	// dispatch.SpecializedEntry values once internal/codegen compiles this
	// Function. Both nil before the first successful compilation.
	GenericEntry     any
	SpecializedEntry any

	// SpecializedParamKinds and SpecializedReturnKind record the
	// signature internal/codegen chose for SpecializedEntry, so
	// internal/dispatch's guard can check argument kinds against it
	// without reaching back into codegen.
	SpecializedParamKinds []types.Kind
	SpecializedReturnKind types.Kind
}

// NewFunction builds a Function with a fresh parameter frame; FrameIndex
// for each parameter is 0..arity-1, matching internal/analysis's Indexer
// convention of allocating parameters before any Let-bound locals.
func NewFunction(name string, paramNames []string) *Function {
	fn := &Function{Name: name, state: Invalid}
	fn.Params = make([]*Variable, len(paramNames))
	for i, n := range paramNames {
		fn.Params[i] = NewDeclaredParameter(n, fn, i)
	}
	fn.FrameSize = len(paramNames)
	fn.Profile = NewFunctionProfile(len(paramNames))
	return fn
}

// State reports the current state under the Function's own lock, since
// internal/unit's serialization allows concurrent readers from the
// dispatch guard while a compile is in flight.
func (f *Function) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// TransitionTo moves the Function along its state machine, returning an
// error if the edge isn't one of the machine's allowed transitions.
// Callers (internal/unit) hold no other lock while calling this; the
// Function's own mutex is what makes a transition atomic with respect to
// concurrent State() reads from the dispatch guard.
func (f *Function) TransitionTo(to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !validTransition(f.state, to) {
		return fmt.Errorf("ir: invalid transition %s -> %s for function %q", f.state, to, f.Name)
	}
	f.state = to
	return nil
}

// Registry is the process-wide dense-id allocator for Functions, mirroring
// the original runtime's global function table. internal/unit registers
// every Function (top-level and nested) as it builds them, so that
// dispatch diagnostics and the introspection snapshot (internal/lang) can
// refer to a function by a stable small integer instead of a pointer.
type Registry struct {
	mu  sync.Mutex
	fns []*Function
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register assigns fn the next dense id and records it. Safe to call
// concurrently; registration order across goroutines is otherwise
// unspecified, matching the "lost profile updates are tolerable, only
// correctness at the guard matters" tolerance spelled out for the rest of
// the concurrency model.
func (r *Registry) Register(fn *Function) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn.ID = len(r.fns)
	r.fns = append(r.fns, fn)
	return fn.ID
}

func (r *Registry) Get(id int) (*Function, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.fns) {
		return nil, false
	}
	return r.fns[id], true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fns)
}

// All returns a snapshot of every registered Function, in registration
// order. Used by internal/lang's introspection dump.
func (r *Registry) All() []*Function {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Function, len(r.fns))
	copy(out, r.fns)
	return out
}
