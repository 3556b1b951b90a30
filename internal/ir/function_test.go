package ir

import "testing"

func TestStateMachineHappyPath(t *testing.T) {
	fn := NewFunction("f", nil)
	if fn.State() != Invalid {
		t.Fatalf("new function state = %v, want Invalid", fn.State())
	}
	for _, to := range []State{Profiling, Compiling, Compiled} {
		if err := fn.TransitionTo(to); err != nil {
			t.Fatalf("TransitionTo(%v): %v", to, err)
		}
	}
	if fn.State() != Compiled {
		t.Fatalf("state = %v, want Compiled", fn.State())
	}
}

func TestStateMachineRejectsSkippingProfiling(t *testing.T) {
	fn := NewFunction("f", nil)
	if err := fn.TransitionTo(Compiling); err == nil {
		t.Fatalf("expected error transitioning Invalid -> Compiling")
	}
}

func TestStateMachineRejectsLeavingCompiled(t *testing.T) {
	fn := NewFunction("f", nil)
	_ = fn.TransitionTo(Profiling)
	_ = fn.TransitionTo(Compiling)
	_ = fn.TransitionTo(Compiled)
	if err := fn.TransitionTo(Profiling); err == nil {
		t.Fatalf("expected error transitioning out of Compiled")
	}
}

func TestCompilingCanFallBackToProfiling(t *testing.T) {
	fn := NewFunction("f", nil)
	_ = fn.TransitionTo(Profiling)
	_ = fn.TransitionTo(Compiling)
	if err := fn.TransitionTo(Profiling); err != nil {
		t.Fatalf("Compiling -> Profiling should be allowed, got %v", err)
	}
}

func TestRegistryAssignsDenseIDs(t *testing.T) {
	r := NewRegistry()
	a := NewFunction("a", nil)
	b := NewFunction("b", nil)
	idA := r.Register(a)
	idB := r.Register(b)
	if idA != 0 || idB != 1 {
		t.Fatalf("ids = %d, %d, want 0, 1", idA, idB)
	}
	got, ok := r.Get(idB)
	if !ok || got != b {
		t.Fatalf("Get(%d) = %v, %v, want %v, true", idB, got, ok, b)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
}
