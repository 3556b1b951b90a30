package main

import (
	"testing"

	"tierwalk/internal/config"
	"tierwalk/internal/lang"
	"tierwalk/internal/unit"
)

func TestParseIntArgs(t *testing.T) {
	got, err := parseIntArgs([]string{"1", "-2", "300"})
	if err != nil {
		t.Fatalf("parseIntArgs: %v", err)
	}
	want := []any{int64(1), int64(-2), int64(300)}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("parseIntArgs()[%d] = %v, want %v", i, got[i], v)
		}
	}
}

func TestParseIntArgsRejectsNonInteger(t *testing.T) {
	if _, err := parseIntArgs([]string{"not-a-number"}); err == nil {
		t.Fatalf("expected an error for a non-integer argument")
	}
}

func newTestLib(threshold uint64) *lang.Library {
	cfg := config.Default()
	cfg.Profiling.Threshold = threshold
	d := unit.New(cfg, nil)
	d.Wire()
	lib := lang.New(d)
	for name, build := range programs {
		lib.Define(name, build())
	}
	return lib
}

func TestCallChainedPlainFunction(t *testing.T) {
	lib := newTestLib(1000)
	uf, ok := lib.Lookup("fib")
	if !ok {
		t.Fatalf("fib not registered")
	}
	v, err := callChained(uf, []any{int64(10)})
	if err != nil {
		t.Fatalf("callChained: %v", err)
	}
	if v != int64(55) {
		t.Fatalf("fib(10) = %v, want 55", v)
	}
}

func TestCallChainedThroughClosure(t *testing.T) {
	lib := newTestLib(1000)
	uf, ok := lib.Lookup("make-adder")
	if !ok {
		t.Fatalf("make-adder not registered")
	}
	v, err := callChained(uf, []any{int64(5), int64(10)})
	if err != nil {
		t.Fatalf("callChained: %v", err)
	}
	if v != int64(15) {
		t.Fatalf("make-adder(5)(10) = %v, want 15", v)
	}
}

func TestCallChainedRejectsLeftoverArgsOnNonClosure(t *testing.T) {
	lib := newTestLib(1000)
	uf, ok := lib.Lookup("fib")
	if !ok {
		t.Fatalf("fib not registered")
	}
	if _, err := callChained(uf, []any{int64(10), int64(99)}); err == nil {
		t.Fatalf("expected an error for a leftover argument against a non-closure result")
	}
}
