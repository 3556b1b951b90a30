package builtin

import "testing"

func TestApplyArithmetic(t *testing.T) {
	got, err := Apply("add", []any{int64(2), int64(3)})
	if err != nil {
		t.Fatalf("Apply(add): %v", err)
	}
	if got != int64(5) {
		t.Fatalf("Apply(add) = %v, want 5", got)
	}
}

func TestApplyDivisionByZero(t *testing.T) {
	if _, err := Apply("div", []any{int64(1), int64(0)}); err == nil {
		t.Fatalf("expected division by zero error")
	}
}

func TestApplyWrongArgKind(t *testing.T) {
	if _, err := Apply("add", []any{true, int64(1)}); err == nil {
		t.Fatalf("expected error for bool argument to add")
	}
}

func TestApplyUnknownPrimitive(t *testing.T) {
	if _, err := Apply("frobnicate", []any{int64(1)}); err == nil {
		t.Fatalf("expected error for unknown primitive")
	}
}

func TestLookupResultKinds(t *testing.T) {
	if Lookup("add").ResultKind.String() != "int" {
		t.Fatalf("add result kind = %v, want int", Lookup("add").ResultKind)
	}
	if !Lookup("lt").IsCompare {
		t.Fatalf("lt should be marked IsCompare")
	}
	if Lookup("lt").ResultKind.String() != "bool" {
		t.Fatalf("lt result kind = %v, want bool", Lookup("lt").ResultKind)
	}
}
