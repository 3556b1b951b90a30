package types

import "testing"

func TestJoinSameKind(t *testing.T) {
	if got := Join(Int, Int); got != Int {
		t.Fatalf("Join(Int,Int) = %v, want Int", got)
	}
	if got := Join(Bool, Bool); got != Bool {
		t.Fatalf("Join(Bool,Bool) = %v, want Bool", got)
	}
}

func TestJoinDistinctPrimitivesYieldsRef(t *testing.T) {
	if got := Join(Int, Bool); got != Ref {
		t.Fatalf("Join(Int,Bool) = %v, want Ref", got)
	}
}

func TestJoinWithRefYieldsRef(t *testing.T) {
	if got := Join(Int, Ref); got != Ref {
		t.Fatalf("Join(Int,Ref) = %v, want Ref", got)
	}
}

func TestJoinVoidIsIdentity(t *testing.T) {
	if got := Join(Void, Int); got != Int {
		t.Fatalf("Join(Void,Int) = %v, want Int", got)
	}
	if got := Join(Bool, Void); got != Bool {
		t.Fatalf("Join(Bool,Void) = %v, want Bool", got)
	}
}

func TestUnionPessimisticAbsorbsUnknown(t *testing.T) {
	known := Known(Int)
	if got := known.Union(Unknown()); !got.IsUnknown() {
		t.Fatalf("Union with Unknown = %v, want Unknown", got)
	}
	if got := Unknown().Union(known); !got.IsUnknown() {
		t.Fatalf("Unknown.Union(known) = %v, want Unknown", got)
	}
}

func TestOpportunisticUnionUnknownIsIdentity(t *testing.T) {
	known := Known(Int)
	if got := known.OpportunisticUnion(Unknown()); !got.Equal(known) {
		t.Fatalf("OpportunisticUnion with Unknown = %v, want %v", got, known)
	}
	if got := Unknown().OpportunisticUnion(known); !got.Equal(known) {
		t.Fatalf("Unknown.OpportunisticUnion(known) = %v, want %v", got, known)
	}
}

func TestOpportunisticUnionBothKnownJoins(t *testing.T) {
	got := Known(Int).OpportunisticUnion(Known(Bool))
	if got.MustKind() != Ref {
		t.Fatalf("OpportunisticUnion(Int,Bool) = %v, want Ref", got)
	}
}

func TestMustKindFallsBackToRef(t *testing.T) {
	if got := Unknown().MustKind(); got != Ref {
		t.Fatalf("Unknown().MustKind() = %v, want Ref", got)
	}
}
