package analysis

import (
	"testing"

	"tierwalk/internal/ir"
)

func TestAssignFrameIndicesSiblingLetsReuseSlot(t *testing.T) {
	fn := ir.NewFunction("f", []string{"a"})
	v1 := ir.NewLetBound("x", fn, -1)
	v2 := ir.NewLetBound("y", fn, -1)
	fn.Body = ir.NewBlock([]*ir.Node{
		ir.NewLet(v1, ir.NewConstant(int64(1)), ir.NewReturn(nil)),
		ir.NewLet(v2, ir.NewConstant(int64(2)), ir.NewReturn(nil)),
	})
	if err := AssignFrameIndices(fn); err != nil {
		t.Fatalf("AssignFrameIndices: %v", err)
	}
	if v1.FrameIndex != 1 || v2.FrameIndex != 1 {
		t.Fatalf("sibling lets got indices %d, %d, want both 1 (param occupies 0)", v1.FrameIndex, v2.FrameIndex)
	}
	if fn.FrameSize != 2 {
		t.Fatalf("FrameSize = %d, want 2", fn.FrameSize)
	}
}

func TestAssignFrameIndicesNestedLetsGetDistinctSlots(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	outer := ir.NewLetBound("x", fn, -1)
	inner := ir.NewLetBound("y", fn, -1)
	fn.Body = ir.NewLet(outer, ir.NewConstant(int64(1)),
		ir.NewLet(inner, ir.NewConstant(int64(2)), ir.NewReturn(nil)))
	if err := AssignFrameIndices(fn); err != nil {
		t.Fatalf("AssignFrameIndices: %v", err)
	}
	if outer.FrameIndex != 0 || inner.FrameIndex != 1 {
		t.Fatalf("got indices %d, %d, want 0, 1", outer.FrameIndex, inner.FrameIndex)
	}
	if fn.FrameSize != 2 {
		t.Fatalf("FrameSize = %d, want 2", fn.FrameSize)
	}
}

func TestAssignFrameIndicesPlacesCapturesAfterParams(t *testing.T) {
	fn := ir.NewFunction("f", []string{"a", "b"})
	other := ir.NewFunction("g", []string{"p"})
	fn.Captures = []*ir.Variable{ir.NewCopiedVariable("c", fn, -1, other.Params[0], nil)}
	fn.Body = ir.NewReturn(nil)
	if err := AssignFrameIndices(fn); err != nil {
		t.Fatalf("AssignFrameIndices: %v", err)
	}
	if fn.Captures[0].FrameIndex != 2 {
		t.Fatalf("capture FrameIndex = %d, want 2", fn.Captures[0].FrameIndex)
	}
}
