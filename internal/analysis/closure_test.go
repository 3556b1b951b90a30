package analysis

import (
	"testing"

	"tierwalk/internal/ir"
)

// buildOuterWithInnerCapturing builds: fn outer(x) { let y = 1; closure inner() { return y } }
func buildOuterWithInnerCapturing() (*ir.Function, *ir.Function, *ir.Variable) {
	outer := ir.NewFunction("outer", []string{"x"})
	y := ir.NewLetBound("y", outer, -1)
	inner := ir.NewFunction("inner", nil)
	inner.Parent = outer
	inner.Body = ir.NewReturn(ir.NewGetVar(y))
	outer.Nested = []*ir.Function{inner}
	closureNode := ir.NewClosure(inner, nil)
	outer.Body = ir.NewLet(y, ir.NewConstant(int64(1)), ir.NewReturn(closureNode))
	return outer, inner, y
}

func TestConvertClosuresCapturesDirectFreeVariable(t *testing.T) {
	outer, inner, y := buildOuterWithInnerCapturing()
	if err := ConvertClosures(outer); err != nil {
		t.Fatalf("ConvertClosures: %v", err)
	}
	if len(inner.Captures) != 1 {
		t.Fatalf("inner.Captures = %v, want 1 capture", inner.Captures)
	}
	capture := inner.Captures[0]
	if capture.Original != y {
		t.Fatalf("capture.Original = %v, want %v", capture.Original, y)
	}
	supplierGet, ok := capture.Supplier.Payload.(*ir.GetVar)
	if !ok || supplierGet.Var != y {
		t.Fatalf("capture.Supplier = %v, want GetVar(y)", capture.Supplier.Payload)
	}
	// The inner body's GetVar must now target the new copy, not y itself.
	ret := inner.Body.Payload.(*ir.Return)
	innerGet := ret.Value.Payload.(*ir.GetVar)
	if innerGet.Var != capture {
		t.Fatalf("inner body still references %v, want rewritten capture %v", innerGet.Var, capture)
	}
}

func TestConvertClosuresChainsThroughIntermediateFunction(t *testing.T) {
	top := ir.NewFunction("top", nil)
	z := ir.NewLetBound("z", top, -1)

	middle := ir.NewFunction("middle", nil)
	middle.Parent = top

	innermost := ir.NewFunction("innermost", nil)
	innermost.Parent = middle
	innermost.Body = ir.NewReturn(ir.NewGetVar(z))

	middle.Nested = []*ir.Function{innermost}
	middle.Body = ir.NewReturn(ir.NewClosure(innermost, nil))

	top.Nested = []*ir.Function{middle}
	top.Body = ir.NewLet(z, ir.NewConstant(int64(1)), ir.NewReturn(ir.NewClosure(middle, nil)))

	if err := ConvertClosures(top); err != nil {
		t.Fatalf("ConvertClosures: %v", err)
	}

	if len(middle.Captures) != 1 || middle.Captures[0].Original != z {
		t.Fatalf("middle.Captures = %v, want one capture of z", middle.Captures)
	}
	if len(innermost.Captures) != 1 || innermost.Captures[0].Original != z {
		t.Fatalf("innermost.Captures = %v, want one capture of z", innermost.Captures)
	}
	// innermost's capture must be supplied from middle's own copy, not top's z directly.
	supplierGet := innermost.Captures[0].Supplier.Payload.(*ir.GetVar)
	if supplierGet.Var != middle.Captures[0] {
		t.Fatalf("innermost capture supplied from %v, want middle's copy %v", supplierGet.Var, middle.Captures[0])
	}
}
