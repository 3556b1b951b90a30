package interp

import (
	"testing"

	"tierwalk/internal/ir"
)

func TestRunPlainReturnsConstant(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	fn.Body = ir.NewReturn(ir.NewConstant(int64(42)))
	v, err := RunPlain(fn, nil)
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if v != int64(42) {
		t.Fatalf("RunPlain = %v, want 42", v)
	}
}

func TestRunProfilingRecordsInvocationAndParamKinds(t *testing.T) {
	fn := ir.NewFunction("f", []string{"x"})
	fn.Body = ir.NewReturn(ir.NewGetVar(fn.Params[0]))
	if _, err := RunProfiling(fn, []any{int64(9)}); err != nil {
		t.Fatalf("RunProfiling: %v", err)
	}
	if fn.Profile.InvocationCount != 1 {
		t.Fatalf("InvocationCount = %d, want 1", fn.Profile.InvocationCount)
	}
}

func TestIfTakesThenBranch(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	ifNode := ir.NewIf(ir.NewConstant(true), ir.NewConstant(int64(1)), ir.NewConstant(int64(2)))
	fn.Body = ir.NewReturn(ifNode)
	v, err := RunProfiling(fn, nil)
	if err != nil {
		t.Fatalf("RunProfiling: %v", err)
	}
	if v != int64(1) {
		t.Fatalf("result = %v, want 1", v)
	}
	payload := ifNode.Payload.(*ir.If)
	if payload.TakenCount != 1 || payload.NotTakenCount != 0 {
		t.Fatalf("branch counters = %d/%d, want 1/0", payload.TakenCount, payload.NotTakenCount)
	}
}

func TestIfRejectsNonBoolCondition(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	fn.Body = ir.NewReturn(ir.NewIf(ir.NewConstant(int64(1)), ir.NewConstant(int64(1)), ir.NewConstant(int64(2))))
	if _, err := RunPlain(fn, nil); err == nil {
		t.Fatalf("expected error for non-bool if condition")
	}
}

func TestWhileLoopsUntilFalse(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	counter := ir.NewLetBound("i", fn, 0)
	fn.FrameSize = 1
	fn.Body = ir.NewLet(counter, ir.NewConstant(int64(0)),
		ir.NewBlock([]*ir.Node{
			ir.NewWhile(
				ir.NewPrimitive("lt", []*ir.Node{ir.NewGetVar(counter), ir.NewConstant(int64(3))}),
				ir.NewSetVar(counter, ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(counter), ir.NewConstant(int64(1))})),
			),
			ir.NewReturn(ir.NewGetVar(counter)),
		}))
	v, err := RunPlain(fn, nil)
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if v != int64(3) {
		t.Fatalf("result = %v, want 3", v)
	}
}

func TestDirectCallInvokesTarget(t *testing.T) {
	callee := ir.NewFunction("callee", []string{"x"})
	callee.Body = ir.NewReturn(ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(callee.Params[0]), ir.NewConstant(int64(1))}))
	caller := ir.NewFunction("caller", nil)
	caller.Body = ir.NewReturn(ir.NewDirectCall(callee, []*ir.Node{ir.NewConstant(int64(4))}))
	v, err := RunPlain(caller, nil)
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if v != int64(5) {
		t.Fatalf("result = %v, want 5", v)
	}
}

func TestClosureCapturesAndInvokesCorrectly(t *testing.T) {
	outer := ir.NewFunction("outer", []string{"x"})
	inner := ir.NewFunction("inner", []string{"y"})
	inner.Parent = outer
	capture := ir.NewCopiedVariable("x", inner, len(inner.Params), outer.Params[0], ir.NewGetVar(outer.Params[0]))
	inner.Captures = []*ir.Variable{capture}
	inner.Body = ir.NewReturn(ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(capture), ir.NewGetVar(inner.Params[0])}))
	inner.FrameSize = len(inner.Params) + 1
	outer.Nested = []*ir.Function{inner}

	closureLit := ir.NewClosure(inner, []*ir.Variable{capture})
	callNode := ir.NewCall(closureLit, []*ir.Node{ir.NewConstant(int64(10))})
	outer.Body = ir.NewReturn(callNode)

	v, err := RunPlain(outer, []any{int64(5)})
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if v != int64(15) {
		t.Fatalf("result = %v, want 15", v)
	}
}

func TestInvokeClosureBindsCapturesDirectly(t *testing.T) {
	outer := ir.NewFunction("outer", []string{"x"})
	inner := ir.NewFunction("inner", []string{"y"})
	inner.Parent = outer
	capture := ir.NewCopiedVariable("x", inner, len(inner.Params), outer.Params[0], ir.NewGetVar(outer.Params[0]))
	inner.Captures = []*ir.Variable{capture}
	inner.Body = ir.NewReturn(ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(capture), ir.NewGetVar(inner.Params[0])}))
	inner.FrameSize = len(inner.Params) + 1

	cv := &ir.ClosureValue{Fn: inner, Captured: []any{int64(5)}}
	v, err := InvokeClosure(cv, []any{int64(10)}, false)
	if err != nil {
		t.Fatalf("InvokeClosure: %v", err)
	}
	if v != int64(15) {
		t.Fatalf("result = %v, want 15", v)
	}
}

func TestCallOnNonCallableIsRuntimeError(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	fn.Body = ir.NewReturn(ir.NewCall(ir.NewConstant(int64(1)), nil))
	if _, err := RunPlain(fn, nil); err == nil {
		t.Fatalf("expected error calling a non-callable value")
	}
}

func TestCompileTriggerFiresOnlyForTopLevelProfiling(t *testing.T) {
	outer := ir.NewFunction("outer", nil)
	inner := ir.NewFunction("inner", nil)
	inner.Parent = outer
	inner.Body = ir.NewReturn(ir.NewConstant(int64(1)))
	outer.Body = ir.NewReturn(ir.NewCall(ir.NewFreeFunctionRef(inner), nil))

	var firedFor []string
	CompileTrigger = func(fn *ir.Function) { firedFor = append(firedFor, fn.Name) }
	defer func() { CompileTrigger = nil }()

	if _, err := RunProfiling(outer, nil); err != nil {
		t.Fatalf("RunProfiling: %v", err)
	}
	if len(firedFor) != 1 || firedFor[0] != "outer" {
		t.Fatalf("CompileTrigger fired for %v, want only [outer]", firedFor)
	}
}
