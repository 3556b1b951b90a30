package observe

import (
	"testing"

	"tierwalk/internal/infer"
	"tierwalk/internal/ir"
	"tierwalk/internal/types"
)

func TestObserveReadsParameterProfile(t *testing.T) {
	fn := ir.NewFunction("f", []string{"x"})
	fn.Body = ir.NewReturn(ir.NewGetVar(fn.Params[0]))
	fn.Params[0].Profile.Observe(int64(1), types.Int)
	Run(fn)
	if got := fn.Params[0].ObservedType; got.MustKind() != types.Int {
		t.Fatalf("param ObservedType = %v, want Int", got)
	}
	if got := fn.Body.Payload.(*ir.Return).Value.ObservedType; got.MustKind() != types.Int {
		t.Fatalf("GetVar ObservedType = %v, want Int", got)
	}
}

func TestObserveIfIgnoresUntakenBranch(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	ifNode := ir.NewIf(ir.NewConstant(true), ir.NewConstant(int64(1)), ir.NewConstant(false))
	fn.Body = ir.NewReturn(ifNode)
	infer.Run(fn) // populate static InferredType on the Constant leaves first

	payload := ifNode.Payload.(*ir.If)
	payload.TakenCount = 5
	payload.NotTakenCount = 0 // Else branch never observed executing

	Run(fn)
	if got := ifNode.ObservedType; got.MustKind() != types.Int {
		t.Fatalf("ifNode.ObservedType = %v, want Int (untaken Else must not pollute)", got)
	}
}

func TestObserveDirectCallUsesCalleeObservedReturn(t *testing.T) {
	callee := ir.NewFunction("callee", nil)
	callee.Body = ir.NewReturn(ir.NewConstant(int64(7)))
	infer.Run(callee)
	callee.ObservedReturnType = types.Known(types.Int)

	caller := ir.NewFunction("caller", nil)
	call := ir.NewDirectCall(callee, nil)
	caller.Body = ir.NewReturn(call)

	Run(caller)
	if got := call.ObservedType; got.MustKind() != types.Int {
		t.Fatalf("call.ObservedType = %v, want Int", got)
	}
}
