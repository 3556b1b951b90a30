package infer

import (
	"testing"

	"tierwalk/internal/ir"
	"tierwalk/internal/types"
)

func TestInferConstantAndPrimitive(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	add := ir.NewPrimitive("add", []*ir.Node{ir.NewConstant(int64(1)), ir.NewConstant(int64(2))})
	fn.Body = ir.NewReturn(add)
	Run(fn)
	if got := add.InferredType; got.MustKind() != types.Int {
		t.Fatalf("add.InferredType = %v, want Int", got)
	}
	if got := fn.InferredReturnType; got.MustKind() != types.Int {
		t.Fatalf("fn.InferredReturnType = %v, want Int", got)
	}
}

func TestInferLetBoundVariable(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	v := ir.NewLetBound("x", fn, -1)
	fn.Body = ir.NewLet(v, ir.NewConstant(int64(1)), ir.NewReturn(ir.NewGetVar(v)))
	Run(fn)
	if v.InferredType.MustKind() != types.Int {
		t.Fatalf("v.InferredType = %v, want Int", v.InferredType)
	}
}

func TestInferIfWithMismatchedBranchesYieldsRef(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	ifNode := ir.NewIf(ir.NewConstant(true), ir.NewConstant(int64(1)), ir.NewConstant(false))
	fn.Body = ir.NewReturn(ifNode)
	Run(fn)
	if got := ifNode.InferredType; got.MustKind() != types.Ref {
		t.Fatalf("ifNode.InferredType = %v, want Ref", got)
	}
}

func TestInferIfConditionNotBooleanIsCompilerError(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	ifNode := ir.NewIf(ir.NewConstant(int64(1)), ir.NewConstant(int64(1)), ir.NewConstant(int64(2)))
	fn.Body = ir.NewReturn(ifNode)
	if err := Run(fn); err == nil {
		t.Fatalf("expected a CompilerError for a non-boolean if condition")
	}
}

func TestInferWhileConditionNotBooleanIsCompilerError(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	fn.Body = ir.NewWhile(ir.NewConstant(int64(0)), ir.NewReturn(nil))
	if err := Run(fn); err == nil {
		t.Fatalf("expected a CompilerError for a non-boolean while condition")
	}
}

func TestInferRefConditionIsAllowed(t *testing.T) {
	fn := ir.NewFunction("f", []string{"n"})
	cond := ir.NewGetVar(fn.Params[0])
	fn.Params[0].InferredType = types.Known(types.Ref)
	ifNode := ir.NewIf(cond, ir.NewConstant(int64(1)), ir.NewConstant(int64(2)))
	fn.Body = ir.NewReturn(ifNode)
	if err := Run(fn); err != nil {
		t.Fatalf("Run returned an error for a Ref condition: %v", err)
	}
}

func TestInferDirectRecursiveCall(t *testing.T) {
	fn := ir.NewFunction("f", []string{"n"})
	// return add(n, f(n))  -- recursive, direct call to itself.
	call := ir.NewDirectCall(fn, []*ir.Node{ir.NewGetVar(fn.Params[0])})
	fn.Body = ir.NewReturn(ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(fn.Params[0]), call}))
	// Seed the parameter type the way ClosureConverter/caller-side analysis
	// would have from an assumed int argument; infer itself never invents a
	// parameter type from nothing since parameters are bound by the caller.
	fn.Params[0].InferredType = types.Known(types.Int)
	Run(fn)
	if got := call.InferredType; got.MustKind() != types.Int {
		t.Fatalf("recursive call InferredType = %v, want Int", got)
	}
	if got := fn.InferredReturnType; got.MustKind() != types.Int {
		t.Fatalf("fn.InferredReturnType = %v, want Int", got)
	}
}
