package analysis

import (
	"testing"

	"tierwalk/internal/ir"
)

func TestValidateScopesAcceptsParameter(t *testing.T) {
	fn := ir.NewFunction("f", []string{"x"})
	fn.Body = ir.NewReturn(ir.NewGetVar(fn.Params[0]))
	if err := ValidateScopes(fn); err != nil {
		t.Fatalf("ValidateScopes: %v", err)
	}
}

func TestValidateScopesRejectsUnboundVariable(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	stray := ir.NewLetBound("y", nil, -1)
	fn.Body = ir.NewReturn(ir.NewGetVar(stray))
	if err := ValidateScopes(fn); err == nil {
		t.Fatalf("expected error referencing an unbound variable")
	}
}

func TestValidateScopesAcceptsLetBeforeUse(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	v := ir.NewLetBound("y", fn, -1)
	fn.Body = ir.NewLet(v, ir.NewConstant(int64(1)), ir.NewReturn(ir.NewGetVar(v)))
	if err := ValidateScopes(fn); err != nil {
		t.Fatalf("ValidateScopes: %v", err)
	}
}

func TestValidateScopesRejectsLetVariableOutsideItsBody(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	v := ir.NewLetBound("y", fn, -1)
	// y used in a later statement of the Block, outside the Let that bound it.
	fn.Body = ir.NewBlock([]*ir.Node{
		ir.NewLet(v, ir.NewConstant(int64(1)), ir.NewConstant(int64(0))),
		ir.NewReturn(ir.NewGetVar(v)),
	})
	if err := ValidateScopes(fn); err == nil {
		t.Fatalf("expected error referencing y outside its Let body")
	}
}

func TestValidateScopesRejectsLetShadowingAlreadyBoundVariable(t *testing.T) {
	fn := ir.NewFunction("f", nil)
	v := ir.NewLetBound("y", fn, -1)
	// The outer Let binds v, then an inner Let rebinds the very same
	// Variable while it is still in scope.
	fn.Body = ir.NewLet(v, ir.NewConstant(int64(1)),
		ir.NewLet(v, ir.NewConstant(int64(2)), ir.NewReturn(ir.NewGetVar(v))))
	if err := ValidateScopes(fn); err == nil {
		t.Fatalf("expected error for a let variable already bound")
	}
}

func TestValidateScopesRejectsClosureParamAlreadyBound(t *testing.T) {
	outer := ir.NewFunction("outer", []string{"x"})
	inner := ir.NewFunction("inner", nil)
	inner.Parent = outer
	inner.Params = outer.Params
	inner.Body = ir.NewReturn(ir.NewGetVar(outer.Params[0]))
	outer.Nested = []*ir.Function{inner}
	outer.Body = ir.NewReturn(ir.NewClosure(inner, nil))
	if err := ValidateScopes(outer); err == nil {
		t.Fatalf("expected error for a closure argument already bound")
	}
}

func TestValidateScopesAllowsClosureToSeeEnclosingLet(t *testing.T) {
	outer := ir.NewFunction("outer", nil)
	v := ir.NewLetBound("y", outer, -1)
	inner := ir.NewFunction("inner", nil)
	inner.Parent = outer
	inner.Body = ir.NewReturn(ir.NewGetVar(v))
	outer.Nested = []*ir.Function{inner}
	outer.Body = ir.NewLet(v, ir.NewConstant(int64(1)), ir.NewReturn(ir.NewClosure(inner, nil)))
	if err := ValidateScopes(outer); err != nil {
		t.Fatalf("ValidateScopes: %v", err)
	}
}
