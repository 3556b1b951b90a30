package unit

import (
	"testing"

	"tierwalk/internal/config"
	"tierwalk/internal/dispatch"
	"tierwalk/internal/interp"
	"tierwalk/internal/ir"
)

// addOne builds int64(x+1) whose single param x is used only with the
// add primitive, so inference/observation settle it to Int and codegen's
// specializationEligible should accept it.
func addOne() *ir.Function {
	fn := ir.NewFunction("addOne", []string{"x"})
	fn.Body = ir.NewReturn(ir.NewPrimitive("add", []*ir.Node{
		ir.NewGetVar(fn.Params[0]), ir.NewConstant(int64(1)),
	}))
	return fn
}

func newTestDriver(threshold uint64) *Driver {
	cfg := config.Default()
	cfg.Profiling.Threshold = threshold
	d := New(cfg, nil)
	d.Wire()
	return d
}

func TestEnsureAnalyzedRunsOnceAndMovesToProfiling(t *testing.T) {
	d := newTestDriver(10)
	fn := addOne()
	if err := d.ensureAnalyzed(fn); err != nil {
		t.Fatalf("ensureAnalyzed: %v", err)
	}
	if fn.State() != ir.Profiling {
		t.Fatalf("state = %s, want Profiling", fn.State())
	}
	if err := d.ensureAnalyzed(fn); err != nil {
		t.Fatalf("second ensureAnalyzed: %v", err)
	}
	if fn.State() != ir.Profiling {
		t.Fatalf("state after second call = %s, want Profiling (unchanged)", fn.State())
	}
}

func TestBootstrapAndInvokeRunsProfilingTierBelowThreshold(t *testing.T) {
	newTestDriver(1000)
	fn := addOne()

	v, err := dispatch.Invoke(fn, nil, []any{int64(4)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v != int64(5) {
		t.Fatalf("result = %v, want 5", v)
	}
	if fn.State() != ir.Profiling {
		t.Fatalf("state = %s, want Profiling", fn.State())
	}
	if fn.Profile.InvocationCount != 1 {
		t.Fatalf("InvocationCount = %d, want 1", fn.Profile.InvocationCount)
	}
}

func TestCrossingThresholdCompilesUnit(t *testing.T) {
	d := newTestDriver(3)
	fn := addOne()

	for i := int64(0); i < 3; i++ {
		if _, err := dispatch.Invoke(fn, nil, []any{i}); err != nil {
			t.Fatalf("Invoke #%d: %v", i, err)
		}
	}
	if fn.State() != ir.Compiled {
		t.Fatalf("state = %s, want Compiled", fn.State())
	}
	if fn.GenericEntry == nil {
		t.Fatalf("GenericEntry was not populated after compile")
	}

	v, err := dispatch.Invoke(fn, nil, []any{int64(10)})
	if err != nil {
		t.Fatalf("Invoke after compile: %v", err)
	}
	if v != int64(11) {
		t.Fatalf("result = %v, want 11", v)
	}

	report, ok := d.CompileReport(fn)
	if !ok {
		t.Fatalf("expected a compile report after crossing threshold")
	}
	if report.TotalMS < 0 {
		t.Fatalf("report.TotalMS = %v, want >= 0", report.TotalMS)
	}
}

func TestForceCompileSkipsThreshold(t *testing.T) {
	d := newTestDriver(1000)
	fn := addOne()

	if err := d.ForceCompile(fn); err != nil {
		t.Fatalf("ForceCompile: %v", err)
	}
	if fn.State() != ir.Compiled {
		t.Fatalf("state = %s, want Compiled", fn.State())
	}

	if err := d.ForceCompile(fn); err != nil {
		t.Fatalf("second ForceCompile on already-compiled unit: %v", err)
	}
}

func TestEventsReportsTierTransitions(t *testing.T) {
	d := newTestDriver(1)
	fn := addOne()

	if _, err := dispatch.Invoke(fn, nil, []any{int64(1)}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	var sawCompiled bool
	for {
		select {
		case ev := <-d.Events():
			if ev.Function == "addOne" && ev.State == ir.Compiled {
				sawCompiled = true
			}
		default:
			if !sawCompiled {
				t.Fatalf("never observed a Compiled event for addOne")
			}
			return
		}
	}
}

func TestNestedClosureCompilesAlongsideTopLevel(t *testing.T) {
	d := newTestDriver(1)
	outer := ir.NewFunction("outer", []string{"x"})
	inner := ir.NewFunction("inner", []string{"y"})
	inner.Parent = outer
	capture := ir.NewCopiedVariable("x", inner, len(inner.Params), outer.Params[0], ir.NewGetVar(outer.Params[0]))
	inner.Captures = []*ir.Variable{capture}
	inner.Body = ir.NewReturn(ir.NewPrimitive("add", []*ir.Node{ir.NewGetVar(capture), ir.NewGetVar(inner.Params[0])}))
	outer.Nested = []*ir.Function{inner}
	outer.Body = ir.NewReturn(ir.NewCall(ir.NewClosure(inner, []*ir.Variable{capture}), []*ir.Node{ir.NewConstant(int64(10))}))

	if err := d.ForceCompile(outer); err != nil {
		t.Fatalf("ForceCompile: %v", err)
	}
	if outer.State() != ir.Compiled {
		t.Fatalf("outer state = %s, want Compiled", outer.State())
	}
	if inner.State() != ir.Compiled {
		t.Fatalf("inner state = %s, want Compiled", inner.State())
	}
}

func TestInterpCompileTriggerIsWiredByDriver(t *testing.T) {
	newTestDriver(2)
	fn := addOne()

	if _, err := dispatch.Invoke(fn, nil, []any{int64(1)}); err != nil {
		t.Fatalf("Invoke #1: %v", err)
	}
	if fn.State() != ir.Profiling {
		t.Fatalf("state after first call = %s, want Profiling", fn.State())
	}
	if interp.CompileTrigger == nil {
		t.Fatalf("Driver.Wire did not install interp.CompileTrigger")
	}
	if _, err := dispatch.Invoke(fn, nil, []any{int64(2)}); err != nil {
		t.Fatalf("Invoke #2: %v", err)
	}
	if fn.State() != ir.Compiled {
		t.Fatalf("state after second call = %s, want Compiled", fn.State())
	}
}
