// Package trace provides a tracing subsystem for the runtime's compile
// pipeline.
//
// It tracks tier transitions, inference/observation passes, and code
// generation so hangs and slow compiles can be diagnosed after the fact.
//
// # Usage
//
// Enable tracing via the CLI:
//
//	tierwalk run --trace=- --trace-level=phase fib 20
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - nopTracer: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer for crash dumps
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: per-function events
//   - LevelDebug: everything, including per-node events
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: top-level CLI operations
//   - ScopeModule: per-function compilation
//   - ScopePass: compile phases (analyze, infer, observe, codegen)
//   - ScopeNode: AST node level (future)
//
// # Context Propagation
//
// Tracers are propagated through the compile pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "infer", parentID)
//	defer span.End("")
package trace
