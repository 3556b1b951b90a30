// Package errs defines the runtime's user-visible failure kinds. Per spec,
// RuntimeError and CompilerError are the only kinds that can escape the
// package boundary; SquarePeg (defined in internal/dispatch, not here) is
// strictly internal.
package errs

import "fmt"

// RuntimeError is raised by the interpreter tiers and by compiled code for
// a bad primitive argument kind, a non-boolean if/while condition, or a
// call to a non-callable value. It unwinds to the outermost invocation.
type RuntimeError struct {
	Message string
	Cause   error
}

func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// CompilerError is raised by the analyzer and the inferencer: a scope
// violation, a type mismatch at an if/while condition, or an unexpected
// dispatcher target. It is surfaced only to the caller that triggered
// compilation.
type CompilerError struct {
	Message string
	Cause   error
}

func NewCompilerError(format string, args ...any) *CompilerError {
	return &CompilerError{Message: fmt.Sprintf(format, args...)}
}

func (e *CompilerError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CompilerError) Unwrap() error { return e.Cause }
