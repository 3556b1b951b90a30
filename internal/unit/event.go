package unit

import "tierwalk/internal/ir"

// Event reports one function crossing a tier boundary or a compile
// attempt's outcome. internal/ui's watch TUI and internal/trace spans are
// both consumers: the Driver sends a best-effort copy on its Events()
// channel in addition to whatever it emits through its Tracer.
type Event struct {
	Function string
	State    ir.State
	Note     string
}
