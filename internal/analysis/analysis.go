package analysis

import "tierwalk/internal/ir"

// Analyze runs the three analyzer passes over fn in order: ScopeValidator,
// ClosureConverter, then Indexer. internal/unit calls this exactly once
// per Function when it first becomes a compilation unit (on the
// Invalid -> Profiling transition); the result is reused for every later
// recompile of the same unit, since the Node tree's shape never changes
// after analysis, only its type annotations do.
func Analyze(fn *ir.Function) error {
	if err := ValidateScopes(fn); err != nil {
		return err
	}
	if err := ConvertClosures(fn); err != nil {
		return err
	}
	if err := AssignFrameIndices(fn); err != nil {
		return err
	}
	return nil
}
