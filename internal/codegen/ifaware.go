package codegen

// RecoverySite is the hook a future bytecode backend would use to find the
// frame slot a partial specialized frame should unwind to. Go's own stack
// unwind already gives us this for free (a square-peg panic unwinds past
// every enclosing Let closure by construction), so nothing in this package
// actually calls it yet; it exists so the concept the original's
// RecoveryCodeGenerator tracked per Let has a visible home here.
type RecoverySite interface {
	RecoveryFrameIndex() int
}

// branchOp is the fused comparison a specialized If emits directly against
// two unboxed int64 operands, skipping the boxed bool an ordinary compare
// primitive would otherwise have to produce just to be tested and thrown
// away. This is the Go-idiom stand-in for the original's two-method
// IfAware/OptimizedIfForm contract (LoadArguments + BranchOnFalseOp): since
// there is no opcode stream here, "loading arguments" is just compiling the
// two operand subtrees, and "the branch op" is this function value itself.
type branchOp func(a, b int64) bool

// compareBranches maps every IsCompare primitive's name to its fused
// branch test. Kept here rather than as a method on builtin.Op so that
// internal/builtin never has to import internal/codegen: builtin stays the
// leaf package every tier depends on, and only this package needs to know
// which primitives are branch-fusable.
var compareBranches = map[string]branchOp{
	"lt": func(a, b int64) bool { return a < b },
	"le": func(a, b int64) bool { return a <= b },
	"gt": func(a, b int64) bool { return a > b },
	"ge": func(a, b int64) bool { return a >= b },
	"eq": func(a, b int64) bool { return a == b },
	"ne": func(a, b int64) bool { return a != b },
}
