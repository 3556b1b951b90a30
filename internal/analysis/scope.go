// Package analysis implements the analyzer passes that run once per
// Function before it is profiled or compiled: ScopeValidator, then
// ClosureConverter, then Indexer. All three share the same general shape
// (a depth-first walk annotating or checking the Node tree) but run as
// separate, independently testable passes, matching how the original
// runtime's analyzer keeps them as discrete stages rather than one
// monolithic visitor.
package analysis

import (
	"tierwalk/internal/errs"
	"tierwalk/internal/ir"
)

// ValidateScopes checks that every GetVar/SetVar in fn's body (including
// inside nested closures) refers to a Variable that is lexically visible
// at that point: bound by an enclosing parameter list or an enclosing Let
// that has already been entered. This check is purely lexical and
// ignores function boundaries on purpose — a nested closure referencing
// an enclosing Let-bound variable is exactly the case ClosureConverter
// exists to rewire, so it must not be rejected here.
//
// It runs before ClosureConverter so that closure conversion only ever
// operates on trees that are already known to be well-scoped; it would be
// meaningless to decide how to copy down a variable that was never validly
// in scope to begin with.
func ValidateScopes(fn *ir.Function) error {
	scope := make(map[*ir.Variable]bool, len(fn.Params))
	for _, p := range fn.Params {
		scope[p] = true
	}
	return validateNode(fn.Body, scope)
}

func validateNode(n *ir.Node, scope map[*ir.Variable]bool) error {
	if n == nil {
		return nil
	}
	switch p := n.Payload.(type) {
	case *ir.GetVar:
		if !scope[p.Var] {
			return errs.NewCompilerError("variable %q is not in scope here", p.Var.Name)
		}
		return nil
	case *ir.SetVar:
		if !scope[p.Var] {
			return errs.NewCompilerError("variable %q is not in scope here", p.Var.Name)
		}
		return validateNode(p.RHS, scope)
	case *ir.Let:
		if err := validateNode(p.Init, scope); err != nil {
			return err
		}
		if scope[p.Var] {
			return errs.NewCompilerError("let variable %q is already bound", p.Var.Name)
		}
		inner := cloneScope(scope)
		inner[p.Var] = true
		return validateNode(p.Body, inner)
	case *ir.If:
		if err := validateNode(p.Cond, scope); err != nil {
			return err
		}
		if err := validateNode(p.Then, scope); err != nil {
			return err
		}
		return validateNode(p.Else, scope)
	case *ir.While:
		if err := validateNode(p.Cond, scope); err != nil {
			return err
		}
		return validateNode(p.Body, scope)
	case *ir.Block:
		for _, s := range p.Stmts {
			if err := validateNode(s, scope); err != nil {
				return err
			}
		}
		return nil
	case *ir.Return:
		return validateNode(p.Value, scope)
	case *ir.Call:
		if !p.Direct {
			if err := validateNode(p.Callee, scope); err != nil {
				return err
			}
		}
		for _, a := range p.Args {
			if err := validateNode(a, scope); err != nil {
				return err
			}
		}
		return nil
	case *ir.Primitive:
		for _, a := range p.Args {
			if err := validateNode(a, scope); err != nil {
				return err
			}
		}
		return nil
	case *ir.Closure:
		for _, param := range p.Fn.Params {
			if scope[param] {
				return errs.NewCompilerError("closure argument %q is already bound", param.Name)
			}
		}
		childScope := make(map[*ir.Variable]bool, len(p.Fn.Params))
		for _, param := range p.Fn.Params {
			childScope[param] = true
		}
		// A tree that was built already converted carries its copied
		// variables in Captures; they are the nested function's own slots.
		for _, c := range p.Fn.Captures {
			childScope[c] = true
		}
		// The nested function sees its own parameters plus whatever is
		// lexically visible at the point the Closure node appears: the
		// point of this pass is to confirm *that* a capture is legal, not
		// to decide *how* it will be implemented.
		for v := range scope {
			childScope[v] = true
		}
		return validateNode(p.Fn.Body, childScope)
	case *ir.Constant, *ir.FreeFunctionRef:
		return nil
	default:
		return nil
	}
}

func cloneScope(scope map[*ir.Variable]bool) map[*ir.Variable]bool {
	out := make(map[*ir.Variable]bool, len(scope)+1)
	for k, v := range scope {
		out[k] = v
	}
	return out
}
