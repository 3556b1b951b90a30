package analysis

import "tierwalk/internal/ir"

// ConvertClosures rewrites every nested Function under fn so that it
// never reads a variable hosted outside itself directly: each such free
// variable is replaced by a CopiedVariable in the nested function's own
// frame, supplied by a GetVar evaluated in the scope where the Closure
// node is built. When the free variable lives more than one nesting level
// up, intermediate functions are themselves given a copy first (chaining
// down one level at a time), so that no function ever reaches more than
// one frame away from its own.
//
// Children must be converted before their parents are inspected: a
// grandchild's free-variable needs have to be resolved (and, if they
// reach past the immediate parent, already pushed onto the parent) before
// the parent's own free-variable set can be computed correctly.
func ConvertClosures(fn *ir.Function) error {
	for _, child := range fn.Nested {
		if err := ConvertClosures(child); err != nil {
			return err
		}
		free := freeVariables(child)
		if len(free) == 0 {
			continue
		}
		subst := make(map[*ir.Variable]*ir.Variable, len(free))
		for _, v := range free {
			if existing := findCapture(child, v); existing != nil {
				subst[v] = existing
				continue
			}
			supplier := resolveInScope(fn, v)
			subst[v] = addCapture(child, v, supplier)
		}
		substituteVars(child.Body, subst)
	}
	return nil
}

// substituteVars rewrites every GetVar/SetVar in body whose Var appears in
// subst to point at its replacement, stopping at nested Closure nodes:
// those belong to a different Function, already converted on its own
// terms, and must not be touched by a substitution meant for this level.
func substituteVars(n *ir.Node, subst map[*ir.Variable]*ir.Variable) {
	if n == nil {
		return
	}
	switch p := n.Payload.(type) {
	case *ir.GetVar:
		if r, ok := subst[p.Var]; ok {
			p.Var = r
		}
	case *ir.SetVar:
		if r, ok := subst[p.Var]; ok {
			p.Var = r
		}
		substituteVars(p.RHS, subst)
	case *ir.Closure:
		for _, c := range p.Captures {
			substituteVars(c.Supplier, subst)
		}
	default:
		for _, c := range n.Children() {
			substituteVars(c, subst)
		}
	}
}

// freeVariables returns the distinct Variables referenced within fn's own
// body (including inside its Nested closures' capture suppliers, which by
// this point have already been resolved down to fn's own frame or a
// grandchild's) that are not hosted by fn itself.
func freeVariables(fn *ir.Function) []*ir.Variable {
	seen := make(map[*ir.Variable]bool)
	var order []*ir.Variable
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil {
			return
		}
		switch p := n.Payload.(type) {
		case *ir.GetVar:
			note(p.Var, fn, seen, &order)
		case *ir.SetVar:
			note(p.Var, fn, seen, &order)
			walk(p.RHS)
		case *ir.Closure:
			for _, c := range p.Captures {
				walk(c.Supplier)
			}
			return // do not descend into the nested function's own body
		default:
			for _, c := range n.Children() {
				walk(c)
			}
		}
	}
	walk(fn.Body)
	return order
}

func note(v *ir.Variable, owner *ir.Function, seen map[*ir.Variable]bool, order *[]*ir.Variable) {
	if v.Host == owner || seen[v] {
		return
	}
	seen[v] = true
	*order = append(*order, v)
}

func findCapture(fn *ir.Function, original *ir.Variable) *ir.Variable {
	for _, c := range fn.Captures {
		if c.Original == original {
			return c
		}
	}
	return nil
}

// resolveInScope returns an expression, evaluated in fn's own frame, that
// produces v's value: a direct GetVar if v is hosted by fn, or (after
// ensuring fn itself captures v, recursing toward fn's root if necessary)
// a GetVar of fn's own copy.
func resolveInScope(fn *ir.Function, v *ir.Variable) *ir.Node {
	if v.Host == fn {
		return ir.NewGetVar(v)
	}
	if existing := findCapture(fn, v); existing != nil {
		return ir.NewGetVar(existing)
	}
	upstream := resolveInScope(fn.Parent, v)
	copied := addCapture(fn, v, upstream)
	return ir.NewGetVar(copied)
}

// addCapture appends a new CopiedVariable to fn's own frame for original,
// supplied by the given expression, recording it in both fn.Captures (for
// the Indexer) and the Closure node that builds fn (so the interpreter and
// the code generator know what to copy at closure-creation time).
func addCapture(fn *ir.Function, original *ir.Variable, supplier *ir.Node) *ir.Variable {
	copied := ir.NewCopiedVariable(original.Name, fn, -1, original, supplier)
	fn.Captures = append(fn.Captures, copied)
	if lit := findClosureLiteral(fn); lit != nil {
		lit.Captures = append(lit.Captures, copied)
	}
	return copied
}

// findClosureLiteral locates the Closure payload (in fn.Parent's body)
// that builds fn, so newly discovered captures can be appended to the
// same Captures list the interpreter and code generator will read from at
// the point the closure value is constructed. Returns nil for a top-level
// Function, which has no enclosing Closure node.
func findClosureLiteral(fn *ir.Function) *ir.Closure {
	if fn.Parent == nil {
		return nil
	}
	var found *ir.Closure
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil || found != nil {
			return
		}
		if p, ok := n.Payload.(*ir.Closure); ok && p.Fn == fn {
			found = p
			return
		}
		if _, ok := n.Payload.(*ir.Closure); ok {
			return // a different nested function, don't descend into it
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(fn.Parent.Body)
	return found
}
