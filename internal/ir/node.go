// Package ir defines the evaluator-node tree shared by every execution
// tier, the variable and profile model attached to it, and the
// compilation-unit state machine (Function). All three live in one
// package because they are mutually referential in the original design:
// a Node references Variables, a Variable references its host Function,
// and a Function owns the Node tree that is its body. Splitting them
// across packages would require either an import cycle or an opaque `any`
// escape hatch at every boundary; keeping them together avoids both.
//
// A Node tree has no sharing and no cycles: each child pointer is owned by
// exactly one parent. Annotations (InferredType, ObservedType) are mutated
// in place by the analysis passes in internal/analysis, internal/infer and
// internal/observe.
package ir

import "tierwalk/internal/types"

// Kind discriminates the payload carried by a Node.
type Kind uint8

const (
	InvalidNode Kind = iota
	ConstantNode
	GetVarNode
	SetVarNode
	LetNode
	IfNode
	WhileNode
	BlockNode
	ReturnNode
	CallNode
	PrimitiveNode
	ClosureNode
	FreeFunctionRefNode
)

func (k Kind) String() string {
	switch k {
	case ConstantNode:
		return "Constant"
	case GetVarNode:
		return "GetVar"
	case SetVarNode:
		return "SetVar"
	case LetNode:
		return "Let"
	case IfNode:
		return "If"
	case WhileNode:
		return "While"
	case BlockNode:
		return "Block"
	case ReturnNode:
		return "Return"
	case CallNode:
		return "Call"
	case PrimitiveNode:
		return "Primitive"
	case ClosureNode:
		return "Closure"
	case FreeFunctionRefNode:
		return "FreeFunctionRef"
	default:
		return "Invalid"
	}
}

// Node is one evaluator-tree node. Every tier reads the same tree; the
// profiling tier additionally mutates the counters embedded in some
// payloads (If.TakenCount, Call.Profile) as it goes.
type Node struct {
	Kind Kind

	// InferredType is written by internal/infer's fixed-point pass, which
	// may revise it on each iteration until the unit stops changing.
	InferredType types.ExprType
	// ObservedType is written repeatedly by internal/observe, once per
	// compile trigger, from live profile data.
	ObservedType types.ExprType

	Payload any
}

// Constant is a literal value baked into the tree at parse/build time.
type Constant struct {
	Value any
}

// GetVar reads a variable's current slot value.
type GetVar struct {
	Var *Variable
}

// SetVar assigns the result of RHS into Var's slot.
type SetVar struct {
	Var *Variable
	RHS *Node
}

// Let introduces a LetBound variable, evaluates Init into its slot, then
// evaluates Body with that binding visible.
type Let struct {
	Var  *Variable
	Init *Node
	Body *Node
}

// RecoveryFrameIndex identifies the frame slot a square-peg unwind would
// resume at if this runtime ever grew an on-stack-replacement recovery
// path. It satisfies internal/codegen's RecoverySite, kept only so that
// concept has a home; our actual recovery is a call-granularity retry via
// Go's own stack unwind, not a resume at this Let's slot.
func (l *Let) RecoveryFrameIndex() int {
	return l.Var.FrameIndex
}

// If is a two-armed conditional. TakenCount/NotTakenCount are branch
// counters maintained only by the profiling tier; every other tier leaves
// them untouched.
type If struct {
	Cond, Then, Else *Node
	TakenCount       uint64
	NotTakenCount    uint64
}

// While loops while Cond holds, per the spec's Bool-only condition rule
// (a non-Bool condition value is a RuntimeError, not coerced).
type While struct {
	Cond, Body *Node
}

// Block evaluates Stmts in order; its value is that of the last statement,
// or Void if Stmts is empty.
type Block struct {
	Stmts []*Node
}

// Return unwinds the current function invocation with Value's result, or
// with Void if Value is nil.
type Return struct {
	Value *Node
}

// Call invokes either a statically known DirectTarget function (Direct ==
// true, resolved at build time to a specific top-level Function with no
// intervening expression) or the value produced by evaluating Callee.
// Profile accumulates the observed identity of the callee across
// invocations of this call site, which lets the profile observer (C6)
// take a monomorphic callee's observed return type as the call's type.
type Call struct {
	Direct       bool
	DirectTarget *Function
	Callee       *Node // nil when Direct
	Args         []*Node
	Profile      *ValueProfile
}

// Primitive applies a built-in operator (arity 1 or 2, determined by
// len(Args)) looked up by name in internal/builtin. Kept as one payload
// shape rather than Primitive1/Primitive2 structs since Go doesn't need
// the arity split the original's typed-node hierarchy used it for.
type Primitive struct {
	Op   string
	Args []*Node
}

// Closure builds a closure value over Fn, capturing the current values of
// Captures (each a CopiedVariable whose Supplier produces the value to
// copy down) at the point this node executes.
type Closure struct {
	Fn       *Function
	Captures []*Variable
}

// FreeFunctionRef denotes a reference to a top-level function that closes
// over nothing, so no capture step is needed; it differs from Closure only
// in that respect but is kept as a separate node kind because the
// specializer and dispatcher treat capture-free call targets specially
// (DirectTarget resolution never requires forcing a closure allocation).
type FreeFunctionRef struct {
	Fn *Function
}

// Children returns n's direct child nodes in evaluation order, skipping
// nils. Used by the analysis passes, which all share this traversal shape.
func (n *Node) Children() []*Node {
	switch p := n.Payload.(type) {
	case *Constant:
		return nil
	case *GetVar:
		return nil
	case *SetVar:
		return []*Node{p.RHS}
	case *Let:
		return []*Node{p.Init, p.Body}
	case *If:
		return nonNil(p.Cond, p.Then, p.Else)
	case *While:
		return []*Node{p.Cond, p.Body}
	case *Block:
		return p.Stmts
	case *Return:
		if p.Value == nil {
			return nil
		}
		return []*Node{p.Value}
	case *Call:
		if p.Direct {
			return p.Args
		}
		return append([]*Node{p.Callee}, p.Args...)
	case *Primitive:
		return p.Args
	case *Closure:
		return nil
	case *FreeFunctionRef:
		return nil
	default:
		return nil
	}
}

func nonNil(ns ...*Node) []*Node {
	out := make([]*Node, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func NewConstant(v any) *Node {
	return &Node{Kind: ConstantNode, Payload: &Constant{Value: v}}
}

func NewGetVar(v *Variable) *Node {
	return &Node{Kind: GetVarNode, Payload: &GetVar{Var: v}}
}

func NewSetVar(v *Variable, rhs *Node) *Node {
	return &Node{Kind: SetVarNode, Payload: &SetVar{Var: v, RHS: rhs}}
}

func NewLet(v *Variable, init, body *Node) *Node {
	return &Node{Kind: LetNode, Payload: &Let{Var: v, Init: init, Body: body}}
}

func NewIf(cond, then, els *Node) *Node {
	return &Node{Kind: IfNode, Payload: &If{Cond: cond, Then: then, Else: els}}
}

func NewWhile(cond, body *Node) *Node {
	return &Node{Kind: WhileNode, Payload: &While{Cond: cond, Body: body}}
}

func NewBlock(stmts []*Node) *Node {
	return &Node{Kind: BlockNode, Payload: &Block{Stmts: stmts}}
}

func NewReturn(v *Node) *Node {
	return &Node{Kind: ReturnNode, Payload: &Return{Value: v}}
}

func NewCall(callee *Node, args []*Node) *Node {
	return &Node{Kind: CallNode, Payload: &Call{Callee: callee, Args: args, Profile: NewValueProfile()}}
}

func NewDirectCall(target *Function, args []*Node) *Node {
	return &Node{Kind: CallNode, Payload: &Call{Direct: true, DirectTarget: target, Args: args, Profile: NewValueProfile()}}
}

func NewPrimitive(op string, args []*Node) *Node {
	return &Node{Kind: PrimitiveNode, Payload: &Primitive{Op: op, Args: args}}
}

func NewClosure(fn *Function, captures []*Variable) *Node {
	return &Node{Kind: ClosureNode, Payload: &Closure{Fn: fn, Captures: captures}}
}

func NewFreeFunctionRef(fn *Function) *Node {
	return &Node{Kind: FreeFunctionRefNode, Payload: &FreeFunctionRef{Fn: fn}}
}
