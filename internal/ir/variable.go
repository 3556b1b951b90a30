package ir

import "tierwalk/internal/types"

// VarKind discriminates how a Variable's slot is populated.
type VarKind uint8

const (
	// DeclaredParameter is bound by the caller at invocation time.
	DeclaredParameter VarKind = iota
	// LetBound is bound by evaluating a Let node's Init.
	LetBound
	// CopiedVariable is bound by copying down the value of an enclosing
	// Variable (Original) at closure-creation time, via Supplier. This is
	// the closure-conversion strategy: a nested function never reads an
	// outer frame directly, it reads its own copied slot.
	CopiedVariable
)

func (k VarKind) String() string {
	switch k {
	case DeclaredParameter:
		return "DeclaredParameter"
	case LetBound:
		return "LetBound"
	case CopiedVariable:
		return "CopiedVariable"
	default:
		return "VarKind(?)"
	}
}

// Variable is one named binding within a Function's frame. FrameIndex is
// assigned by internal/analysis's Indexer pass and is stable for the
// lifetime of the Function (a recompile reuses the same indices, since the
// Node tree and its Variables are never rebuilt, only reannotated).
type Variable struct {
	Kind VarKind
	Name string

	// Host is the Function whose frame this Variable's slot lives in.
	Host *Function
	// FrameIndex is this Variable's slot offset within Host's frame.
	FrameIndex int

	// InferredType and ObservedType mirror the Node annotations but for a
	// variable's slot rather than an expression result; SetVar/GetVar read
	// these rather than recomputing from scratch.
	InferredType types.ExprType
	ObservedType types.ExprType
	// SpecializedKind is the kind chosen for this slot's unboxed storage
	// when (and if) the owning Function is compiled; Ref if no primitive
	// kind could be established.
	SpecializedKind types.Kind

	Profile *ValueProfile

	// Original and Supplier are set only for CopiedVariable: Original is
	// the enclosing Variable being captured, Supplier is the Node
	// (typically a GetVar of Original, possibly chained through an
	// intermediate CopiedVariable when capture crosses more than one
	// nesting level) evaluated in the defining scope to produce the value
	// copied into this Variable's slot at closure-creation time.
	Original *Variable
	Supplier *Node
}

func NewDeclaredParameter(name string, host *Function, frameIndex int) *Variable {
	return &Variable{Kind: DeclaredParameter, Name: name, Host: host, FrameIndex: frameIndex, Profile: NewValueProfile()}
}

func NewLetBound(name string, host *Function, frameIndex int) *Variable {
	return &Variable{Kind: LetBound, Name: name, Host: host, FrameIndex: frameIndex, Profile: NewValueProfile()}
}

func NewCopiedVariable(name string, host *Function, frameIndex int, original *Variable, supplier *Node) *Variable {
	return &Variable{
		Kind: CopiedVariable, Name: name, Host: host, FrameIndex: frameIndex,
		Original: original, Supplier: supplier, Profile: NewValueProfile(),
	}
}

// kindBit is a one-hot encoding of types.Kind used by ValueProfile's
// polymorphism bitset. Only Int and Bool get bits; anything else collapses
// to the Ref bit, since that's the only distinction a specialized slot can
// act on.
func kindBit(k types.Kind) uint8 {
	switch k {
	case types.Int:
		return 1 << 0
	case types.Bool:
		return 1 << 1
	default:
		return 1 << 2
	}
}

// ValueProfile records which machine kinds, and in the Ref case which
// single concrete object identity, have flowed through one value-producing
// site (a variable, a return, or a call site's callee). It is consulted
// by internal/observe, both for a Variable's ObservedType and, through
// MonomorphicCallee, for the result type of an indirect call whose callee
// has always been the same Function.
type ValueProfile struct {
	kindsSeen uint8

	sawRefObject      bool
	monomorphicObject any
	refPolymorphic    bool
}

func NewValueProfile() *ValueProfile { return &ValueProfile{} }

// Observe records one witnessed value, updating the kind bitset and, for
// Ref values, the monomorphic-object tracking.
func (p *ValueProfile) Observe(v any, k types.Kind) {
	p.kindsSeen |= kindBit(k)
	if k != types.Ref {
		return
	}
	identity := objectIdentity(v)
	switch {
	case !p.sawRefObject:
		p.sawRefObject = true
		p.monomorphicObject = identity
	case p.monomorphicObject != identity:
		p.refPolymorphic = true
	}
}

// objectIdentity reduces a Ref value to a comparable witness of "what kind
// of object is this", for monomorphism tracking. Closures and top-level
// function references are tracked by the Function they wrap; every other
// Ref value maps to nil, so all non-callable Ref values count as one and
// the same identity.
func objectIdentity(v any) any {
	switch t := v.(type) {
	case *ClosureValue:
		return t.Fn
	case *Function:
		return t
	default:
		return nil
	}
}

// ClosureValue is the runtime representation of a Closure node's result:
// a function paired with the captured values it closed over, in capture
// order matching Closure.Captures.
type ClosureValue struct {
	Fn       *Function
	Captured []any
}

// ObservedKind reports the Known kind this profile supports specializing
// on, or Unknown if the site is polymorphic or has seen nothing yet.
// Exactly one primitive kind bit set, with no Ref traffic, yields that
// kind; anything else (no traffic, mixed primitive kinds, any Ref
// traffic) yields Unknown, mirroring the "Ref is never a specialization
// target on its own, only a fallback" rule.
func (p *ValueProfile) ObservedKind() types.ExprType {
	switch p.kindsSeen {
	case 1 << 0:
		return types.Known(types.Int)
	case 1 << 1:
		return types.Known(types.Bool)
	default:
		return types.Unknown()
	}
}

// MonomorphicCallee returns the single Function this profile has observed
// at a call site's callee position, and whether it was in fact monomorphic
// (seen at least once, never a different callee).
func (p *ValueProfile) MonomorphicCallee() (*Function, bool) {
	if !p.sawRefObject || p.refPolymorphic {
		return nil, false
	}
	fn, ok := p.monomorphicObject.(*Function)
	return fn, ok
}

// FunctionProfile accumulates per-invocation data for one Function: how
// many times it has been called, and a ValueProfile per declared
// parameter. It lives on the Function rather than being threaded through
// calls explicitly, since every tier that executes the function's body
// shares the same profile instance.
type FunctionProfile struct {
	InvocationCount uint64
	ParamProfiles   []*ValueProfile
	ReturnProfile   *ValueProfile
}

func NewFunctionProfile(arity int) *FunctionProfile {
	params := make([]*ValueProfile, arity)
	for i := range params {
		params[i] = NewValueProfile()
	}
	return &FunctionProfile{ParamProfiles: params, ReturnProfile: NewValueProfile()}
}

func (fp *FunctionProfile) RecordInvocation(args []any, kindOf func(any) types.Kind) {
	fp.InvocationCount++
	for i, a := range args {
		if i >= len(fp.ParamProfiles) {
			break
		}
		fp.ParamProfiles[i].Observe(a, kindOf(a))
	}
}

func (fp *FunctionProfile) RecordReturn(v any, kindOf func(any) types.Kind) {
	fp.ReturnProfile.Observe(v, kindOf(v))
}
