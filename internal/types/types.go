// Package types defines the machine-level value kinds the runtime reasons
// about, and the two join operators used by static inference and by
// profile-driven observation respectively.
package types

import "fmt"

// Kind is one of the small set of machine-level value kinds a node can
// produce. Unlike a general-purpose language's type system this is a closed
// lattice of four members, not a class hierarchy.
type Kind uint8

const (
	// Invalid is the zero value and never a valid annotation on a node.
	Invalid Kind = iota
	// Int is a boxed/unboxed 64-bit signed integer.
	Int
	// Bool is a boolean.
	Bool
	// Ref is the top of the lattice: any reference-typed value, or a mix of
	// incompatible primitives.
	Ref
	// Void contributes nothing when folded into a return type; produced by
	// Return nodes and nothing else.
	Void
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Ref:
		return "ref"
	case Void:
		return "void"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Join computes the least upper bound of two kinds in the value lattice.
// join(INT,INT)=INT; join(BOOL,BOOL)=BOOL; any mix of distinct primitives,
// or any mix with Ref, yields Ref. Void is an identity element: joining Void
// with anything returns the other operand, which is how Return folding
// works (a function whose only return is `void` has no other contribution).
func Join(a, b Kind) Kind {
	if a == Void {
		return b
	}
	if b == Void {
		return a
	}
	if a == b {
		return a
	}
	return Ref
}

// IsPrimitive reports whether a kind can be represented unboxed (i.e. it is
// eligible to appear in a specialized signature).
func (k Kind) IsPrimitive() bool {
	return k == Int || k == Bool
}
