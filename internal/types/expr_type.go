package types

// ExprType is the type assigned to an expression node by either the static
// inferencer or the profile observer: either Unknown, or Known of a
// specific Kind. Known vs Unknown are exposed through the uniform API
// below rather than through type assertions, mirroring the original
// "Known/Unknown" split without exposing it at the Go type level.
type ExprType struct {
	known bool
	kind  Kind
}

// Unknown is the expression type carrying no information at all.
func Unknown() ExprType { return ExprType{} }

// Known wraps a concrete kind.
func Known(k Kind) ExprType { return ExprType{known: true, kind: k} }

// IsUnknown reports whether this type carries no information.
func (t ExprType) IsUnknown() bool { return !t.known }

// Kind returns the wrapped kind and whether the type was in fact known.
func (t ExprType) Kind() (Kind, bool) { return t.kind, t.known }

// MustKind returns the wrapped kind, or Ref if the type is unknown. Used at
// the point specialized types are chosen, where "nothing else applies"
// falls back to Ref per spec.
func (t ExprType) MustKind() Kind {
	if !t.known {
		return Ref
	}
	return t.kind
}

// Union is the pessimistic join used by static inference: if either operand
// is Unknown, the result is Unknown.
func (t ExprType) Union(other ExprType) ExprType {
	if !t.known || !other.known {
		return Unknown()
	}
	return Known(Join(t.kind, other.kind))
}

// OpportunisticUnion is the join used by profile-driven observation: Unknown
// is an identity, so an unreached branch never pollutes the observed type of
// a branch that was reached.
func (t ExprType) OpportunisticUnion(other ExprType) ExprType {
	if !t.known {
		return other
	}
	if !other.known {
		return t
	}
	return Known(Join(t.kind, other.kind))
}

// Equal reports structural equality, used by the unify-and-detect-widening
// logic in the inferencer and the observer.
func (t ExprType) Equal(other ExprType) bool {
	return t.known == other.known && (!t.known || t.kind == other.kind)
}

func (t ExprType) String() string {
	if !t.known {
		return "<unknown>"
	}
	return t.kind.String()
}
