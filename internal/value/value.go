// Package value defines the boxed runtime value representation ("opaque
// value" in spec terms) and the helpers needed to classify one by Kind.
// A Value is simply an any: int64 for INT, bool for BOOL, nil or any other
// Go value for REF. VOID never appears as a runtime value, only as an
// annotation.
package value

import "tierwalk/internal/types"

// Value is an opaque runtime value, exactly as the spec's "opaque value"
// crossing the interpreter/compiled-code boundary.
type Value = any

// KindOf classifies a boxed value by the machine-level kind it would occupy.
func KindOf(v Value) types.Kind {
	switch v.(type) {
	case int64:
		return types.Int
	case bool:
		return types.Bool
	default:
		return types.Ref
	}
}

// IsCompatible reports whether v could be unboxed into a slot declared of
// kind k without coercion. Ref slots accept anything.
func IsCompatible(k types.Kind, v Value) bool {
	if k == types.Ref {
		return true
	}
	return KindOf(v) == k
}

// AsInt unboxes v as an int64, panicking if it is not one. Callers must
// have already checked IsCompatible or be in a context where the kind is
// guaranteed (e.g. inside a specialized entry after the dispatch guard
// passed).
func AsInt(v Value) int64 {
	return v.(int64)
}

// AsBool unboxes v as a bool, panicking if it is not one.
func AsBool(v Value) bool {
	return v.(bool)
}
