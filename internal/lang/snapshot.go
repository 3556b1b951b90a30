package lang

import (
	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"tierwalk/internal/ir"
)

// FunctionSnapshot is one Function's point-in-time diagnostic record:
// enough to answer "what tier is this running at, and why" without
// exposing internal/dispatch's Slot type across the library boundary.
// Counts are narrowed to uint32 with fortio.org/safecast, the same
// checked-narrowing idiom the teacher uses throughout for serialized
// size fields, rather than trusting a silent int64->uint32 truncation.
type FunctionSnapshot struct {
	Name             string   `msgpack:"name,omitempty" json:"name,omitempty"`
	State            string   `msgpack:"state" json:"state"`
	InvocationCount  uint64   `msgpack:"invocation_count" json:"invocation_count"`
	ParamCount       uint32   `msgpack:"param_count" json:"param_count"`
	NestedCount      uint32   `msgpack:"nested_count" json:"nested_count"`
	Specialized      bool     `msgpack:"specialized" json:"specialized"`
	SpecializedKinds []string `msgpack:"specialized_kinds,omitempty" json:"specialized_kinds,omitempty"`
	ReturnKind       string   `msgpack:"return_kind" json:"return_kind"`
}

// Snapshot is the serializable dump cmd/tierwalk's `inspect --format=msgpack`
// writes out: a point-in-time copy of profile and dispatch state, never
// compiled code — SPEC_FULL.md's domain-stack table is explicit that this
// is allowed because spec.md's Non-goals forbid persisting compiled code
// across runs, not diagnostic data about it.
type Snapshot struct {
	Functions []FunctionSnapshot `msgpack:"functions" json:"functions"`
}

// Snapshot walks every Function reachable from one of this Library's own
// bindings (each binding's Function and its nested closures), producing
// one FunctionSnapshot per distinct Function. Functions registered in the
// driver but not reachable from a binding are not included.
func (l *Library) Snapshot() (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[*ir.Function]bool)
	var out []FunctionSnapshot
	for _, uf := range l.functions {
		for _, fn := range unitClosure(uf.fn) {
			if seen[fn] {
				continue
			}
			seen[fn] = true
			snap, err := snapshotFunction(fn, l.names)
			if err != nil {
				return Snapshot{}, err
			}
			out = append(out, snap)
		}
	}
	return Snapshot{Functions: out}, nil
}

// MarshalMsgpack serializes the snapshot via vmihailenco/msgpack/v5,
// the domain dependency SPEC_FULL.md's table binds to this exact surface.
func (s Snapshot) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(snapshotWire(s))
}

// snapshotWire exists only so msgpack.Marshal sees a plain struct rather
// than recursing into Snapshot's own MarshalMsgpack (which would loop).
type snapshotWire Snapshot

func snapshotFunction(fn *ir.Function, names map[*ir.Function]string) (FunctionSnapshot, error) {
	paramCount, err := safecast.Conv[uint32](len(fn.Params))
	if err != nil {
		return FunctionSnapshot{}, err
	}
	nestedCount, err := safecast.Conv[uint32](len(fn.Nested))
	if err != nil {
		return FunctionSnapshot{}, err
	}

	kinds := make([]string, len(fn.SpecializedParamKinds))
	for i, k := range fn.SpecializedParamKinds {
		kinds[i] = k.String()
	}

	return FunctionSnapshot{
		Name:             names[fn],
		State:            fn.State().String(),
		InvocationCount:  fn.Profile.InvocationCount,
		ParamCount:       paramCount,
		NestedCount:      nestedCount,
		Specialized:      fn.SpecializedEntry != nil,
		SpecializedKinds: kinds,
		ReturnKind:       fn.SpecializedReturnKind.String(),
	}, nil
}

// unitClosure flattens top and every transitively Nested Function, same
// shape as internal/unit's own unitFunctions — duplicated here rather
// than imported since internal/unit keeps that helper private and this
// package has no other need to depend on internal/unit's internals.
func unitClosure(top *ir.Function) []*ir.Function {
	out := []*ir.Function{top}
	for _, n := range top.Nested {
		out = append(out, unitClosure(n)...)
	}
	return out
}
