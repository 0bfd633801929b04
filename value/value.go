// Package value implements the universal tagged-union tree node that every
// other package in mapexpr reads from, writes into, or walks: Null, Bool,
// Int, Float, String, Seq and Map.
package value

import (
	"fmt"
	"math"
)

// Kind identifies which alternative of the Value union is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap

	// KindAbsent is an internal pseudo-kind produced only by the Filter
	// Engine's pipeline (spec.md §4.5: "a filter that returns the
	// sentinel 'absent' causes downstream stages to be skipped"). It is
	// never written into a target tree — the Mapping Executor resolves
	// it to a leaf's default literal, or Null, before the leaf is
	// emitted.
	KindAbsent
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	case KindAbsent:
		return "absent"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the tagged union described in spec.md §3. Only the field(s)
// matching Kind are meaningful; callers should always branch on Kind
// rather than probing fields directly.
type Value struct {
	kind Kind

	b bool
	i int64
	f float64
	s string

	seq []Value
	// m holds the map payload. keys preserves insertion order for
	// deterministic iteration/output while m gives O(1) lookup.
	m    map[string]Value
	keys []string
}

// Null is the zero Value's identity; provided for readability at call
// sites since the zero Value already has Kind == KindNull.
var Null = Value{kind: KindNull}

// Absent is the Filter Engine's sentinel result: it signals "skip the
// rest of this pipeline and fall back to the leaf's default/Null" rather
// than being a real tree value. See KindAbsent.
var Absent = Value{kind: KindAbsent}

// IsAbsent reports whether v is the Filter Engine's Absent sentinel.
func IsAbsent(v Value) bool { return v.kind == KindAbsent }

func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Int(i int64) Value    { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

// Seq constructs a sequence Value from the given elements. The slice is
// copied defensively so later mutation of elems does not alias the Value.
func Seq(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindSeq, seq: cp}
}

// SeqFrom wraps an existing slice without copying. Callers must not mutate
// elems afterwards; used internally by packages that already built a fresh
// slice (e.g. the Accessor and Mutator).
func SeqFrom(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindSeq, seq: elems}
}

// Map constructs a keyed Value, preserving the order keys were supplied in.
func Map() *MapBuilder {
	return &MapBuilder{v: Value{kind: KindMap, m: map[string]Value{}}}
}

// MapBuilder provides a fluent way to construct Map values in tests and
// fixtures without fighting insertion-order bookkeeping by hand.
type MapBuilder struct{ v Value }

func (b *MapBuilder) Set(key string, val Value) *MapBuilder {
	b.v.setKey(key, val)
	return b
}

func (b *MapBuilder) Build() Value { return b.v }

func (v *Value) setKey(key string, val Value) {
	if v.m == nil {
		v.m = map[string]Value{}
	}
	if _, exists := v.m[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.m[key] = val
}

// MapFromKeys builds a Map Value from an explicit key order and lookup map;
// used internally so Accessor/Mutator results preserve provenance order
// without going through one MapBuilder.Set call per key.
func MapFromKeys(keys []string, m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	if keys == nil {
		keys = make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
	}
	return Value{kind: KindMap, keys: keys, m: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// SeqValues returns the sequence elements. The returned slice is shared
// with the Value's internal storage and must be treated as read-only.
func (v Value) SeqValues() ([]Value, bool) {
	if v.kind != KindSeq {
		return nil, false
	}
	return v.seq, true
}

// Keys returns the Map's keys in insertion order.
func (v Value) Keys() ([]string, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.keys, true
}

// Get looks up a single Map key, returning (value, true) on hit.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null, false
	}
	val, ok := v.m[key]
	return val, ok
}

// Index looks up a single Seq position.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSeq || i < 0 || i >= len(v.seq) {
		return Null, false
	}
	return v.seq[i], true
}

func (v Value) Len() int {
	switch v.kind {
	case KindSeq:
		return len(v.seq)
	case KindMap:
		return len(v.keys)
	default:
		return 0
	}
}

// Equal reports deep, order-insensitive-for-maps equality, per spec.md §3:
// Map equality ignores insertion order, Seq equality is positional, and a
// Float NaN is never equal to itself.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		if math.IsNaN(a.f) || math.IsNaN(b.f) {
			return false
		}
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindSeq:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// DeepCopy returns a Value with no storage shared with v, so a caller can
// mutate the copy (via Mutator helpers building a new tree around it)
// without the original ever observing the change.
func DeepCopy(v Value) Value {
	switch v.kind {
	case KindSeq:
		cp := make([]Value, len(v.seq))
		for i, e := range v.seq {
			cp[i] = DeepCopy(e)
		}
		return Value{kind: KindSeq, seq: cp}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		keys := make([]string, len(v.keys))
		copy(keys, v.keys)
		for k, val := range v.m {
			m[k] = DeepCopy(val)
		}
		return Value{kind: KindMap, m: m, keys: keys}
	default:
		return v
	}
}

// Equal is a method form of the package-level Equal function, letting
// github.com/google/go-cmp compare Values (including those with
// unexported fields) without an explicit cmpopts.IgnoreUnexported option:
// cmp recognises and calls a type's own Equal(T) bool method.
func (v Value) Equal(other Value) bool { return Equal(v, other) }

// Truthy is a general coercion-to-bool rule following Go-ish zero-value
// conventions: Null, false, zero numbers, the empty string and empty
// Seq/Map are false; everything else is true. The `bool` filter does not
// use it and has its own string table.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindSeq:
		return len(v.seq) > 0
	case KindMap:
		return len(v.keys) > 0
	default:
		return false
	}
}
