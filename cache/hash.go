// Package cache implements the Cache Layer of spec.md §4.9: bounded LRU
// caches for compiled expressions and plans, a generic hash-validated
// memo, and usage statistics — all keyed by a canonical xxh128 content
// hash so identical input always maps to the same cache slot regardless
// of map-iteration order or container representation.
package cache

import (
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"

	"github.com/mapexpr/mapexpr/value"
)

// Hash is an xxh128 digest, matching spec.md §4.9/§9: "xxh128 over a
// canonical byte encoding (sorted map keys, UTF-8 strings, length-
// prefixed strings); do not rely on the host's default hash."
type Hash [16]byte

// HashBytes computes the xxh128 digest of already-canonical bytes.
func HashBytes(b []byte) Hash {
	h := xxh3.Hash128(b)
	return Hash{
		byte(h.Hi >> 56), byte(h.Hi >> 48), byte(h.Hi >> 40), byte(h.Hi >> 32),
		byte(h.Hi >> 24), byte(h.Hi >> 16), byte(h.Hi >> 8), byte(h.Hi),
		byte(h.Lo >> 56), byte(h.Lo >> 48), byte(h.Lo >> 40), byte(h.Lo >> 32),
		byte(h.Lo >> 24), byte(h.Lo >> 16), byte(h.Lo >> 8), byte(h.Lo),
	}
}

// HashString is a convenience for the common case of hashing a raw
// expression/template source string directly (the Expression cache key
// in spec.md §4.9 is "xxh128(leaf_source_string)").
func HashString(s string) Hash {
	return HashBytes([]byte(s))
}

// HashValue canonicalizes v (sorted map keys, length-prefixed strings via
// CBOR) and returns its xxh128 digest — the key used for the Plan cache
// (keyed by template content) and for HashValidatedCache.Remember.
func HashValue(v value.Value) Hash {
	return HashBytes(Canonicalize(v))
}

// canonicalPair is a single Map entry in canonical form: a fixed two-
// element array, so CBOR encodes it as [key, value] regardless of map
// iteration order, because the surrounding Map becomes a CBOR array of
// pairs sorted by key rather than a CBOR map.
type canonicalPair struct {
	_    struct{} `cbor:",toarray"`
	Key  string
	Val  any
}

// Canonicalize renders v as deterministic bytes: Maps become arrays of
// (sorted-key, value) pairs, Seqs become arrays in original order, and
// scalars encode as their native CBOR major type. Two Values that are
// value.Equal always canonicalize to the same bytes except where Equal
// treats order-insensitive Maps as equal via different physical
// orderings — Canonicalize sorts keys precisely to make those byte-equal
// too.
func Canonicalize(v value.Value) []byte {
	b, err := cbor.Marshal(toCanonical(v))
	if err != nil {
		// toCanonical only ever produces CBOR-encodable native types
		// (nil, bool, int64, float64, string, []any, []canonicalPair);
		// a Marshal failure here means a new Value Kind was added
		// without updating toCanonical.
		panic("cache: canonicalize: " + err.Error())
	}
	return b
}

func toCanonical(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.Bool()
		return b
	case value.KindInt:
		i, _ := v.Int()
		return i
	case value.KindFloat:
		f, _ := v.Float()
		return f
	case value.KindString:
		s, _ := v.Str()
		return s
	case value.KindSeq:
		elems, _ := v.SeqValues()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = toCanonical(e)
		}
		return out
	case value.KindMap:
		keys, _ := v.Keys()
		sorted := append([]string(nil), keys...)
		sort.Strings(sorted)
		pairs := make([]canonicalPair, len(sorted))
		for i, k := range sorted {
			child, _ := v.Get(k)
			pairs[i] = canonicalPair{Key: k, Val: toCanonical(child)}
		}
		return pairs
	default:
		return nil
	}
}
