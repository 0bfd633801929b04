// Package access implements the Accessor: reading a value.Value tree by
// path.Path, including wildcard fan-out with shape-preserving collection,
// per spec.md §4.2.
package access

import (
	"strconv"

	"github.com/mapexpr/mapexpr/path"
	"github.com/mapexpr/mapexpr/value"
)

// Get descends root by the segments of p. A missing key/index, or a
// type mismatch (e.g. a Key segment against a Seq), returns def rather
// than panicking — the Accessor is total (spec.md §8 "Accessor totality").
//
// When p contains one or more Wildcard segments, Get fans out at each
// Wildcard over every child of the current node and recurses the
// remainder of the path under each child, collecting results back into a
// container whose kind matches the Wildcard's parent: a Seq parent yields
// a Seq result (in original order), a Map parent yields a Map result
// (keyed by the original keys). Nested wildcards nest the same way.
func Get(root value.Value, p path.Path, def value.Value) value.Value {
	return get(root, p, def)
}

func get(cur value.Value, p path.Path, def value.Value) value.Value {
	if len(p) == 0 {
		return cur
	}

	seg := p[0]
	rest := p[1:]

	if seg.Kind == path.Wildcard {
		return getWildcard(cur, rest, def)
	}

	switch seg.Kind {
	case path.Key:
		if cur.Kind() != value.KindMap {
			return def
		}
		child, ok := cur.Get(seg.Key)
		if !ok {
			return def
		}
		return get(child, rest, def)
	case path.Index:
		if cur.Kind() != value.KindSeq {
			return def
		}
		child, ok := cur.Index(int(seg.Idx))
		if !ok {
			return def
		}
		return get(child, rest, def)
	default:
		return def
	}
}

// getWildcard fans out over every child of cur. The result's container
// kind is always determined by cur's kind (the Wildcard's parent), never
// by the shape of what the recursive descent produces underneath it — per
// the Open Question resolved in DESIGN.md: shape is parent-kind
// determined.
func getWildcard(cur value.Value, rest path.Path, def value.Value) value.Value {
	switch cur.Kind() {
	case value.KindSeq:
		elems, _ := cur.SeqValues()
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			out[i] = get(e, rest, def)
		}
		return value.SeqFrom(out)
	case value.KindMap:
		keys, _ := cur.Keys()
		out := make(map[string]value.Value, len(keys))
		for _, k := range keys {
			child, _ := cur.Get(k)
			out[k] = get(child, rest, def)
		}
		return value.MapFromKeys(append([]string(nil), keys...), out)
	default:
		// Wildcard against a scalar/Null has no children; the spec
		// mandates parent-kind shape, and there is no parent kind here,
		// so fall back to def without panicking.
		return def
	}
}

// GetOK resolves p exactly like Get, but additionally reports whether every
// segment of p resolved to an existing value, rather than falling back to a
// default: false if any Key/Index segment along the way was missing or hit
// a type mismatch. A Wildcard segment never by itself makes ok false — per
// spec.md §8 Accessor totality, a wildcard fan-out always produces a result
// (possibly containing Null elements); per-element presence is checked by
// the caller resolving each element's own concrete (non-wildcard) path.
func GetOK(root value.Value, p path.Path) (value.Value, bool) {
	return getOK(root, p)
}

func getOK(cur value.Value, p path.Path) (value.Value, bool) {
	if len(p) == 0 {
		return cur, true
	}

	seg := p[0]
	rest := p[1:]

	if seg.Kind == path.Wildcard {
		return getWildcard(cur, rest, value.Null), true
	}

	switch seg.Kind {
	case path.Key:
		if cur.Kind() != value.KindMap {
			return value.Null, false
		}
		child, ok := cur.Get(seg.Key)
		if !ok {
			return value.Null, false
		}
		return getOK(child, rest)
	case path.Index:
		if cur.Kind() != value.KindSeq {
			return value.Null, false
		}
		child, ok := cur.Index(int(seg.Idx))
		if !ok {
			return value.Null, false
		}
		return getOK(child, rest)
	default:
		return value.Null, false
	}
}

// GetAligned resolves p exactly like Get, but additionally returns the
// ordered list of keys/indices visited at each Wildcard level (outermost
// first), flattened in traversal order. The levels let a caller align a
// source wildcard fan-out against a target wildcard fan-out position by
// position (spec.md §4.7 "wildcard alignment").
func GetAligned(root value.Value, p path.Path) (value.Value, [][]string) {
	var levels [][]string
	result := getAligned(root, p, &levels)
	return result, levels
}

func getAligned(cur value.Value, p path.Path, levels *[][]string) value.Value {
	if len(p) == 0 {
		return cur
	}
	seg := p[0]
	rest := p[1:]

	if seg.Kind == path.Wildcard {
		switch cur.Kind() {
		case value.KindSeq:
			elems, _ := cur.SeqValues()
			keys := make([]string, len(elems))
			for i := range elems {
				keys[i] = strconv.Itoa(i)
			}
			*levels = append(*levels, keys)
			out := make([]value.Value, len(elems))
			for i, e := range elems {
				out[i] = getAligned(e, rest, levels)
			}
			return value.SeqFrom(out)
		case value.KindMap:
			ks, _ := cur.Keys()
			*levels = append(*levels, append([]string(nil), ks...))
			out := make(map[string]value.Value, len(ks))
			for _, k := range ks {
				child, _ := cur.Get(k)
				out[k] = getAligned(child, rest, levels)
			}
			return value.MapFromKeys(append([]string(nil), ks...), out)
		default:
			return value.Null
		}
	}

	switch seg.Kind {
	case path.Key:
		if cur.Kind() != value.KindMap {
			return value.Null
		}
		child, ok := cur.Get(seg.Key)
		if !ok {
			return value.Null
		}
		return getAligned(child, rest, levels)
	case path.Index:
		if cur.Kind() != value.KindSeq {
			return value.Null
		}
		child, ok := cur.Index(int(seg.Idx))
		if !ok {
			return value.Null
		}
		return getAligned(child, rest, levels)
	default:
		return value.Null
	}
}
