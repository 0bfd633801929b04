// Package mutate implements the Mutator: writing, merging and removing
// values in a value.Value tree by path.Path, always returning a new tree
// and never touching the input (spec.md §4.3, §8 "Mutator purity").
package mutate

import (
	"github.com/mapexpr/mapexpr/path"
	"github.com/mapexpr/mapexpr/value"
)

// Set returns a copy of root with val written at p, creating any
// intermediate Map/Seq nodes the path demands. The segment kind of the
// *next* path element decides the kind of node created at each step: an
// Index segment implies a Seq parent, a Key segment implies a Map parent.
//
// A Wildcard segment broadcasts: if val is itself a Seq, its elements are
// written positionally to the existing children; if val is a scalar (or
// any non-Seq), the same val is broadcast to every existing position.
// Broadcasting over a path with no existing children at that level is a
// no-op at that branch (there is nothing to broadcast onto).
func Set(root value.Value, p path.Path, val value.Value) value.Value {
	if len(p) == 0 {
		return val
	}
	return set(root, p, val)
}

func set(cur value.Value, p path.Path, val value.Value) value.Value {
	seg := p[0]
	rest := p[1:]

	if seg.Kind == path.Wildcard {
		return setWildcard(cur, rest, val)
	}

	switch seg.Kind {
	case path.Key:
		return setKey(cur, seg.Key, rest, val)
	case path.Index:
		return setIndex(cur, int(seg.Idx), rest, val)
	default:
		return cur
	}
}

func setKey(cur value.Value, key string, rest path.Path, val value.Value) value.Value {
	m := asMutableMap(cur)
	child, _ := m.Get(key)
	var next value.Value
	if len(rest) == 0 {
		next = val
	} else {
		next = set(child, rest, val)
	}
	return mapSet(m, key, next)
}

func setIndex(cur value.Value, idx int, rest path.Path, val value.Value) value.Value {
	s := asMutableSeq(cur, idx+1)
	child, _ := s.Index(idx)
	var next value.Value
	if len(rest) == 0 {
		next = val
	} else {
		next = set(child, rest, val)
	}
	return seqSet(s, idx, next)
}

func setWildcard(cur value.Value, rest path.Path, val value.Value) value.Value {
	switch cur.Kind() {
	case value.KindSeq:
		elems, _ := cur.SeqValues()
		out := make([]value.Value, len(elems))
		broadcastElems, isBroadcastSeq := val.SeqValues()
		for i, e := range elems {
			var v value.Value
			if isBroadcastSeq {
				if i < len(broadcastElems) {
					v = broadcastElems[i]
				} else {
					out[i] = e
					continue
				}
			} else {
				v = val
			}
			if len(rest) == 0 {
				out[i] = v
			} else {
				out[i] = set(e, rest, v)
			}
		}
		return value.SeqFrom(out)
	case value.KindMap:
		keys, _ := cur.Keys()
		out := make(map[string]value.Value, len(keys))
		broadcastElems, isBroadcastSeq := val.SeqValues()
		for i, k := range keys {
			child, _ := cur.Get(k)
			var v value.Value
			if isBroadcastSeq {
				if i < len(broadcastElems) {
					v = broadcastElems[i]
				} else {
					out[k] = child
					continue
				}
			} else {
				v = val
			}
			if len(rest) == 0 {
				out[k] = v
			} else {
				out[k] = set(child, rest, v)
			}
		}
		return value.MapFromKeys(append([]string(nil), keys...), out)
	default:
		// No existing children to broadcast onto; nothing to do.
		return cur
	}
}

// Unset returns a copy of root with the leaf at p removed. A Map entry is
// dropped; a Seq element is replaced by Null so later indices keep their
// positions, unless compact is true, in which case it is removed and later
// elements shift down. Empty intermediate maps/sequences left behind are
// preserved, not compacted, unless compact is true.
func Unset(root value.Value, p path.Path, compact bool) value.Value {
	if len(p) == 0 {
		return value.Null
	}
	out, _ := unset(root, p, compact)
	return out
}

// unset returns (newValue, stillPresent). stillPresent is false when
// compact is requested and the node became empty, signalling the caller
// one level up to remove it too.
func unset(cur value.Value, p path.Path, compact bool) (value.Value, bool) {
	seg := p[0]
	rest := p[1:]

	switch seg.Kind {
	case path.Key:
		if cur.Kind() != value.KindMap {
			return cur, true
		}
		keys, _ := cur.Keys()
		child, ok := cur.Get(seg.Key)
		if !ok {
			return cur, true
		}
		m := make(map[string]value.Value, len(keys))
		newKeys := make([]string, 0, len(keys))
		for _, k := range keys {
			v, _ := cur.Get(k)
			if k == seg.Key {
				if len(rest) == 0 {
					continue // drop this key entirely
				}
				nv, present := unset(child, rest, compact)
				if compact && !present {
					continue
				}
				m[k] = nv
				newKeys = append(newKeys, k)
				continue
			}
			m[k] = v
			newKeys = append(newKeys, k)
		}
		stillPresent := !compact || len(newKeys) > 0
		return value.MapFromKeys(newKeys, m), stillPresent
	case path.Index:
		if cur.Kind() != value.KindSeq {
			return cur, true
		}
		elems, _ := cur.SeqValues()
		idx := int(seg.Idx)
		if idx < 0 || idx >= len(elems) {
			return cur, true
		}
		if len(rest) == 0 {
			if compact {
				out := make([]value.Value, 0, len(elems)-1)
				out = append(out, elems[:idx]...)
				out = append(out, elems[idx+1:]...)
				return value.SeqFrom(out), len(out) > 0
			}
			out := append([]value.Value(nil), elems...)
			out[idx] = value.Null
			return value.SeqFrom(out), true
		}
		out := append([]value.Value(nil), elems...)
		nv, _ := unset(elems[idx], rest, compact)
		out[idx] = nv
		return value.SeqFrom(out), true
	default:
		// Wildcard unset removes every child at this level the way a
		// Key/Index segment would (Map entries dropped, Seq elements
		// Nulled unless compact); the same recursion tail per child.
		return unsetWildcard(cur, rest, compact)
	}
}

func unsetWildcard(cur value.Value, rest path.Path, compact bool) (value.Value, bool) {
	switch cur.Kind() {
	case value.KindSeq:
		elems, _ := cur.SeqValues()
		out := make([]value.Value, 0, len(elems))
		for _, e := range elems {
			if len(rest) == 0 {
				if !compact {
					out = append(out, value.Null)
				}
				continue
			}
			nv, present := unset(e, rest, compact)
			if compact && !present {
				continue
			}
			out = append(out, nv)
		}
		return value.SeqFrom(out), len(out) > 0
	case value.KindMap:
		keys, _ := cur.Keys()
		m := make(map[string]value.Value, len(keys))
		newKeys := make([]string, 0, len(keys))
		for _, k := range keys {
			if len(rest) == 0 {
				continue // drop this key entirely
			}
			child, _ := cur.Get(k)
			nv, present := unset(child, rest, compact)
			if compact && !present {
				continue
			}
			m[k] = nv
			newKeys = append(newKeys, k)
		}
		return value.MapFromKeys(newKeys, m), len(newKeys) > 0
	default:
		return cur, true
	}
}

// Merge deep-merges val into root at p: Map entries merge key by key,
// Seq values concatenate when both sides are sequences, and anything else
// (scalar vs scalar, or mismatched kinds) is an overwrite.
func Merge(root value.Value, p path.Path, val value.Value) value.Value {
	if len(p) == 0 {
		return mergeValue(root, val)
	}
	return set(root, p, mergeValue(Get(root, p), val))
}

// Get is a tiny local read used by Merge to fetch the existing value at p
// before combining it with val. The full Accessor lives in package access;
// Merge keeps its own reader instead of importing it, so the two packages
// stay independent. A Wildcard segment reads as Null here.
func Get(root value.Value, p path.Path) value.Value {
	cur := root
	for _, seg := range p {
		switch seg.Kind {
		case path.Key:
			if cur.Kind() != value.KindMap {
				return value.Null
			}
			child, ok := cur.Get(seg.Key)
			if !ok {
				return value.Null
			}
			cur = child
		case path.Index:
			if cur.Kind() != value.KindSeq {
				return value.Null
			}
			child, ok := cur.Index(int(seg.Idx))
			if !ok {
				return value.Null
			}
			cur = child
		default:
			return value.Null
		}
	}
	return cur
}

func mergeValue(a, b value.Value) value.Value {
	if a.Kind() == value.KindMap && b.Kind() == value.KindMap {
		keys, _ := a.Keys()
		m := make(map[string]value.Value, len(keys))
		newKeys := append([]string(nil), keys...)
		for _, k := range keys {
			v, _ := a.Get(k)
			m[k] = v
		}
		bKeys, _ := b.Keys()
		for _, k := range bKeys {
			bv, _ := b.Get(k)
			if av, ok := m[k]; ok {
				m[k] = mergeValue(av, bv)
			} else {
				m[k] = bv
				newKeys = append(newKeys, k)
			}
		}
		return value.MapFromKeys(newKeys, m)
	}
	if a.Kind() == value.KindSeq && b.Kind() == value.KindSeq {
		ae, _ := a.SeqValues()
		be, _ := b.SeqValues()
		out := make([]value.Value, 0, len(ae)+len(be))
		out = append(out, ae...)
		out = append(out, be...)
		return value.SeqFrom(out)
	}
	return b
}

func asMutableMap(cur value.Value) value.Value {
	if cur.Kind() == value.KindMap {
		return cur
	}
	return value.Map().Build()
}

func asMutableSeq(cur value.Value, minLen int) value.Value {
	if cur.Kind() == value.KindSeq {
		elems, _ := cur.SeqValues()
		if len(elems) >= minLen {
			return cur
		}
		out := make([]value.Value, minLen)
		copy(out, elems)
		for i := len(elems); i < minLen; i++ {
			out[i] = value.Null
		}
		return value.SeqFrom(out)
	}
	out := make([]value.Value, minLen)
	for i := range out {
		out[i] = value.Null
	}
	return value.SeqFrom(out)
}

func mapSet(m value.Value, key string, val value.Value) value.Value {
	keys, _ := m.Keys()
	newM := make(map[string]value.Value, len(keys)+1)
	for _, k := range keys {
		v, _ := m.Get(k)
		newM[k] = v
	}
	newKeys := keys
	if _, exists := newM[key]; !exists {
		newKeys = append(append([]string(nil), keys...), key)
	} else {
		newKeys = append([]string(nil), keys...)
	}
	newM[key] = val
	return value.MapFromKeys(newKeys, newM)
}

func seqSet(s value.Value, idx int, val value.Value) value.Value {
	elems, _ := s.SeqValues()
	out := append([]value.Value(nil), elems...)
	out[idx] = val
	return value.SeqFrom(out)
}
