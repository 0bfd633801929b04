// Package adapter implements the external Value adapter described in
// spec.md §4.11/§6: converting a value.Value tree to and from the byte
// encodings mapexpr's hosts actually pass sources and templates around in.
package adapter

import (
	"fmt"
	"sort"

	"github.com/mapexpr/mapexpr/value"
)

// IntoValue is implemented by host types that know how to project
// themselves into the universal tree. Mapper.Map and Query.Source accept
// only value.Value, so a caller converts a domain struct with IntoValue
// and passes the result.
type IntoValue interface {
	IntoValue() (value.Value, error)
}

// FromValue is the inverse: a host type that can populate itself from a
// resolved output tree.
type FromValue interface {
	FromValue(value.Value) error
}

// FromAny converts a decoded Go value (the typical result of
// encoding/json or yaml.v3 unmarshalling into an `any`) into a
// value.Value tree. It accepts exactly the shapes those two decoders
// produce: nil, bool, string, float64/int/int64/uint64 (YAML decodes
// integers natively; JSON always produces float64), []any and
// map[string]any.
func FromAny(in any) (value.Value, error) {
	switch v := in.(type) {
	case nil:
		return value.Null, nil
	case bool:
		return value.Bool(v), nil
	case string:
		return value.String(v), nil
	case int:
		return value.Int(int64(v)), nil
	case int64:
		return value.Int(v), nil
	case uint64:
		return value.Int(int64(v)), nil
	case float64:
		return value.Float(v), nil
	case []any:
		elems := make([]value.Value, len(v))
		for i, e := range v {
			cv, err := FromAny(e)
			if err != nil {
				return value.Null, err
			}
			elems[i] = cv
		}
		return value.SeqFrom(elems), nil
	case map[string]any:
		b := value.Map()
		for _, k := range sortedKeys(v) {
			cv, err := FromAny(v[k])
			if err != nil {
				return value.Null, err
			}
			b.Set(k, cv)
		}
		return b.Build(), nil
	default:
		return value.Null, fmt.Errorf("adapter: unsupported decoded type %T", in)
	}
}

// ToAny converts v back into plain Go values suitable for
// encoding/json.Marshal or yaml.Marshal.
func ToAny(v value.Value) any {
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
			out[i] = ToAny(e)
		}
		return out
	case value.KindMap:
		keys, _ := v.Keys()
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			child, _ := v.Get(k)
			out[k] = ToAny(child)
		}
		return out
	default:
		return nil
	}
}

// sortedKeys gives map[string]any's keys a deterministic order: JSON/YAML
// object key order is not semantically meaningful input, so lexical order
// (rather than Go's randomised map iteration) is all decoding needs.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
