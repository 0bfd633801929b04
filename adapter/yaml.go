package adapter

import (
	"gopkg.in/yaml.v3"

	"github.com/mapexpr/mapexpr/value"
)

// YAMLToValue decodes a YAML document into a value.Value tree. yaml.v3
// decodes mapping nodes into map[string]any (unlike yaml.v2's
// map[interface{}]interface{}), and decodes integer scalars as int, so
// FromAny sees the same shapes it does from encoding/json plus native
// Int where YAML's source text was an integer literal.
func YAMLToValue(data []byte) (value.Value, error) {
	var decoded any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return value.Null, err
	}
	return FromAny(decoded)
}

// ValueToYAML encodes v as YAML.
func ValueToYAML(v value.Value) ([]byte, error) {
	return yaml.Marshal(ToAny(v))
}
