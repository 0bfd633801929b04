package adapter

import (
	"encoding/json"

	"github.com/mapexpr/mapexpr/value"
)

// JSONToValue decodes a JSON document into a value.Value tree. JSON
// numbers always decode as Float, per encoding/json's default `any`
// behaviour — callers needing Int semantics should run the `int` filter
// on the relevant leaves.
func JSONToValue(data []byte) (value.Value, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return value.Null, err
	}
	return FromAny(decoded)
}

// ValueToJSON encodes v as JSON.
func ValueToJSON(v value.Value) ([]byte, error) {
	return json.Marshal(ToAny(v))
}

// ValueToJSONIndent encodes v as indented JSON, for human-facing output.
func ValueToJSONIndent(v value.Value, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(ToAny(v), prefix, indent)
}
