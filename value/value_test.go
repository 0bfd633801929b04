package value_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mapexpr/mapexpr/value"
)

func TestEqualScalars(t *testing.T) {
	assert.True(t, value.Equal(value.Int(3), value.Int(3)))
	assert.False(t, value.Equal(value.Int(3), value.Float(3)))
	assert.True(t, value.Equal(value.String("a"), value.String("a")))
	assert.True(t, value.Equal(value.Null, value.Null))
}

func TestEqualNaNNeverEqual(t *testing.T) {
	nan := value.Float(math.NaN())
	assert.False(t, value.Equal(nan, nan))
}

func TestEqualMapIsOrderInsensitive(t *testing.T) {
	a := value.Map().Set("x", value.Int(1)).Set("y", value.Int(2)).Build()
	b := value.Map().Set("y", value.Int(2)).Set("x", value.Int(1)).Build()
	assert.True(t, value.Equal(a, b))
}

func TestEqualSeqIsPositional(t *testing.T) {
	a := value.Seq(value.Int(1), value.Int(2))
	b := value.Seq(value.Int(2), value.Int(1))
	assert.False(t, value.Equal(a, b))
}

func TestDeepCopyDoesNotAlias(t *testing.T) {
	inner := value.Seq(value.Int(1))
	orig := value.Map().Set("items", inner).Build()
	cp := value.DeepCopy(orig)

	assert.True(t, value.Equal(orig, cp))

	// Mutating the original's nested Seq backing array in place must not
	// be observable through cp, proving no storage is shared.
	items, _ := orig.Get("items")
	elems, _ := items.SeqValues()
	elems[0] = value.Int(99) // mutate the shared backing array directly
	cpItems, _ := cp.Get("items")
	cpElems, _ := cpItems.SeqValues()
	assert.Equal(t, int64(1), mustInt(t, cpElems[0]))
}

func mustInt(t *testing.T, v value.Value) int64 {
	t.Helper()
	i, ok := v.Int()
	assert.True(t, ok)
	return i
}

func TestTruthy(t *testing.T) {
	assert.False(t, value.Truthy(value.Null))
	assert.False(t, value.Truthy(value.Int(0)))
	assert.True(t, value.Truthy(value.Int(1)))
	assert.False(t, value.Truthy(value.String("")))
	assert.True(t, value.Truthy(value.String("x")))
	assert.False(t, value.Truthy(value.Bool(false)))
}

// TestDeepCopyRoundTrip mirrors the teacher's planfmt round-trip idiom:
// copy, then diff, expecting no difference. cmp.Diff calls Value's own
// Equal method rather than needing cmpopts.IgnoreUnexported.
func TestDeepCopyRoundTrip(t *testing.T) {
	orig := value.Map().
		Set("name", value.String("alice")).
		Set("tags", value.Seq(value.String("a"), value.String("b"))).
		Set("nested", value.Map().Set("n", value.Int(1)).Build()).
		Build()
	cp := value.DeepCopy(orig)
	if diff := cmp.Diff(orig, cp); diff != "" {
		t.Errorf("DeepCopy round-trip mismatch (-orig +copy):\n%s", diff)
	}
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := value.Map().Set("b", value.Int(1)).Set("a", value.Int(2)).Build()
	keys, ok := m.Keys()
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, keys)
}
