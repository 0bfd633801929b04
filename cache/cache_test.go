package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapexpr/mapexpr/cache"
	"github.com/mapexpr/mapexpr/value"
)

func TestHashValueOrderInsensitiveForMaps(t *testing.T) {
	a := value.Map().Set("x", value.Int(1)).Set("y", value.Int(2)).Build()
	b := value.Map().Set("y", value.Int(2)).Set("x", value.Int(1)).Build()
	assert.Equal(t, cache.HashValue(a), cache.HashValue(b))
}

func TestHashValueDiffersOnContent(t *testing.T) {
	a := value.Map().Set("a", value.Int(1)).Build()
	b := value.Map().Set("a", value.Int(2)).Build()
	assert.NotEqual(t, cache.HashValue(a), cache.HashValue(b))
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.NewLRU[string](2)
	h1, h2, h3 := cache.HashString("a"), cache.HashString("b"), cache.HashString("c")
	c.Put(h1, "A")
	c.Put(h2, "B")
	c.Put(h3, "C") // evicts h1 (least recently used)

	_, ok := c.Get(h1)
	assert.False(t, ok)
	v2, ok := c.Get(h2)
	require.True(t, ok)
	assert.Equal(t, "B", v2)
}

func TestLRUStats(t *testing.T) {
	c := cache.NewLRU[string](10)
	h := cache.HashString("k")
	c.Put(h, "v")
	c.Get(h)
	_, _ = c.Get(cache.HashString("missing"))

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestRegistryScopesByOwner(t *testing.T) {
	r := cache.NewRegistry[string](10)
	r.For("A").Put(cache.HashString("k"), "a-value")
	r.For("B").Put(cache.HashString("k"), "b-value")

	va, _ := r.For("A").Get(cache.HashString("k"))
	vb, _ := r.For("B").Get(cache.HashString("k"))
	assert.Equal(t, "a-value", va)
	assert.Equal(t, "b-value", vb)

	r.ClearClass("A")
	_, ok := r.For("A").Get(cache.HashString("k"))
	assert.False(t, ok)
	_, ok = r.For("B").Get(cache.HashString("k"))
	assert.True(t, ok)
}

// TestHashValidatedMemoInvalidation reproduces spec.md §8 scenario 4.
func TestHashValidatedMemoInvalidation(t *testing.T) {
	c := cache.NewHashValidatedCache()
	calls := 0
	compute := func() int {
		calls++
		return calls
	}

	input1 := value.Map().Set("a", value.Int(1)).Build()
	first := cache.Remember(c, "T", "k", input1, compute)
	assert.Equal(t, 1, first)

	second := cache.Remember(c, "T", "k", input1, compute)
	assert.Equal(t, 1, second) // cached, compute not invoked again
	assert.Equal(t, 1, calls)

	input2 := value.Map().Set("a", value.Int(2)).Build()
	third := cache.Remember(c, "T", "k", input2, compute)
	assert.Equal(t, 2, third) // input changed, recomputed
	assert.Equal(t, 2, calls)
}
