package expr

import (
	"github.com/mapexpr/mapexpr/cache"
)

// DefaultCacheSize matches spec.md §4.9's expression-cache default range
// (1000–2000 entries); we pick the upper bound.
const DefaultCacheSize = 2000

// Cache wraps Parse with the Expression LRU of spec.md §4.9: entries are
// keyed by xxh128(leaf_source_string), independent of parse Mode (the two
// modes only disagree on inputs containing escape sequences, and callers
// are expected to pick one Mode per process).
type Cache struct {
	lru  *cache.LRU[*IR]
	mode Mode
}

// NewCache creates an expression cache bounded to maxEntries, parsing
// with the given Mode on a miss.
func NewCache(maxEntries int, mode Mode) *Cache {
	return &Cache{lru: cache.NewLRU[*IR](maxEntries), mode: mode}
}

// Get returns the cached IR for raw, parsing and caching it on a miss.
func (c *Cache) Get(raw string) (*IR, error) {
	h := cache.HashString(raw)
	if ir, ok := c.lru.Get(h); ok {
		return ir, nil
	}
	ir, err := Parse(raw, c.mode)
	if err != nil {
		return nil, err
	}
	c.lru.Put(h, ir)
	return ir, nil
}

// Stats reports cache occupancy/hit-rate.
func (c *Cache) Stats() cache.Stats { return c.lru.Stats() }

// Clear empties the cache.
func (c *Cache) Clear() { c.lru.Clear() }
