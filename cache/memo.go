package cache

import (
	"sync"

	"github.com/mapexpr/mapexpr/value"
)

// memoEntry pairs a stored result with the hash of the input that
// produced it, so a later call can tell whether the input has changed
// (spec.md §4.9 "Hash-validated memo").
type memoEntry struct {
	hash   Hash
	result any
}

// HashValidatedCache implements `HashValidatedCache::remember(owner, key,
// input, compute)` from spec.md §6: it recomputes only when the hash of
// input diverges from what produced the stored result, regardless of
// whether input is the same Go value or merely hashes the same.
type HashValidatedCache struct {
	mu      sync.Mutex
	entries map[string]map[string]memoEntry
}

// NewHashValidatedCache constructs an empty memo.
func NewHashValidatedCache() *HashValidatedCache {
	return &HashValidatedCache{entries: map[string]map[string]memoEntry{}}
}

// Remember returns the cached result for (owner, slot) if input's
// canonical hash still matches what produced it; otherwise it calls
// compute(), stores the new result keyed by input's fresh hash, and
// returns that. The zero-value generic result is never returned on a
// cache hit path other than what compute() itself produced at some point.
func Remember[T any](c *HashValidatedCache, owner, slot string, input value.Value, compute func() T) T {
	h := HashValue(input)

	c.mu.Lock()
	slots, ok := c.entries[owner]
	if !ok {
		slots = map[string]memoEntry{}
		c.entries[owner] = slots
	}
	if e, ok := slots[slot]; ok && e.hash == h {
		c.mu.Unlock()
		return e.result.(T)
	}
	c.mu.Unlock()

	result := compute()

	c.mu.Lock()
	c.entries[owner][slot] = memoEntry{hash: h, result: result}
	c.mu.Unlock()

	return result
}

// Clear removes every remembered slot for owner.
func (c *HashValidatedCache) Clear(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, owner)
}

// ClearAll removes every remembered slot for every owner.
func (c *HashValidatedCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]map[string]memoEntry{}
}
