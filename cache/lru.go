package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats mirrors the observability surface of spec.md §4.9/§6:
// `ExpressionParser::cache_stats()`, `ClassScopedCache::class_stats`.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      uint64
	Misses    uint64
	UsagePct  float64
}

// LRU is a bounded, mutex-guarded LRU cache keyed by Hash, wrapping
// hashicorp/golang-lru/v2 (a real bounded LRU, unlike the teacher's
// core/types/validation_cache.go which simply clears its whole map on
// overflow). One LRU exists per "owner" — e.g. one per compiler instance
// for the Plan cache, and a single process-wide one for the Expression
// cache — matching spec.md §4.9's "class-scoped... one LRU per owner
// key."
type LRU[V any] struct {
	mu      sync.RWMutex
	inner   *lru.Cache[Hash, V]
	maxSize int
	hits    uint64
	misses  uint64
}

// NewLRU creates an LRU bounded to maxSize entries. maxSize <= 0 is
// clamped to 1 (an always-evicting cache is still a valid, if useless,
// cache — never a panic).
func NewLRU[V any](maxSize int) *LRU[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	inner, _ := lru.New[Hash, V](maxSize)
	return &LRU[V]{inner: inner, maxSize: maxSize}
}

// Get returns the cached value for h, tracking hit/miss statistics.
func (c *LRU[V]) Get(h Hash) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.inner.Get(h)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores v under h, evicting the least-recently-used entry if the
// cache is already at capacity.
func (c *LRU[V]) Put(h Hash, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Add(h, v)
}

// Clear empties the cache without resetting hit/miss counters — mirrors
// `clear(owner)` in spec.md §6, which targets cache contents, not stats.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Purge()
}

// Stats reports current size/capacity/hit-rate.
func (c *LRU[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	size := c.inner.Len()
	pct := 0.0
	if c.maxSize > 0 {
		pct = float64(size) / float64(c.maxSize) * 100
	}
	return Stats{
		Size:     size,
		MaxSize:  c.maxSize,
		Hits:     c.hits,
		Misses:   c.misses,
		UsagePct: pct,
	}
}

// Registry tracks one LRU per owner key, matching spec.md §6's
// `ClassScopedCache::class_stats(owner)` / `::clear_class(owner)` and
// `CacheHelper::clear_all()`. V is the value type stored by every LRU in
// the registry (e.g. a compiled Plan).
type Registry[V any] struct {
	mu       sync.Mutex
	perOwner map[string]*LRU[V]
	capacity int
}

// NewRegistry creates a Registry whose LRUs are each bounded to capacity
// entries, created lazily on first use per owner.
func NewRegistry[V any](capacity int) *Registry[V] {
	return &Registry[V]{perOwner: map[string]*LRU[V]{}, capacity: capacity}
}

// For returns (creating if necessary) the LRU scoped to owner.
func (r *Registry[V]) For(owner string) *LRU[V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.perOwner[owner]
	if !ok {
		c = NewLRU[V](r.capacity)
		r.perOwner[owner] = c
	}
	return c
}

// ClassStats reports Stats for owner without creating it if absent.
func (r *Registry[V]) ClassStats(owner string) (Stats, bool) {
	r.mu.Lock()
	c, ok := r.perOwner[owner]
	r.mu.Unlock()
	if !ok {
		return Stats{}, false
	}
	return c.Stats(), true
}

// ClearClass clears (but does not remove) the LRU scoped to owner.
func (r *Registry[V]) ClearClass(owner string) {
	r.mu.Lock()
	c, ok := r.perOwner[owner]
	r.mu.Unlock()
	if ok {
		c.Clear()
	}
}

// ClearAll clears every owner's LRU.
func (r *Registry[V]) ClearAll() {
	r.mu.Lock()
	owners := make([]*LRU[V], 0, len(r.perOwner))
	for _, c := range r.perOwner {
		owners = append(owners, c)
	}
	r.mu.Unlock()
	for _, c := range owners {
		c.Clear()
	}
}
