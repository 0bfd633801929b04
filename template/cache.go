package template

import (
	"github.com/mapexpr/mapexpr/cache"
	"github.com/mapexpr/mapexpr/expr"
	"github.com/mapexpr/mapexpr/operator"
	"github.com/mapexpr/mapexpr/value"
)

// DefaultCacheSize bounds the compiled-Plan LRU (spec.md §4.9: "compiled
// artifacts ... are cached, keyed by a content hash of their input").
const DefaultCacheSize = 500

// CachingCompiler wraps Compiler with a content-hash-keyed LRU so the same
// template Value compiled repeatedly (e.g. once per Mapper.Map call) only
// pays the compile cost on its first use.
type CachingCompiler struct {
	compiler *Compiler
	lru      *cache.LRU[Node]
}

func NewCachingCompiler(mode expr.Mode, ops *operator.Registry, maxEntries int) *CachingCompiler {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &CachingCompiler{
		compiler: NewCompiler(mode, ops),
		lru:      cache.NewLRU[Node](maxEntries),
	}
}

// Compile returns the cached Plan for tmpl if one is present; otherwise it
// compiles tmpl and stores the result before returning it.
func (c *CachingCompiler) Compile(tmpl value.Value) (Node, error) {
	h := cache.HashValue(tmpl)
	if n, ok := c.lru.Get(h); ok {
		return n, nil
	}
	n, err := c.compiler.Compile(tmpl)
	if err != nil {
		return nil, err
	}
	c.lru.Put(h, n)
	return n, nil
}

func (c *CachingCompiler) Stats() cache.Stats { return c.lru.Stats() }
func (c *CachingCompiler) Clear()             { c.lru.Clear() }
