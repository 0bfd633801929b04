// Package filter implements the Filter Registry & Engine of spec.md §4.5:
// a named-function pipeline applied left to right over a Value, plus the
// built-in filters and coercion rules of §4.5.1.
package filter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mapexpr/mapexpr/value"
)

// Func is a named, pure, total transform: (input, args) -> output. It may
// return value.Absent to short-circuit the remaining pipeline stages
// (spec.md §4.5).
type Func func(in value.Value, args []value.Value) value.Value

// UnknownFilterError is returned when a pipeline names a filter the
// Registry does not recognise (spec.md §7 UnknownFilter). The Mapping
// Executor reports it each time such a pipeline is evaluated, so a leaf
// inside a wildcard block reports it once per row rather than once per
// call. Suggestion is populated via fuzzy name matching against every
// registered filter, when a close one exists.
type UnknownFilterError struct {
	Name       string
	Suggestion string
}

func (e *UnknownFilterError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown filter %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown filter %q", e.Name)
}

// Registry is a name -> Func table, guarded like the teacher's
// core/decorator/registry.go and runtime/decorators/registry.go:
// RWMutex, Register/Get/Names.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty Registry. Use NewDefaultRegistry to get one
// pre-populated with the spec's required built-ins.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

// NewDefaultRegistry returns a Registry with every built-in of spec.md
// §4.5 already registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register installs fn under name, overwriting any previous registration.
// Per spec.md §5, registration is expected at startup, before concurrent
// reads begin.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Get resolves name, returning an UnknownFilterError (with a fuzzy-matched
// suggestion when one is close enough) on a miss.
func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	if ok {
		r.mu.RUnlock()
		return fn, nil
	}
	names := r.namesLocked()
	r.mu.RUnlock()
	return nil, &UnknownFilterError{Name: name, Suggestion: closest(name, names)}
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Names returns every registered filter name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// closest returns the candidate with the smallest Levenshtein distance to
// name (ties go to the first in candidates' order), or "" if even that one
// is more than len(name)/2+2 edits away and so not a plausible typo.
func closest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(name, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > len(name)/2+2 {
		return ""
	}
	return best
}

// Apply runs the pipeline (fc...) over in, stopping early at the first
// stage whose filter is absent from the Registry (returning an
// UnknownFilterError) or whose output is value.Absent (spec.md §4.5: "a
// filter that returns the sentinel absent causes downstream stages to be
// skipped"). The final value.Value is whatever the last executed stage
// produced; value.Absent may be returned to the caller, which is expected
// to treat it as "fall back to default/Null", per the IR.Default /
// skip-null contract implemented in package mapper.
func Apply(r *Registry, in value.Value, calls []Call) (value.Value, error) {
	cur := in
	for _, c := range calls {
		if value.IsAbsent(cur) {
			return cur, nil
		}
		fn, err := r.Get(c.Name)
		if err != nil {
			return value.Null, err
		}
		cur = fn(cur, c.Args)
	}
	return cur, nil
}

// Call mirrors expr.FilterCall without importing package expr, so filter
// has no dependency on the expression parser — only the reverse.
type Call struct {
	Name string
	Args []value.Value
}
