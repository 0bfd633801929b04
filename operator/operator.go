// Package operator implements the Wildcard Operator Registry of spec.md
// §4.7/§4.8: built-in WHERE/ORDER BY/LIMIT/OFFSET plus user-registered
// operators transforming a bag of candidate rows produced by fanning out
// a WildcardBlock.
package operator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mapexpr/mapexpr/value"
)

// Row identifies one candidate position in a WildcardBlock's fan-out:
// either a Seq index or a Map key, never both. Operators receive and
// return []Row; the Mapping Executor resolves each surviving Row's body
// after every operator phase has run (spec.md §4.7).
type Row struct {
	Index    int
	Key      string
	IsMapDim bool
}

// Label returns the stable string identifier spec.md §4.8 calls "a bag of
// candidate rows (indexed by a stable key)".
func (r Row) Label() string {
	if r.IsMapDim {
		return r.Key
	}
	return r.Key // Key is pre-populated with the decimal index too; see rowset.go
}

// Resolver evaluates a full `{{ ... }}` expression string against row's
// position, substituting row's index/key at the wildcard the enclosing
// WildcardBlock is fanning over. Built-in and custom operators use it to
// read arbitrary source fields — even ones never projected into the
// template body — when judging WHERE/ORDER BY predicates (spec.md §4.8:
// "a read-only handle to all sources for resolving {{ ... }} references
// inside the operator's config").
type Resolver func(row Row, exprSrc string) (value.Value, error)

// Func is a user-registered operator transform (spec.md §4.8): it must be
// deterministic and must return a new row bag rather than mutating rows
// in place.
type Func func(rows []Row, config value.Value, resolve Resolver) ([]Row, error)

// UnknownOperatorError is reported when a template's WildcardBlock names
// an operator key the Registry does not recognise (spec.md §7).
type UnknownOperatorError struct {
	Name       string
	Suggestion string
}

func (e *UnknownOperatorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown operator %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown operator %q", e.Name)
}

// Registry holds user-registered operators. The four canonical built-ins
// (WHERE, ORDER BY, LIMIT, OFFSET) are handled directly by the Mapping
// Executor per the fixed phase order of spec.md §4.7 and are never looked
// up here; Registry only resolves names beyond that closed set.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// BuiltinNames is the reserved operator key set of spec.md §4.6/§6 that
// the Template Compiler strips out of literal Map output and attaches as
// operators instead.
var BuiltinNames = map[string]bool{
	"WHERE":    true,
	"ORDER BY": true,
	"LIMIT":    true,
	"OFFSET":   true,
}

func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	if ok {
		r.mu.RUnlock()
		return fn, nil
	}
	names := r.namesLocked()
	r.mu.RUnlock()
	return nil, &UnknownOperatorError{Name: name, Suggestion: closest(name, names)}
}

// IsRegistered reports whether name is a user-registered operator (not a
// built-in — use BuiltinNames for those).
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

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
