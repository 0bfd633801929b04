package mapper

import "github.com/mapexpr/mapexpr/value"

// Query is the fluent builder of spec.md §4.7: `query().source(...).
// template(...).skip_null(...).reindex_wildcard(...).map()`. It borrows
// its owning Mapper's registries and caches but may override per-call
// options (skip_null, reindex_wildcard) without mutating the Mapper.
type Query struct {
	m         *Mapper
	sources   map[string]value.Value
	tmpl      value.Value
	skipNull  bool
	reindex   bool
}

// Query starts a fluent call against m, inheriting its current Options as
// the starting point for skip_null/reindex_wildcard.
func (m *Mapper) Query() *Query {
	return &Query{
		m:        m,
		sources:  map[string]value.Value{},
		skipNull: m.Options.SkipNull,
		reindex:  m.Options.ReindexWildcard,
	}
}

func (q *Query) Source(name string, v value.Value) *Query {
	q.sources[name] = v
	return q
}

func (q *Query) Template(tmpl value.Value) *Query {
	q.tmpl = tmpl
	return q
}

func (q *Query) SkipNull(v bool) *Query {
	q.skipNull = v
	return q
}

func (q *Query) ReindexWildcard(v bool) *Query {
	q.reindex = v
	return q
}

// Map executes the built query, applying its skip_null/reindex_wildcard
// overrides for the duration of this single call only.
func (q *Query) Map() (value.Value, error) {
	opts := q.m.Options
	opts.SkipNull = q.skipNull
	opts.ReindexWildcard = q.reindex
	scoped := &Mapper{
		Filters:   q.m.Filters,
		Operators: q.m.Operators,
		Templates: q.m.Templates,
		ExprCache: q.m.ExprCache,
		Logger:    q.m.Logger,
		Options:   opts,
		hooks:     q.m.hooks,
	}
	return scoped.Map(q.sources, q.tmpl)
}
