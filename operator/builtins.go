package operator

import (
	"fmt"
	"sort"

	"github.com/mapexpr/mapexpr/value"
)

// ApplyWhere implements spec.md §4.7's WHERE phase: config is a Map whose
// keys are `{{ ... }}` expressions (evaluated per row) and whose values
// are literals every kept row's expression result must equal. A row
// survives only if every key/value pair matches.
func ApplyWhere(rows []Row, config value.Value, resolve Resolver) ([]Row, error) {
	if config.Kind() != value.KindMap {
		return rows, nil
	}
	keys, _ := config.Keys()
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, k := range keys {
			want, _ := config.Get(k)
			got, err := resolve(row, k)
			if err != nil {
				return nil, err
			}
			if !equalCoerced(got, want) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

// equalCoerced is value.Equal widened with int/float cross-comparison,
// since a WHERE literal authored as `5` should match a source field typed
// as either Int or Float.
func equalCoerced(a, b value.Value) bool {
	if value.Equal(a, b) {
		return true
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if aok && bok {
		return af == bf
	}
	return false
}

func asNumber(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.KindInt:
		i, _ := v.Int()
		return float64(i), true
	case value.KindFloat:
		f, _ := v.Float()
		return f, true
	}
	return 0, false
}

type sortKey struct {
	expr string
	desc bool
}

// ApplyOrderBy implements spec.md §4.7's ORDER BY phase: config is a Map
// whose keys are `{{ ... }}` expressions, in left-to-right priority order,
// and whose values are the literal string "ASC" or "DESC". The sort is
// stable so equal-ranked rows keep their relative (post-WHERE) order.
func ApplyOrderBy(rows []Row, config value.Value, resolve Resolver) ([]Row, error) {
	if config.Kind() != value.KindMap {
		return rows, nil
	}
	keys, _ := config.Keys()
	specs := make([]sortKey, 0, len(keys))
	for _, k := range keys {
		dirVal, _ := config.Get(k)
		dir, _ := dirVal.Str()
		specs = append(specs, sortKey{expr: k, desc: dir == "DESC"})
	}

	var resolveErr error
	cmp := func(i, j int) bool {
		for _, sk := range specs {
			a, err := resolve(rows[i], sk.expr)
			if err != nil {
				resolveErr = err
				return false
			}
			b, err := resolve(rows[j], sk.expr)
			if err != nil {
				resolveErr = err
				return false
			}
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if sk.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	}

	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, cmp)
	if resolveErr != nil {
		return nil, resolveErr
	}
	return out, nil
}

// compareValues ranks numbers below Bools below strings below Null below
// everything else (spec.md §4.7's mixed-type rule "numbers before strings
// before Null", with Bools placed between numbers and strings), and is
// total across mixed-type comparisons so ORDER BY never panics on a
// heterogeneous column.
func compareValues(a, b value.Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch a.Kind() {
	case value.KindInt, value.KindFloat:
		af, _ := asNumber(a)
		bf, _ := asNumber(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case value.KindString:
		as, _ := a.Str()
		bs, _ := b.Str()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	case value.KindBool:
		ab, _ := a.Bool()
		bb, _ := b.Bool()
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func rank(v value.Value) int {
	switch v.Kind() {
	case value.KindInt, value.KindFloat:
		return 0
	case value.KindBool:
		return 1
	case value.KindString:
		return 2
	case value.KindNull:
		return 3
	default:
		return 4
	}
}

// ApplyOffset implements spec.md §4.7's OFFSET phase: config is an Int
// number of leading rows to drop.
func ApplyOffset(rows []Row, config value.Value) ([]Row, error) {
	n, ok := config.Int()
	if !ok || n <= 0 {
		return rows, nil
	}
	if n >= int64(len(rows)) {
		return rows[:0], nil
	}
	return rows[n:], nil
}

// ApplyLimit implements spec.md §4.7's LIMIT phase: config is an Int cap
// on the number of surviving rows.
func ApplyLimit(rows []Row, config value.Value) ([]Row, error) {
	n, ok := config.Int()
	if !ok {
		return nil, fmt.Errorf("operator: LIMIT config must be an integer, got %s", config.Kind())
	}
	if n < 0 {
		n = 0
	}
	if n >= int64(len(rows)) {
		return rows, nil
	}
	return rows[:n], nil
}
