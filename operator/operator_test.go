package operator_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapexpr/mapexpr/operator"
	"github.com/mapexpr/mapexpr/value"
)

// fakeResolver builds a row's resolver response keyed by field name, used to
// stand in for the Mapping Executor's real expression resolver.
func fakeResolver(col map[string][]value.Value) operator.Resolver {
	return func(row operator.Row, exprSrc string) (value.Value, error) {
		field, ok := col[exprSrc]
		if !ok {
			return value.Null, fmt.Errorf("no fixture column for %q", exprSrc)
		}
		if row.Index < 0 || row.Index >= len(field) {
			return value.Null, fmt.Errorf("row index out of range")
		}
		return field[row.Index], nil
	}
}

func TestWhereFiltersByEquality(t *testing.T) {
	rows := operator.SeqRows(3)
	col := map[string][]value.Value{
		"{{p.*.category}}": {value.String("Electronics"), value.String("Books"), value.String("Electronics")},
	}
	cfg := value.Map().Set("{{p.*.category}}", value.String("Electronics")).Build()
	out, err := operator.ApplyWhere(rows, cfg, fakeResolver(col))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Index)
	assert.Equal(t, 2, out[1].Index)
}

func TestOrderByStableMultiKey(t *testing.T) {
	rows := operator.SeqRows(4)
	col := map[string][]value.Value{
		"{{p.*.category}}": {value.String("A"), value.String("B"), value.String("A"), value.String("B")},
		"{{p.*.price}}":     {value.Int(30), value.Int(10), value.Int(10), value.Int(5)},
	}
	cfg := value.Map().
		Set("{{p.*.category}}", value.String("ASC")).
		Set("{{p.*.price}}", value.String("ASC")).
		Build()
	out, err := operator.ApplyOrderBy(rows, cfg, fakeResolver(col))
	require.NoError(t, err)
	require.Len(t, out, 4)
	// category A: idx2(price10), idx0(price30); category B: idx3(price5), idx1(price10)
	assert.Equal(t, []int{2, 0, 3, 1}, []int{out[0].Index, out[1].Index, out[2].Index, out[3].Index})
}

// TestOrderByMixedTypeColumnRanksNumbersStringsThenNull verifies spec.md
// §4.7's explicit mixed-type rule: "numbers before strings before Null".
func TestOrderByMixedTypeColumnRanksNumbersStringsThenNull(t *testing.T) {
	rows := operator.SeqRows(4)
	col := map[string][]value.Value{
		"{{p.*.v}}": {value.String("a"), value.Null, value.Int(5), value.Float(1.5)},
	}
	cfg := value.Map().Set("{{p.*.v}}", value.String("ASC")).Build()
	out, err := operator.ApplyOrderBy(rows, cfg, fakeResolver(col))
	require.NoError(t, err)
	require.Len(t, out, 4)
	// ascending: 1.5 (idx3), 5 (idx2), "a" (idx0), Null (idx1)
	assert.Equal(t, []int{3, 2, 0, 1}, []int{out[0].Index, out[1].Index, out[2].Index, out[3].Index})
}

func TestOffsetAndLimit(t *testing.T) {
	rows := operator.SeqRows(10)
	afterOffset, err := operator.ApplyOffset(rows, value.Int(3))
	require.NoError(t, err)
	require.Len(t, afterOffset, 7)
	assert.Equal(t, 3, afterOffset[0].Index)

	limited, err := operator.ApplyLimit(afterOffset, value.Int(2))
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, 3, limited[0].Index)
	assert.Equal(t, 4, limited[1].Index)
}

func TestOffsetBeyondLengthYieldsEmpty(t *testing.T) {
	rows := operator.SeqRows(3)
	out, err := operator.ApplyOffset(rows, value.Int(100))
	require.NoError(t, err)
	assert.Empty(t, out)
}

// TestScenarioWildcardPipeline reproduces spec.md §8 scenario 3: WHERE
// category == Electronics, ORDER BY price DESC, OFFSET 1, LIMIT 2.
func TestScenarioWildcardPipeline(t *testing.T) {
	rows := operator.SeqRows(5)
	col := map[string][]value.Value{
		"{{products.*.category}}": {
			value.String("Electronics"), value.String("Books"), value.String("Electronics"),
			value.String("Electronics"), value.String("Toys"),
		},
		"{{products.*.price}}": {value.Int(200), value.Int(15), value.Int(500), value.Int(50), value.Int(20)},
	}
	resolve := fakeResolver(col)

	whereCfg := value.Map().Set("{{products.*.category}}", value.String("Electronics")).Build()
	filtered, err := operator.ApplyWhere(rows, whereCfg, resolve)
	require.NoError(t, err)
	require.Len(t, filtered, 3) // idx 0, 2, 3

	orderCfg := value.Map().Set("{{products.*.price}}", value.String("DESC")).Build()
	ordered, err := operator.ApplyOrderBy(filtered, orderCfg, resolve)
	require.NoError(t, err)
	require.Equal(t, []int{2, 0, 3}, []int{ordered[0].Index, ordered[1].Index, ordered[2].Index}) // 500,200,50

	offset, err := operator.ApplyOffset(ordered, value.Int(1))
	require.NoError(t, err)
	limited, err := operator.ApplyLimit(offset, value.Int(2))
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, []int{0, 3}, []int{limited[0].Index, limited[1].Index})
}

func TestUnknownOperatorSuggestsClosest(t *testing.T) {
	r := operator.NewRegistry()
	r.Register("CUSTOM_SORT", func(rows []operator.Row, config value.Value, resolve operator.Resolver) ([]operator.Row, error) {
		return rows, nil
	})
	_, err := r.Get("CUSTOM_SOTR")
	require.Error(t, err)
	var uoe *operator.UnknownOperatorError
	require.ErrorAs(t, err, &uoe)
	assert.Equal(t, "CUSTOM_SORT", uoe.Suggestion)
}

func TestCustomOperatorRegistersAndRuns(t *testing.T) {
	r := operator.NewRegistry()
	reverse := func(rows []operator.Row, config value.Value, resolve operator.Resolver) ([]operator.Row, error) {
		out := make([]operator.Row, len(rows))
		for i, row := range rows {
			out[len(rows)-1-i] = row
		}
		return out, nil
	}
	r.Register("REVERSE", reverse)
	assert.True(t, r.IsRegistered("REVERSE"))

	fn, err := r.Get("REVERSE")
	require.NoError(t, err)
	out, err := fn(operator.SeqRows(3), value.Null, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0}, []int{out[0].Index, out[1].Index, out[2].Index})
}
