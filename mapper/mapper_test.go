package mapper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapexpr/mapexpr/mapper"
	"github.com/mapexpr/mapexpr/operator"
	"github.com/mapexpr/mapexpr/value"
)

func TestMapSimpleExpressionLeaf(t *testing.T) {
	m := mapper.NewMapper(mapper.DefaultOptions())
	sources := map[string]value.Value{
		"user": value.Map().Set("name", value.String("alice")).Build(),
	}
	tmpl := value.Map().Set("greeting", value.String("{{ user.name | ucfirst }}")).Build()

	out, err := m.Map(sources, tmpl)
	require.NoError(t, err)
	greeting, ok := out.Get("greeting")
	require.True(t, ok)
	s, _ := greeting.Str()
	assert.Equal(t, "Alice", s)
}

func TestMapSkipNullDropsKey(t *testing.T) {
	opts := mapper.DefaultOptions()
	opts.SkipNull = true
	m := mapper.NewMapper(opts)
	sources := map[string]value.Value{"user": value.Map().Build()}
	tmpl := value.Map().
		Set("name", value.String("{{ user.name }}")).
		Set("kept", value.String("yes")).
		Build()

	out, err := m.Map(sources, tmpl)
	require.NoError(t, err)
	_, ok := out.Get("name")
	assert.False(t, ok)
	kept, _ := out.Get("kept")
	s, _ := kept.Str()
	assert.Equal(t, "yes", s)
}

func buildElectronicsSources() map[string]value.Value {
	mk := func(name, category string, price int64) value.Value {
		return value.Map().
			Set("name", value.String(name)).
			Set("category", value.String(category)).
			Set("price", value.Int(price)).
			Build()
	}
	products := value.Seq(
		mk("Phone", "Electronics", 200),
		mk("Novel", "Books", 15),
		mk("Laptop", "Electronics", 500),
		mk("Tablet", "Electronics", 50),
		mk("Toy Car", "Toys", 20),
	)
	return map[string]value.Value{"products": products}
}

// TestScenarioWildcardWhereOrderByOffsetLimit reproduces spec.md §8
// scenario 3: WHERE category == Electronics, ORDER BY price DESC,
// OFFSET 1, LIMIT 2.
func TestScenarioWildcardWhereOrderByOffsetLimit(t *testing.T) {
	m := mapper.NewMapper(mapper.DefaultOptions())
	sources := buildElectronicsSources()

	row := value.Map().
		Set("n", value.String("{{ products.*.name }}")).
		Set("p", value.String("{{ products.*.price }}")).
		Build()
	tmpl := value.Map().
		Set("items", value.Map().
			Set("*", row).
			Set("WHERE", value.Map().Set("{{ products.*.category }}", value.String("Electronics")).Build()).
			Set("ORDER BY", value.Map().Set("{{ products.*.price }}", value.String("DESC")).Build()).
			Set("OFFSET", value.Int(1)).
			Set("LIMIT", value.Int(2)).
			Build()).
		Build()

	out, err := m.Map(sources, tmpl)
	require.NoError(t, err)
	items, ok := out.Get("items")
	require.True(t, ok)
	elems, ok := items.SeqValues()
	require.True(t, ok)
	require.Len(t, elems, 2)

	n0, _ := elems[0].Get("n")
	s0, _ := n0.Str()
	assert.Equal(t, "Phone", s0) // 500 (Laptop) is offset away; next is 200 (Phone), then 50 (Tablet)

	n1, _ := elems[1].Get("n")
	s1, _ := n1.Str()
	assert.Equal(t, "Tablet", s1)
}

// TestScenarioStrictSourceErrorCollection reproduces spec.md §8 scenario
// 5 literally: template `{contacts:{"*":{name:"{{users.*.name}}",
// email:"{{users.*.email}}"}}}` fanned out over three users, two of which
// have no email field. With collect=true, throw_on_undefined_source=true,
// this must accumulate exactly two UndefinedSource errors — one per
// missing email — while every row still resolves its name and the whole
// call succeeds (no top-level error).
func TestScenarioStrictSourceErrorCollection(t *testing.T) {
	opts := mapper.DefaultOptions()
	opts.Policy.ExceptionsEnabled = true
	opts.Policy.CollectExceptions = true
	opts.Policy.ThrowOnUndefinedSource = true
	m := mapper.NewMapper(opts)

	sources := map[string]value.Value{
		"users": value.Seq(
			value.Map().Set("name", value.String("John")).Set("email", value.String("john@example.com")).Build(),
			value.Map().Set("name", value.String("Jane")).Build(),
			value.Map().Set("name", value.String("Jim")).Build(),
		),
	}
	tmpl := value.Map().
		Set("contacts", value.Map().
			Set("*", value.Map().
				Set("name", value.String("{{ users.*.name }}")).
				Set("email", value.String("{{ users.*.email }}")).
				Build()).
			Build()).
		Build()

	res, err := m.MapCollecting(sources, tmpl)
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	for _, e := range res.Errors {
		assert.Equal(t, "UndefinedSource", e.Kind.String())
	}

	contacts, ok := res.Value.Get("contacts")
	require.True(t, ok)
	elems, ok := contacts.SeqValues()
	require.True(t, ok)
	require.Len(t, elems, 3)

	n0, _ := elems[0].Get("name")
	s0, _ := n0.Str()
	assert.Equal(t, "John", s0)
	e0, _ := elems[0].Get("email")
	es0, _ := e0.Str()
	assert.Equal(t, "john@example.com", es0)

	n1, _ := elems[1].Get("name")
	s1, _ := n1.Str()
	assert.Equal(t, "Jane", s1)
	e1, _ := elems[1].Get("email")
	assert.True(t, e1.IsNull())

	n2, _ := elems[2].Get("name")
	s2, _ := n2.Str()
	assert.Equal(t, "Jim", s2)
	e2, _ := elems[2].Get("email")
	assert.True(t, e2.IsNull())
}

func TestQueryFluentBuilder(t *testing.T) {
	m := mapper.NewMapper(mapper.DefaultOptions())
	out, err := m.Query().
		Source("user", value.Map().Set("name", value.String("carol")).Build()).
		Template(value.Map().Set("name", value.String("{{ user.name | ucfirst }}")).Build()).
		Map()
	require.NoError(t, err)
	name, _ := out.Get("name")
	s, _ := name.Str()
	assert.Equal(t, "Carol", s)
}

func TestMapManyRunsEveryTemplate(t *testing.T) {
	m := mapper.NewMapper(mapper.DefaultOptions())
	sources := map[string]value.Value{"user": value.Map().Set("name", value.String("dana")).Build()}
	templates := []value.Value{
		value.Map().Set("a", value.String("{{ user.name }}")).Build(),
		value.Map().Set("b", value.String("{{ user.name | upper }}")).Build(),
	}
	out, err := m.MapMany(sources, templates)
	require.NoError(t, err)
	require.Len(t, out, 2)
	a, _ := out[0].Get("a")
	as, _ := a.Str()
	assert.Equal(t, "dana", as)
	b, _ := out[1].Get("b")
	bs, _ := b.Str()
	assert.Equal(t, "DANA", bs)
}

func TestCustomOperatorAppliesWithinWildcardBlock(t *testing.T) {
	m := mapper.NewMapper(mapper.DefaultOptions())
	m.RegisterOperator("TAKE_EVEN", func(rows []operator.Row, config value.Value, resolve operator.Resolver) ([]operator.Row, error) {
		out := make([]operator.Row, 0, len(rows))
		for _, row := range rows {
			if row.Index%2 == 0 {
				out = append(out, row)
			}
		}
		return out, nil
	})

	sources := map[string]value.Value{
		"items": value.Seq(value.Int(10), value.Int(20), value.Int(30), value.Int(40)),
	}
	tmpl := value.Map().
		Set("kept", value.Map().
			Set("*", value.String("{{ items.* }}")).
			Set("TAKE_EVEN", value.Null).
			Build()).
		Build()

	out, err := m.Map(sources, tmpl)
	require.NoError(t, err)
	kept, _ := out.Get("kept")
	elems, _ := kept.SeqValues()
	require.Len(t, elems, 2)
	v0, _ := elems[0].Int()
	v1, _ := elems[1].Int()
	assert.Equal(t, int64(10), v0)
	assert.Equal(t, int64(30), v1)
}
