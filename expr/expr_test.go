package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapexpr/mapexpr/expr"
	"github.com/mapexpr/mapexpr/path"
)

func TestParseSimplePath(t *testing.T) {
	ir, err := expr.Parse("{{ user.firstName }}", expr.Fast)
	require.NoError(t, err)
	assert.Equal(t, "user.firstName", path.Emit(ir.SourcePath))
	assert.Empty(t, ir.Filters)
	assert.Nil(t, ir.Default)
}

func TestParseFilterPipeline(t *testing.T) {
	ir, err := expr.Parse(`{{ user.email | trim | lower }}`, expr.Fast)
	require.NoError(t, err)
	require.Len(t, ir.Filters, 2)
	assert.Equal(t, "trim", ir.Filters[0].Name)
	assert.Equal(t, "lower", ir.Filters[1].Name)
}

func TestParseFilterWithArgs(t *testing.T) {
	ir, err := expr.Parse(`{{ user.score | between:0:100 }}`, expr.Fast)
	require.NoError(t, err)
	require.Len(t, ir.Filters, 1)
	assert.Equal(t, "between", ir.Filters[0].Name)
	require.Len(t, ir.Filters[0].Args, 2)
	lo, _ := ir.Filters[0].Args[0].Int()
	hi, _ := ir.Filters[0].Args[1].Int()
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(100), hi)
}

func TestParseDefault(t *testing.T) {
	ir, err := expr.Parse(`{{ user.nickname ?? "anon" }}`, expr.Fast)
	require.NoError(t, err)
	require.NotNil(t, ir.Default)
	s, ok := ir.Default.Str()
	require.True(t, ok)
	assert.Equal(t, "anon", s)
}

func TestParseStringArg(t *testing.T) {
	ir, err := expr.Parse(`{{ items.* | join:", " }}`, expr.Fast)
	require.NoError(t, err)
	require.Len(t, ir.Filters, 1)
	require.Len(t, ir.Filters[0].Args, 1)
	s, _ := ir.Filters[0].Args[0].Str()
	assert.Equal(t, ", ", s)
}

func TestParseUnterminatedIsError(t *testing.T) {
	_, err := expr.Parse(`{{ user.name`, expr.Fast)
	require.Error(t, err)
	var uee *expr.UnterminatedExpressionError
	require.ErrorAs(t, err, &uee)
}

func TestFastAndSafeAgreeWithoutEscapes(t *testing.T) {
	raw := `{{ user.email | default:"n/a" }}`
	fast, err := expr.Parse(raw, expr.Fast)
	require.NoError(t, err)
	safe, err := expr.Parse(raw, expr.Safe)
	require.NoError(t, err)
	fs, _ := fast.Filters[0].Args[0].Str()
	ss, _ := safe.Filters[0].Args[0].Str()
	assert.Equal(t, fs, ss)
}

func TestFastAndSafeDifferOnEscapes(t *testing.T) {
	raw := `{{ user.email | default:"line1\nline2" }}`
	fast, err := expr.Parse(raw, expr.Fast)
	require.NoError(t, err)
	safe, err := expr.Parse(raw, expr.Safe)
	require.NoError(t, err)
	fs, _ := fast.Filters[0].Args[0].Str()
	ss, _ := safe.Filters[0].Args[0].Str()
	assert.NotEqual(t, fs, ss)
	assert.Contains(t, ss, "\n")
}

func TestLooksLikeExpression(t *testing.T) {
	assert.True(t, expr.LooksLikeExpression("  {{ a.b }}  "))
	assert.False(t, expr.LooksLikeExpression("plain text"))
	assert.False(t, expr.LooksLikeExpression("prefix {{ a.b }}"))
}

func TestCacheReturnsSameIRInstanceOnHit(t *testing.T) {
	c := expr.NewCache(10, expr.Fast)
	a, err := c.Get("{{ a.b }}")
	require.NoError(t, err)
	b, err := c.Get("{{ a.b }}")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}
