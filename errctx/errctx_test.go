package errctx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapexpr/mapexpr/errctx"
)

func TestFailFastReturnsFirstError(t *testing.T) {
	c := errctx.New(errctx.Policy{ExceptionsEnabled: true})
	err := c.Report(&errctx.Error{Kind: errctx.UndefinedSource, Message: "missing"})
	require.Error(t, err)
	assert.False(t, c.HasErrors())
}

func TestCollectModeAccumulates(t *testing.T) {
	c := errctx.New(errctx.Policy{ExceptionsEnabled: true, CollectExceptions: true})
	err1 := c.Report(&errctx.Error{Kind: errctx.UndefinedSource, Path: "users.0.email"})
	err2 := c.Report(&errctx.Error{Kind: errctx.UndefinedSource, Path: "users.1.email"})
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.True(t, c.HasErrors())
	assert.Len(t, c.GetErrors(), 2)
}

func TestSilentModeDropsErrors(t *testing.T) {
	c := errctx.New(errctx.Policy{ExceptionsEnabled: false})
	err := c.Report(&errctx.Error{Kind: errctx.UndefinedSource})
	assert.NoError(t, err)
	assert.False(t, c.HasErrors())
}

func TestResetClearsAccumulatorButKeepsPolicy(t *testing.T) {
	c := errctx.New(errctx.Policy{ExceptionsEnabled: true, CollectExceptions: true})
	c.Report(&errctx.Error{Kind: errctx.BadLiteral})
	c.Reset()
	assert.False(t, c.HasErrors())
	assert.True(t, c.Policy.CollectExceptions)
}

func TestErrorDeterminism(t *testing.T) {
	run := func() []*errctx.Error {
		c := errctx.New(errctx.Policy{ExceptionsEnabled: true, CollectExceptions: true})
		c.Report(&errctx.Error{Kind: errctx.UndefinedSource, Path: "a"})
		c.Report(&errctx.Error{Kind: errctx.UndefinedSource, Path: "b"})
		return c.GetErrors()
	}
	a := run()
	b := run()
	require.Len(t, a, len(b))
	for i := range a {
		assert.Equal(t, a[i].Kind, b[i].Kind)
		assert.Equal(t, a[i].Path, b[i].Path)
	}
}

func TestDefaultFacadeIsolatesTokens(t *testing.T) {
	defer errctx.ClearFacade("tok-a")
	defer errctx.ClearFacade("tok-b")

	errctx.SetPolicy("tok-a", errctx.Policy{ExceptionsEnabled: true, CollectExceptions: true})
	errctx.Default("tok-a").Report(&errctx.Error{Kind: errctx.BadLiteral})

	assert.True(t, errctx.Default("tok-a").HasErrors())
	assert.False(t, errctx.Default("tok-b").HasErrors())
}
