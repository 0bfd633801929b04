package mapper

import (
	"github.com/mapexpr/mapexpr/errctx"
	"github.com/mapexpr/mapexpr/expr"
)

// Options configures one Mapper instance, per SPEC_FULL.md §3. All fields
// have zero-value-safe defaults; for MaxFanOut, zero means "unlimited" —
// see execWildcardBlock.
type Options struct {
	Mode expr.Mode

	// SkipNull drops a Map template key from its output entirely when the
	// resolved value is Null, instead of emitting `key: null` (spec.md
	// §4.6 skip-null policy). Applied key by key, never to a whole
	// subtree: a sibling key that resolves non-Null is unaffected.
	SkipNull bool

	// ReindexWildcard emits a Map-dimension WildcardBlock's surviving rows
	// as a Seq numbered 0..n-1 instead of a Map keyed by the original
	// source keys (SPEC_FULL.md §3). A Seq-dimension block always emits its
	// surviving rows as a dense Seq numbered 0..n-1, whatever this flag
	// says.
	ReindexWildcard bool

	Policy errctx.Policy

	// MaxFanOut caps how many rows a single WildcardBlock may produce
	// before its initial (pre-operator) fan-out, reported as a
	// FanOutExceeded error through the Context (SPEC_FULL.md §3). Zero
	// means unlimited.
	MaxFanOut int

	FilterCacheSize   int
	OperatorCacheSize int
	TemplateCacheSize int
	ExprCacheSize     int
}

// DefaultOptions matches errctx.DefaultPolicy() and expr.Fast, with
// unlimited fan-out and the built-in cache sizes of each layer.
func DefaultOptions() Options {
	return Options{
		Mode:              expr.Fast,
		Policy:            errctx.DefaultPolicy(),
		FilterCacheSize:   0,
		TemplateCacheSize: 0,
		ExprCacheSize:     expr.DefaultCacheSize,
	}
}
