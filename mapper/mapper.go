package mapper

import (
	"log/slog"
	"os"

	"github.com/mapexpr/mapexpr/errctx"
	"github.com/mapexpr/mapexpr/expr"
	"github.com/mapexpr/mapexpr/filter"
	"github.com/mapexpr/mapexpr/operator"
	"github.com/mapexpr/mapexpr/template"
	"github.com/mapexpr/mapexpr/value"
)

// newDefaultLogger builds the Mapper's default diagnostic logger: a plain
// text handler on stderr with the timestamp and level attributes stripped,
// so two calls with identical inputs produce identical log output. Verbose
// per-call tracing is enabled by setting MAPEXPR_DEBUG.
func newDefaultLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("MAPEXPR_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// GlobalHook runs once per Map()/MapMany() call, before (BeforeAll) or
// after (AfterAll) the template is executed; it may inspect sources but
// not the (not-yet-built, or already-emitted) result.
type GlobalHook func(sources map[string]value.Value) error

// LeafHook runs once per expression leaf, receiving the leaf's raw
// `{{ ... }}` source as leafPath. PreTransform hooks run before the leaf's
// source path/filter pipeline resolves; if a PreTransform hook returns a
// non-Null Value, that value is used as the leaf's result and resolution
// is skipped entirely. PostTransform hooks run after the pipeline resolves
// and may replace the result. Leaves inside a WildcardBlock that resolve
// against the block's current row do not run LeafHooks.
type LeafHook func(leafPath string, in value.Value) (value.Value, error)

// Hooks holds every registered hook; each list is invoked in the order its
// hooks were registered.
type Hooks struct {
	BeforeAll     []GlobalHook
	PreTransform  []LeafHook
	PostTransform []LeafHook
	AfterAll      []GlobalHook
}

// Mapper is the Mapping Executor entry point: one Mapper owns its own
// Filter Registry, Wildcard Operator Registry, Template Compiler cache and
// Expression cache, so concurrent Mappers never share mutable state
// (spec.md §5).
type Mapper struct {
	Filters   *filter.Registry
	Operators *operator.Registry
	Templates *template.CachingCompiler
	ExprCache *expr.Cache
	Logger    *slog.Logger

	Options Options
	hooks   Hooks
}

// NewMapper builds a Mapper with the built-in filters registered and
// empty operator/hook registries, per opts.
func NewMapper(opts Options) *Mapper {
	if opts.Mode != expr.Fast && opts.Mode != expr.Safe {
		opts.Mode = expr.Fast
	}
	ops := operator.NewRegistry()
	return &Mapper{
		Filters:   filter.NewDefaultRegistry(),
		Operators: ops,
		Templates: template.NewCachingCompiler(opts.Mode, ops, opts.TemplateCacheSize),
		ExprCache: expr.NewCache(cacheSizeOr(opts.ExprCacheSize, expr.DefaultCacheSize), opts.Mode),
		Logger:    newDefaultLogger(),
		Options:   opts,
	}
}

// SetLogger overrides the Mapper's diagnostic logger.
func (m *Mapper) SetLogger(l *slog.Logger) { m.Logger = l }

func cacheSizeOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// RegisterOperator installs a custom Wildcard Operator under name,
// available to any template compiled afterwards.
func (m *Mapper) RegisterOperator(name string, fn operator.Func) {
	m.Operators.Register(name, fn)
}

// RegisterFilter installs a custom filter, overriding a built-in of the
// same name if any.
func (m *Mapper) RegisterFilter(name string, fn filter.Func) {
	m.Filters.Register(name, fn)
}

func (m *Mapper) OnBeforeAll(h GlobalHook)   { m.hooks.BeforeAll = append(m.hooks.BeforeAll, h) }
func (m *Mapper) OnPreTransform(h LeafHook)  { m.hooks.PreTransform = append(m.hooks.PreTransform, h) }
func (m *Mapper) OnPostTransform(h LeafHook) { m.hooks.PostTransform = append(m.hooks.PostTransform, h) }
func (m *Mapper) OnAfterAll(h GlobalHook)    { m.hooks.AfterAll = append(m.hooks.AfterAll, h) }

// Result bundles the output tree with every error the call's Context
// accumulated when Policy.CollectExceptions is set.
type Result struct {
	Value  value.Value
	Errors []*errctx.Error
}

// Map compiles tmpl (served from cache on repeat calls) and executes it
// against sources, returning the assembled output tree.
func (m *Mapper) Map(sources map[string]value.Value, tmpl value.Value) (value.Value, error) {
	res, err := m.MapCollecting(sources, tmpl)
	if err != nil {
		return value.Null, err
	}
	return res.Value, nil
}

// MapCollecting is Map but additionally returns every accumulated
// diagnostic (non-empty only when Policy.CollectExceptions is set).
func (m *Mapper) MapCollecting(sources map[string]value.Value, tmpl value.Value) (Result, error) {
	plan, err := m.Templates.Compile(tmpl)
	if err != nil {
		m.Logger.Error("template compile failed", "error", err)
		return Result{}, err
	}

	r := m.newRun(sources)
	m.Logger.Debug("map started", "sources", len(sources))

	for _, h := range m.hooks.BeforeAll {
		if err := h(sources); err != nil {
			if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.HookFailure, Message: err.Error()}); rerr != nil {
				return Result{}, rerr
			}
		}
	}

	out, err := r.exec(plan)
	if err != nil {
		m.Logger.Error("map failed", "error", err)
		return Result{}, err
	}

	for _, h := range m.hooks.AfterAll {
		if err := h(sources); err != nil {
			if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.HookFailure, Message: err.Error()}); rerr != nil {
				return Result{}, rerr
			}
		}
	}

	errs := r.ctx.GetErrors()
	if len(errs) > 0 {
		m.Logger.Warn("map completed with collected errors", "count", len(errs))
	} else {
		m.Logger.Debug("map completed")
	}

	return Result{Value: out, Errors: errs}, nil
}

// MapMany executes every template in templates against the same sources,
// returning one output tree per template in order (spec.md §4.7's
// `Mapper.map_many`).
func (m *Mapper) MapMany(sources map[string]value.Value, templates []value.Value) ([]value.Value, error) {
	out := make([]value.Value, len(templates))
	for i, tmpl := range templates {
		v, err := m.Map(sources, tmpl)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
