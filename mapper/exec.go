// Package mapper implements the Mapping Executor of spec.md §4.7/§4.8: it
// runs a compiled template.Node against a set of named sources, resolving
// expression leaves, fanning wildcard blocks out into rows, narrowing
// those rows through operators, and re-assembling the result tree.
package mapper

import (
	"fmt"

	"github.com/mapexpr/mapexpr/access"
	"github.com/mapexpr/mapexpr/errctx"
	"github.com/mapexpr/mapexpr/expr"
	"github.com/mapexpr/mapexpr/filter"
	"github.com/mapexpr/mapexpr/operator"
	"github.com/mapexpr/mapexpr/path"
	"github.com/mapexpr/mapexpr/template"
	"github.com/mapexpr/mapexpr/value"
)

// run carries the read-only state of one Map()/MapMany() call: the
// sources being projected from, and the error context accumulating
// diagnostics per the active Policy.
type run struct {
	m       *Mapper
	sources map[string]value.Value
	ctx     *errctx.Context
}

func (m *Mapper) newRun(sources map[string]value.Value) *run {
	return &run{m: m, sources: sources, ctx: errctx.New(m.Options.Policy)}
}

func (r *run) exec(n template.Node) (value.Value, error) {
	switch node := n.(type) {
	case *template.Literal:
		return node.Value, nil
	case *template.ExpressionLeaf:
		return r.execLeaf(node)
	case *template.MapNode:
		return r.execMap(node)
	case *template.SeqNode:
		return r.execSeq(node)
	case *template.WildcardBlock:
		return r.execWildcardBlock(node)
	default:
		return value.Null, fmt.Errorf("mapper: unknown template node %T", n)
	}
}

func (r *run) execMap(n *template.MapNode) (value.Value, error) {
	b := value.Map()
	for _, k := range n.Keys {
		out, err := r.exec(n.Children[k])
		if err != nil {
			return value.Null, err
		}
		if r.m.Options.SkipNull && out.IsNull() {
			continue
		}
		b.Set(k, out)
	}
	return b.Build(), nil
}

func (r *run) execSeq(n *template.SeqNode) (value.Value, error) {
	elems := make([]value.Value, 0, len(n.Children))
	for _, c := range n.Children {
		out, err := r.exec(c)
		if err != nil {
			return value.Null, err
		}
		elems = append(elems, out)
	}
	return value.SeqFrom(elems), nil
}

func (r *run) execLeaf(n *template.ExpressionLeaf) (value.Value, error) {
	for _, h := range r.m.hooks.PreTransform {
		v, err := h(n.IR.Raw, value.Null)
		if err != nil {
			if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.HookFailure, Message: err.Error(), Path: n.IR.Raw}); rerr != nil {
				return value.Null, rerr
			}
		} else if !v.IsNull() {
			return v, nil
		}
	}

	out, err := r.resolveIR(n.IR)
	if err != nil {
		return value.Null, err
	}

	for _, h := range r.m.hooks.PostTransform {
		v, herr := h(n.IR.Raw, out)
		if herr != nil {
			if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.HookFailure, Message: herr.Error(), Path: n.IR.Raw}); rerr != nil {
				return value.Null, rerr
			}
			continue
		}
		out = v
	}
	return out, nil
}

// resolveIR resolves a single compiled expression against sources, running
// its filter pipeline and applying its "?? default" literal, per spec.md
// §4.4/§4.5.
func (r *run) resolveIR(ir *expr.IR) (value.Value, error) {
	raw, ok := r.resolvePathOK(ir.SourcePath)
	if !ok {
		if r.m.Options.Policy.ThrowOnUndefinedSource {
			if rerr := r.ctx.Report(&errctx.Error{
				Kind:    errctx.UndefinedSource,
				Message: "source path resolves to nothing",
				Path:    path.Emit(ir.SourcePath),
			}); rerr != nil {
				return value.Null, rerr
			}
		}
	}

	calls := make([]filter.Call, len(ir.Filters))
	for i, fc := range ir.Filters {
		calls[i] = filter.Call{Name: fc.Name, Args: fc.Args}
	}
	out, err := filter.Apply(r.m.Filters, raw, calls)
	if err != nil {
		if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.UnknownFilter, Message: err.Error(), Path: path.Emit(ir.SourcePath)}); rerr != nil {
			return value.Null, rerr
		}
		out = raw
	}

	if (value.IsAbsent(out) || out.IsNull()) && ir.Default != nil {
		return *ir.Default, nil
	}
	if value.IsAbsent(out) {
		return value.Null, nil
	}
	return out, nil
}

// resolvePathOK resolves p, whose first segment names a source, returning
// (_, false) whenever any segment of the full path fails to resolve —
// whether that's the source name itself being absent from sources, or a
// key/index further down the path missing within an otherwise-present
// source (spec.md §8 Scenario 5: a per-row missing field is just as much an
// UndefinedSource as a wholly-undefined source).
func (r *run) resolvePathOK(p path.Path) (value.Value, bool) {
	if len(p) == 0 {
		return value.Null, true
	}
	root, ok := r.sources[p[0].Key]
	if !ok {
		return value.Null, false
	}
	return access.GetOK(root, p[1:])
}

// resolveAt resolves p like resolvePathOK but with the dimension's
// Wildcard segment at wildcardIdx replaced by row's concrete position,
// collapsing that one fan-out level to a single element. When the
// resulting concrete path fails to resolve (e.g. this row's element has no
// such field), it reports an UndefinedSource diagnostic — one per row, per
// spec.md §8 Scenario 5 — rather than silently returning Null.
func (r *run) resolveAt(p path.Path, wildcardIdx int, row operator.Row) (value.Value, error) {
	fixed := make(path.Path, len(p))
	copy(fixed, p)
	if row.IsMapDim {
		fixed[wildcardIdx] = path.Segment{Kind: path.Key, Key: row.Key}
	} else {
		fixed[wildcardIdx] = path.Segment{Kind: path.Index, Idx: uint32(row.Index)}
	}
	v, ok := r.resolvePathOK(fixed)
	if !ok && r.m.Options.Policy.ThrowOnUndefinedSource {
		if rerr := r.ctx.Report(&errctx.Error{
			Kind:    errctx.UndefinedSource,
			Message: "source path resolves to nothing",
			Path:    path.Emit(fixed),
		}); rerr != nil {
			return value.Null, rerr
		}
	}
	return v, nil
}
