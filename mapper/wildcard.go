package mapper

import (
	"fmt"

	"github.com/mapexpr/mapexpr/errctx"
	"github.com/mapexpr/mapexpr/filter"
	"github.com/mapexpr/mapexpr/operator"
	"github.com/mapexpr/mapexpr/path"
	"github.com/mapexpr/mapexpr/template"
	"github.com/mapexpr/mapexpr/value"
)

// execWildcardBlock fans wb's body out over the dimension its expressions
// reference, narrows the resulting row bag through each operator in the
// canonical phase order of spec.md §4.7 (WHERE, then user operators in
// textual order of first appearance, then ORDER BY, OFFSET, LIMIT), and
// re-assembles one output element per surviving row.
func (r *run) execWildcardBlock(wb *template.WildcardBlock) (value.Value, error) {
	fanPath, wcIdx, ok := r.findFanoutDimension(wb)
	if !ok {
		return value.SeqFrom(nil), nil
	}

	dim, dimOK := r.resolvePathOK(fanPath[:wcIdx])
	if !dimOK {
		if r.m.Options.Policy.ThrowOnUndefinedSource {
			if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.UndefinedSource, Message: "wildcard dimension source undefined", Path: path.Emit(fanPath)}); rerr != nil {
				return value.Null, rerr
			}
		}
		return value.SeqFrom(nil), nil
	}

	var rows []operator.Row
	isMapDim := dim.Kind() == value.KindMap
	switch dim.Kind() {
	case value.KindSeq:
		rows = operator.SeqRows(dim.Len())
	case value.KindMap:
		keys, _ := dim.Keys()
		rows = operator.MapRows(keys)
	default:
		rows = nil
	}

	if r.m.Options.MaxFanOut > 0 && len(rows) > r.m.Options.MaxFanOut {
		if rerr := r.ctx.Report(&errctx.Error{
			Kind:    errctx.FanOutExceeded,
			Message: fmt.Sprintf("wildcard fan-out produced %d rows, exceeding the configured limit of %d", len(rows), r.m.Options.MaxFanOut),
			Path:    path.Emit(fanPath),
		}); rerr != nil {
			return value.Null, rerr
		}
		rows = rows[:r.m.Options.MaxFanOut]
	}

	resolve := r.rowResolver(fanPath, wcIdx)

	// Canonical phase order (spec.md §4.7): WHERE, then user operators in
	// their textual order of first appearance, then ORDER BY, OFFSET,
	// LIMIT — independent of how the template author ordered these keys.
	var where, orderBy, offset, limit *template.OperatorSpec
	var custom []template.OperatorSpec
	for i, spec := range wb.Operators {
		switch spec.Name {
		case "WHERE":
			where = &wb.Operators[i]
		case "ORDER BY":
			orderBy = &wb.Operators[i]
		case "OFFSET":
			offset = &wb.Operators[i]
		case "LIMIT":
			limit = &wb.Operators[i]
		default:
			custom = append(custom, spec)
		}
	}

	var err error
	if where != nil {
		if rows, err = operator.ApplyWhere(rows, where.Config, resolve); err != nil {
			return value.Null, err
		}
	}
	for _, spec := range custom {
		fn, gerr := r.m.Operators.Get(spec.Name)
		if gerr != nil {
			if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.UnknownOperator, Message: gerr.Error(), Path: spec.Name}); rerr != nil {
				return value.Null, rerr
			}
			continue
		}
		if rows, err = fn(rows, spec.Config, resolve); err != nil {
			return value.Null, err
		}
	}
	if orderBy != nil {
		if rows, err = operator.ApplyOrderBy(rows, orderBy.Config, resolve); err != nil {
			return value.Null, err
		}
	}
	if offset != nil {
		if rows, err = operator.ApplyOffset(rows, offset.Config); err != nil {
			return value.Null, err
		}
	}
	if limit != nil {
		if rows, err = operator.ApplyLimit(rows, limit.Config); err != nil {
			return value.Null, err
		}
	}

	out := make([]value.Value, len(rows))
	keys := make([]string, len(rows))
	for i, row := range rows {
		v, err := r.execRow(wb.Body, fanPath, wcIdx, row)
		if err != nil {
			return value.Null, err
		}
		out[i] = v
		keys[i] = row.Key
	}

	if isMapDim && !r.m.Options.ReindexWildcard {
		m := make(map[string]value.Value, len(keys))
		for i, k := range keys {
			m[k] = out[i]
		}
		return value.MapFromKeys(keys, m), nil
	}
	return value.SeqFrom(out), nil
}

// execRow executes n with fanPath's wcIdx-th segment bound to row, so any
// ExpressionLeaf sharing that same (source, wildcard-position) dimension
// resolves against this row instead of fanning out further.
func (r *run) execRow(n template.Node, fanPath path.Path, wcIdx int, row operator.Row) (value.Value, error) {
	switch node := n.(type) {
	case *template.Literal:
		return node.Value, nil
	case *template.ExpressionLeaf:
		if sharesDimension(node.IR.SourcePath, fanPath, wcIdx) {
			out, err := r.resolveAt(node.IR.SourcePath, wcIdx, row)
			if err != nil {
				return value.Null, err
			}
			return r.applyLeafPipeline(node, out)
		}
		return r.execLeaf(node)
	case *template.MapNode:
		b := value.Map()
		for _, k := range node.Keys {
			v, err := r.execRow(node.Children[k], fanPath, wcIdx, row)
			if err != nil {
				return value.Null, err
			}
			if r.m.Options.SkipNull && v.IsNull() {
				continue
			}
			b.Set(k, v)
		}
		return b.Build(), nil
	case *template.SeqNode:
		elems := make([]value.Value, 0, len(node.Children))
		for _, c := range node.Children {
			v, err := r.execRow(c, fanPath, wcIdx, row)
			if err != nil {
				return value.Null, err
			}
			elems = append(elems, v)
		}
		return value.SeqFrom(elems), nil
	case *template.WildcardBlock:
		return r.execWildcardBlock(node)
	default:
		return value.Null, fmt.Errorf("mapper: unknown template node %T", n)
	}
}

func (r *run) applyLeafPipeline(n *template.ExpressionLeaf, raw value.Value) (value.Value, error) {
	calls := make([]filter.Call, len(n.IR.Filters))
	for i, fc := range n.IR.Filters {
		calls[i] = filter.Call{Name: fc.Name, Args: fc.Args}
	}
	out, err := filter.Apply(r.m.Filters, raw, calls)
	if err != nil {
		if rerr := r.ctx.Report(&errctx.Error{Kind: errctx.UnknownFilter, Message: err.Error(), Path: n.IR.Raw}); rerr != nil {
			return value.Null, rerr
		}
		out = raw
	}
	if (value.IsAbsent(out) || out.IsNull()) && n.IR.Default != nil {
		return *n.IR.Default, nil
	}
	if value.IsAbsent(out) {
		return value.Null, nil
	}
	return out, nil
}

// sharesDimension reports whether p's first Wildcard segment sits at the
// same index, under the same source name, as fanPath's.
func sharesDimension(p, fanPath path.Path, wcIdx int) bool {
	if len(p) <= wcIdx || len(fanPath) == 0 || len(p) == 0 {
		return false
	}
	if p[0].Key != fanPath[0].Key {
		return false
	}
	if p[wcIdx].Kind != path.Wildcard {
		return false
	}
	for i := 0; i < wcIdx; i++ {
		if p[i] != fanPath[i] {
			return false
		}
	}
	return true
}

// rowResolver builds the operator.Resolver used by WHERE/ORDER BY/custom
// operators: given a row and a `{{ ... }}` expression string, it parses
// (via the Mapper's expression cache) and resolves that expression with
// fanPath's wildcard bound to row.
func (r *run) rowResolver(fanPath path.Path, wcIdx int) operator.Resolver {
	return func(row operator.Row, exprSrc string) (value.Value, error) {
		ir, err := r.m.ExprCache.Get(exprSrc)
		if err != nil {
			return value.Null, err
		}
		if !sharesDimension(ir.SourcePath, fanPath, wcIdx) {
			return r.resolveIR(ir)
		}
		raw, err := r.resolveAt(ir.SourcePath, wcIdx, row)
		if err != nil {
			return value.Null, err
		}
		return r.applyLeafPipeline(&template.ExpressionLeaf{IR: ir}, raw)
	}
}

// findFanoutDimension locates the path and Wildcard-segment index that
// determines wb's row count: the first wildcard-bearing expression found
// in its body (depth-first), falling back to the first wildcard-bearing
// expression among its operator configs.
func (r *run) findFanoutDimension(wb *template.WildcardBlock) (path.Path, int, bool) {
	if p, idx, ok := findWildcardInNode(wb.Body); ok {
		return p, idx, true
	}
	for _, spec := range wb.Operators {
		if p, idx, ok := findWildcardInConfig(spec.Config, r.m); ok {
			return p, idx, true
		}
	}
	return nil, 0, false
}

func findWildcardInNode(n template.Node) (path.Path, int, bool) {
	switch node := n.(type) {
	case *template.ExpressionLeaf:
		for i, seg := range node.IR.SourcePath {
			if seg.Kind == path.Wildcard {
				return node.IR.SourcePath, i, true
			}
		}
		return nil, 0, false
	case *template.MapNode:
		for _, k := range node.Keys {
			if p, idx, ok := findWildcardInNode(node.Children[k]); ok {
				return p, idx, ok
			}
		}
		return nil, 0, false
	case *template.SeqNode:
		for _, c := range node.Children {
			if p, idx, ok := findWildcardInNode(c); ok {
				return p, idx, ok
			}
		}
		return nil, 0, false
	default:
		return nil, 0, false
	}
}

func findWildcardInConfig(cfg value.Value, m *Mapper) (path.Path, int, bool) {
	if cfg.Kind() != value.KindMap {
		return nil, 0, false
	}
	keys, _ := cfg.Keys()
	for _, k := range keys {
		ir, err := m.ExprCache.Get(k)
		if err != nil {
			continue
		}
		for i, seg := range ir.SourcePath {
			if seg.Kind == path.Wildcard {
				return ir.SourcePath, i, true
			}
		}
	}
	return nil, 0, false
}
