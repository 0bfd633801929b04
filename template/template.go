// Package template implements the Template Compiler of spec.md §4.6: it
// walks a template Value tree once and produces a Plan that the Mapping
// Executor can run repeatedly without re-parsing expressions or
// re-classifying map shapes on every call.
package template

import (
	"fmt"

	"github.com/mapexpr/mapexpr/expr"
	"github.com/mapexpr/mapexpr/operator"
	"github.com/mapexpr/mapexpr/value"
)

// Node is one compiled template element. The concrete types are Literal,
// ExpressionLeaf, MapNode, SeqNode and WildcardBlock.
type Node interface {
	isNode()
}

// Literal is a template leaf that is emitted unchanged: any scalar or
// container that is not a `{{ ... }}` expression string and not a
// wildcard-operator Map.
type Literal struct {
	Value value.Value
}

func (*Literal) isNode() {}

// ExpressionLeaf is a scalar string leaf matching expr.LooksLikeExpression,
// pre-parsed into an IR so the Mapping Executor only resolves and filters
// it at run time.
type ExpressionLeaf struct {
	IR *expr.IR
}

func (*ExpressionLeaf) isNode() {}

// MapNode is a plain object template: every key maps to its own compiled
// child, emitted in the same key order as the template (spec.md §4.6).
type MapNode struct {
	Keys     []string
	Children map[string]Node
}

func (*MapNode) isNode() {}

// SeqNode is a plain array template: each element compiled independently.
type SeqNode struct {
	Children []Node
}

func (*SeqNode) isNode() {}

// OperatorSpec is one operator attached to a WildcardBlock, in the literal
// textual order it appeared in the template (spec.md §4.7/§4.8 phase
// ordering: WHERE, then user operators in order of first appearance, then
// ORDER BY, OFFSET, LIMIT — the Mapping Executor, not the compiler, imposes
// that canonical order; OperatorSpecs here just preserve source order for
// diagnostics and for resolving "first appearance" among several
// same-named custom operators).
type OperatorSpec struct {
	Name   string
	Config value.Value
}

// WildcardBlock is a Map template keyed by "*" (the row body) plus one or
// more reserved operator keys (spec.md §4.6/§4.7): it fans out over
// whichever source wildcard Body's expressions reference, narrows the
// resulting row bag through Operators, and re-emits one element per
// surviving row.
type WildcardBlock struct {
	Operators []OperatorSpec
	Body      Node
}

func (*WildcardBlock) isNode() {}

// Compiler turns a template Value into a Node tree. ops supplies the set
// of custom operator names the compiler must recognise as reserved map
// keys, in addition to operator.BuiltinNames.
type Compiler struct {
	Mode expr.Mode
	Ops  *operator.Registry
}

func NewCompiler(mode expr.Mode, ops *operator.Registry) *Compiler {
	return &Compiler{Mode: mode, Ops: ops}
}

// Compile recursively classifies and compiles tmpl into a Node tree.
func (c *Compiler) Compile(tmpl value.Value) (Node, error) {
	switch tmpl.Kind() {
	case value.KindString:
		s, _ := tmpl.Str()
		if expr.LooksLikeExpression(s) {
			ir, err := expr.Parse(s, c.Mode)
			if err != nil {
				return nil, err
			}
			return &ExpressionLeaf{IR: ir}, nil
		}
		return &Literal{Value: tmpl}, nil
	case value.KindSeq:
		elems, _ := tmpl.SeqValues()
		children := make([]Node, len(elems))
		for i, e := range elems {
			child, err := c.Compile(e)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		return &SeqNode{Children: children}, nil
	case value.KindMap:
		return c.compileMap(tmpl)
	default:
		return &Literal{Value: tmpl}, nil
	}
}

func (c *Compiler) compileMap(tmpl value.Value) (Node, error) {
	keys, _ := tmpl.Keys()
	isOperatorKey := func(k string) bool {
		if operator.BuiltinNames[k] {
			return true
		}
		return c.Ops != nil && c.Ops.IsRegistered(k)
	}

	hasBody := false
	allOthersOperators := true
	for _, k := range keys {
		if k == "*" {
			hasBody = true
			continue
		}
		if !isOperatorKey(k) {
			allOthersOperators = false
		}
	}

	if hasBody && allOthersOperators {
		bodyVal, _ := tmpl.Get("*")
		body, err := c.Compile(bodyVal)
		if err != nil {
			return nil, err
		}
		specs := make([]OperatorSpec, 0, len(keys)-1)
		for _, k := range keys {
			if k == "*" {
				continue
			}
			cfg, _ := tmpl.Get(k)
			specs = append(specs, OperatorSpec{Name: k, Config: cfg})
		}
		return &WildcardBlock{Operators: specs, Body: body}, nil
	}

	children := make(map[string]Node, len(keys))
	for _, k := range keys {
		v, _ := tmpl.Get(k)
		child, err := c.Compile(v)
		if err != nil {
			return nil, fmt.Errorf("template: key %q: %w", k, err)
		}
		children[k] = child
	}
	return &MapNode{Keys: keys, Children: children}, nil
}
