package visitor

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/scope"
)

type clauseKind int

const (
	filterClause clauseKind = iota
	selectClause
	orderClause
	groupClause
)

func (k clauseKind) String() string {
	switch k {
	case filterClause:
		return "filter"
	case selectClause:
		return "select"
	case orderClause:
		return "order"
	default:
		return "group"
	}
}

// result is one compiled entry. dir is set only by order nodes and the
// order shorthand.
type result struct {
	node    queryir.Node
	dir     queryir.Direction
	ordered bool
}

// pass is one compile of one tree for one clause kind.
type pass struct {
	c    *Compiler
	kind clauseKind
}

func (p *pass) fail(node any, reason string) error {
	return &TreeError{Clause: p.kind.String(), Node: node, Reason: reason}
}

// CanAccept reports whether v is an expression node the visitor compiles,
// as opposed to plain data.
func CanAccept(v any) bool {
	switch v.(type) {
	case nodes.Stub, *nodes.KeyPath, *nodes.Predicate, *nodes.Function, *nodes.Operation,
		*nodes.Join, *nodes.Order, *nodes.And, *nodes.Or, *nodes.Not, *nodes.SQL:
		return true
	default:
		return false
	}
}

// visit compiles any tree position. Results are always flat.
func (p *pass) visit(v any, ctx *scope.Context) ([]result, error) {
	if entries, ok := mapEntries(v); ok {
		return p.visitMap(entries, ctx)
	}
	if seq, ok := sequence(v); ok {
		return p.visitSeq(seq, ctx)
	}
	if CanAccept(v) {
		return p.visitNode(v.(nodes.Node), ctx)
	}
	// Plain data at a leaf: strings are raw SQL, anything else is bound.
	if s, ok := v.(string); ok {
		return []result{{node: queryir.SQLLiteral{SQL: s}}}, nil
	}
	lit, err := literal(v)
	if err != nil {
		return nil, err
	}
	return []result{{node: lit}}, nil
}

func (p *pass) visitSeq(seq []any, ctx *scope.Context) ([]result, error) {
	if frag, ok := boundFragment(seq); ok {
		return p.visitNode(frag, ctx)
	}
	var out []result
	for _, el := range seq {
		rs, err := p.visit(el, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (p *pass) visitMap(entries nodes.Map, ctx *scope.Context) ([]result, error) {
	var out []result
	for _, e := range entries {
		var (
			rs  []result
			err error
		)
		if impliesContextChange(e.Value) {
			rs, err = p.visitScoped(e.Key, e.Value, ctx)
		} else {
			rs, err = p.visitLiteralEntry(e.Key, e.Value, ctx)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// visitScoped compiles value under the context named by key.
func (p *pass) visitScoped(key, value any, ctx *scope.Context) ([]result, error) {
	child, err := p.keyContext(key, ctx)
	if err != nil {
		return nil, err
	}
	return p.visit(value, child)
}

// keyContext descends from ctx through the association(s) named by key.
func (p *pass) keyContext(key any, ctx *scope.Context) (*scope.Context, error) {
	switch k := key.(type) {
	case string:
		return scope.Descend([]scope.Ref{{Name: k}}, ctx, false)
	case nodes.Stub:
		return scope.Descend([]scope.Ref{{Name: string(k)}}, ctx, false)
	case *nodes.Join:
		return scope.Descend([]scope.Ref{joinRef(k)}, ctx, false)
	case *nodes.KeyPath:
		refs := scope.Refs(k.Path()...)
		switch end := k.Endpoint().(type) {
		case nodes.Stub:
			refs = append(refs, scope.Ref{Name: string(end)})
		case *nodes.Join:
			refs = append(refs, joinRef(end))
		default:
			return nil, p.fail(key, "key path used as a scope must end in an association")
		}
		return scope.Descend(refs, ctx, k.IsAbsolute())
	default:
		return nil, p.fail(key, "scope key must be a name, join or key path")
	}
}

// visitLiteralEntry handles {key: data} where data does not change context.
func (p *pass) visitLiteralEntry(key, value any, ctx *scope.Context) ([]result, error) {
	switch p.kind {
	case filterClause:
		n, err := p.expandFilterEntry(key, value, ctx)
		if err != nil {
			return nil, err
		}
		return []result{{node: n}}, nil
	case orderClause:
		dir, ok := orderShorthand(value)
		if !ok {
			return nil, p.fail(value, `order entry value must be "asc" or "desc"`)
		}
		attr, err := p.keyAttribute(key, ctx)
		if err != nil {
			return nil, err
		}
		return []result{{node: attr, dir: dir, ordered: true}}, nil
	default:
		return nil, p.fail(key, "literal mapping entry has no meaning here")
	}
}

// expandFilterEntry applies the equality shorthand, or binds a valueless
// predicate key to the entry's value.
func (p *pass) expandFilterEntry(key, value any, ctx *scope.Context) (queryir.Node, error) {
	switch k := key.(type) {
	case *nodes.Predicate:
		return p.bindPredicateKey(k, value, ctx)
	case *nodes.KeyPath:
		if pred, ok := k.Endpoint().(*nodes.Predicate); ok {
			inner, err := scope.Descend(scope.Refs(k.Path()...), ctx, k.IsAbsolute())
			if err != nil {
				return nil, err
			}
			return p.bindPredicateKey(pred, value, inner)
		}
	}
	attr, err := p.keyAttribute(key, ctx)
	if err != nil {
		return nil, err
	}
	return p.c.expander(attr, value)
}

func (p *pass) bindPredicateKey(pred *nodes.Predicate, value any, ctx *scope.Context) (queryir.Node, error) {
	if pred.HasValue() {
		return nil, p.fail(pred, "predicate used as a key already has a value")
	}
	bound, err := pred.WithValue(value)
	if err != nil {
		return nil, err
	}
	return p.compilePredicate(bound, ctx)
}

// keyAttribute resolves a literal entry's key to a column.
func (p *pass) keyAttribute(key any, ctx *scope.Context) (queryir.Attribute, error) {
	switch k := key.(type) {
	case string:
		return scope.Resolve(k, ctx), nil
	case nodes.Stub:
		return scope.Resolve(string(k), ctx), nil
	case *nodes.KeyPath:
		end, ok := k.Endpoint().(nodes.Stub)
		if !ok {
			return queryir.Attribute{}, p.fail(key, "key path key must end in an attribute")
		}
		inner, err := scope.Descend(scope.Refs(k.Path()...), ctx, k.IsAbsolute())
		if err != nil {
			return queryir.Attribute{}, err
		}
		return scope.Resolve(string(end), inner), nil
	default:
		return queryir.Attribute{}, p.fail(key, "mapping key must name an attribute")
	}
}

// visitNode compiles one expression node.
func (p *pass) visitNode(n nodes.Node, ctx *scope.Context) ([]result, error) {
	switch node := n.(type) {
	case *nodes.KeyPath:
		inner, err := scope.Descend(scope.Refs(node.Path()...), ctx, node.IsAbsolute())
		if err != nil {
			return nil, err
		}
		return p.visitNode(node.Endpoint(), inner)
	case *nodes.Order:
		if p.kind != orderClause {
			return nil, p.fail(node, "ordering outside an order clause")
		}
		expr, err := p.operand(node.Expr, ctx)
		if err != nil {
			return nil, err
		}
		dir := queryir.DirAsc
		if node.IsDescending() {
			dir = queryir.DirDesc
		}
		return []result{{node: expr, dir: dir, ordered: true}}, nil
	case *nodes.Join:
		return nil, p.fail(node, "join annotation is only valid as a mapping key")
	case *nodes.SQL:
		frag, err := p.fragment(node, ctx)
		if err != nil {
			return nil, err
		}
		if p.kind == filterClause {
			return []result{{node: queryir.Grouping{Expr: frag}}}, nil
		}
		return []result{{node: frag}}, nil
	case *nodes.Predicate, *nodes.And, *nodes.Or, *nodes.Not:
		if p.kind == orderClause || p.kind == groupClause {
			return nil, p.fail(node, "condition cannot be used here")
		}
		cond, err := p.condition(node, ctx)
		if err != nil {
			return nil, err
		}
		return []result{{node: cond}}, nil
	default:
		expr, err := p.operand(node, ctx)
		if err != nil {
			return nil, err
		}
		return []result{{node: expr}}, nil
	}
}

// operand compiles a value-producing expression: names resolve to
// columns, functions and operations compile recursively, key paths
// descend first, and plain data becomes a bound literal.
func (p *pass) operand(v any, ctx *scope.Context) (queryir.Node, error) {
	switch n := v.(type) {
	case nodes.Stub:
		return scope.Resolve(string(n), ctx), nil
	case *nodes.KeyPath:
		inner, err := scope.Descend(scope.Refs(n.Path()...), ctx, n.IsAbsolute())
		if err != nil {
			return nil, err
		}
		return p.operand(n.Endpoint(), inner)
	case *nodes.Function:
		return p.function(n, ctx)
	case *nodes.Operation:
		left, err := p.operand(n.Left(), ctx)
		if err != nil {
			return nil, err
		}
		right, err := p.operand(n.Right(), ctx)
		if err != nil {
			return nil, err
		}
		return queryir.InfixOperation{Operator: n.Operator(), Left: left, Right: right, Alias: n.Alias()}, nil
	case *nodes.Predicate, *nodes.And, *nodes.Or, *nodes.Not:
		return p.condition(n.(nodes.Node), ctx)
	case *nodes.SQL:
		return p.fragment(n, ctx)
	case *nodes.Order, *nodes.Join:
		return nil, p.fail(v, "not a value expression")
	default:
		return literal(v)
	}
}

// function compiles a function call. Column arguments become raw quoted
// fragments so they are not bound as string data.
func (p *pass) function(f *nodes.Function, ctx *scope.Context) (queryir.Node, error) {
	args := make([]queryir.Node, 0, len(f.Args))
	for _, a := range f.Args {
		arg, err := p.functionArg(a, ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return queryir.NamedFunction{Name: f.Name, Args: args, Alias: f.Alias()}, nil
}

func (p *pass) functionArg(a any, ctx *scope.Context) (queryir.Node, error) {
	switch n := a.(type) {
	case nodes.Stub:
		return queryir.SQLLiteral{SQL: p.c.quoter(scope.Resolve(string(n), ctx))}, nil
	case *nodes.KeyPath:
		inner, err := scope.Descend(scope.Refs(n.Path()...), ctx, n.IsAbsolute())
		if err != nil {
			return nil, err
		}
		return p.functionArg(n.Endpoint(), inner)
	default:
		return p.operand(a, ctx)
	}
}

// boundFragment reads a sequence whose first element is a string with ?
// placeholders as one fragment bound to the remaining elements:
// ["name like ?", "%bob%"].
func boundFragment(seq []any) (*nodes.SQL, bool) {
	if len(seq) == 0 {
		return nil, false
	}
	s, ok := seq[0].(string)
	if !ok || queryir.Placeholders(s) == 0 {
		return nil, false
	}
	return nodes.NewSQL(s, seq[1:]...), true
}

// fragment compiles a raw fragment. Bind values become literals (strings
// included); expression args compile as operands under ctx.
func (p *pass) fragment(n *nodes.SQL, ctx *scope.Context) (queryir.SQLLiteral, error) {
	if want := queryir.Placeholders(n.Fragment); want != len(n.Args) {
		return queryir.SQLLiteral{}, p.fail(n,
			fmt.Sprintf("fragment has %d placeholder(s) but %d bind value(s)", want, len(n.Args)))
	}
	args := make([]queryir.Node, 0, len(n.Args))
	for _, a := range n.Args {
		var (
			arg queryir.Node
			err error
		)
		switch {
		case isSequence(a):
			return queryir.SQLLiteral{}, p.fail(a, "bind value must be a scalar or an expression")
		case CanAccept(a):
			if _, nested := a.(*nodes.SQL); nested {
				return queryir.SQLLiteral{}, p.fail(a, "fragments do not nest")
			}
			arg, err = p.operand(a, ctx)
		default:
			if _, ok := mapEntries(a); ok {
				return queryir.SQLLiteral{}, p.fail(a, "bind value must be a scalar or an expression")
			}
			arg, err = literal(a)
		}
		if err != nil {
			return queryir.SQLLiteral{}, err
		}
		args = append(args, arg)
	}
	return queryir.SQLLiteral{SQL: n.Fragment, Args: args}, nil
}

// impliesContextChange reports whether a mapping value scopes its key.
// An empty sequence never does.
func impliesContextChange(v any) bool {
	if _, ok := mapEntries(v); ok {
		return true
	}
	if CanAccept(v) {
		return true
	}
	seq, ok := sequence(v)
	if !ok || len(seq) == 0 {
		return false
	}
	for _, el := range seq {
		if !CanAccept(el) {
			return false
		}
	}
	return true
}

// mapEntries normalises the mapping shapes the visitor walks. Go maps are
// walked in sorted key order so output is deterministic.
func mapEntries(v any) (nodes.Map, bool) {
	switch m := v.(type) {
	case nodes.Map:
		return m, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(nodes.Map, len(keys))
		for i, k := range keys {
			out[i] = nodes.Entry{Key: k, Value: m[k]}
		}
		return out, true
	default:
		return nil, false
	}
}

// sequence normalises slices and arrays (except []byte) to []any.
func sequence(v any) ([]any, bool) {
	if !isSequence(v) {
		return nil, false
	}
	return nodes.Collection(v), true
}

func isSequence(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	if _, ok := v.(nodes.Map); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

func joinRef(j *nodes.Join) scope.Ref {
	return scope.Ref{Name: j.Name, Class: j.Class}
}
