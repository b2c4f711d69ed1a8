package visitor

import (
	"fmt"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/scope"
)

var comparisonOps = map[nodes.PredicateKind]queryir.CompareOp{
	nodes.Eq:    queryir.OpEq,
	nodes.NotEq: queryir.OpNotEq,
	nodes.Lt:    queryir.OpLt,
	nodes.Lteq:  queryir.OpLteq,
	nodes.Gt:    queryir.OpGt,
	nodes.Gteq:  queryir.OpGteq,
}

// condition compiles a boolean node.
func (p *pass) condition(n nodes.Node, ctx *scope.Context) (queryir.Node, error) {
	switch node := n.(type) {
	case *nodes.Predicate:
		return p.compilePredicate(node, ctx)
	case *nodes.KeyPath:
		inner, err := scope.Descend(scope.Refs(node.Path()...), ctx, node.IsAbsolute())
		if err != nil {
			return nil, err
		}
		return p.condition(node.Endpoint(), inner)
	case *nodes.And:
		children := make([]queryir.Node, 0, len(node.Children))
		for _, c := range node.Children {
			cond, err := p.condition(c, ctx)
			if err != nil {
				return nil, err
			}
			children = append(children, cond)
		}
		return queryir.And{Children: children}, nil
	case *nodes.Or:
		left, err := p.condition(node.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := p.condition(node.Right, ctx)
		if err != nil {
			return nil, err
		}
		return queryir.Or{Children: []queryir.Node{left, right}}, nil
	case *nodes.Not:
		inner, err := p.condition(node.Expr, ctx)
		if err != nil {
			return nil, err
		}
		return queryir.Not{Expr: inner}, nil
	case *nodes.SQL:
		frag, err := p.fragment(node, ctx)
		if err != nil {
			return nil, err
		}
		return queryir.Grouping{Expr: frag}, nil
	default:
		return nil, p.fail(n, "not a condition")
	}
}

// compilePredicate emits the comparison, IN, LIKE or IS NULL node for a
// predicate. _any and _all kinds expand into OR and AND groups of the base
// predicate, one per value.
func (p *pass) compilePredicate(pred *nodes.Predicate, ctx *scope.Context) (queryir.Node, error) {
	expr, err := p.predicateExpr(pred.Expr, ctx)
	if err != nil {
		return nil, err
	}

	if !pred.HasValue() {
		switch pred.Kind {
		case nodes.Eq:
			return queryir.IsNull{Expr: expr}, nil
		case nodes.NotEq:
			return queryir.IsNull{Expr: expr, Negated: true}, nil
		default:
			return nil, p.fail(pred, fmt.Sprintf("predicate %s needs a value", pred.Kind))
		}
	}

	switch pred.Kind.Quantifier() {
	case nodes.QuantAny, nodes.QuantAll:
		base := pred.Kind.Base()
		values := pred.Values()
		children := make([]queryir.Node, 0, len(values))
		for _, v := range values {
			cond, err := p.singular(expr, base, v, ctx)
			if err != nil {
				return nil, err
			}
			children = append(children, cond)
		}
		if pred.Kind.Quantifier() == nodes.QuantAny {
			return queryir.Or{Children: children}, nil
		}
		return queryir.And{Children: children}, nil
	default:
		return p.singular(expr, pred.Kind, pred.Value, ctx)
	}
}

// predicateExpr compiles the tested side of a predicate. A plain string
// here is an attribute name.
func (p *pass) predicateExpr(expr any, ctx *scope.Context) (queryir.Node, error) {
	if s, ok := expr.(string); ok {
		return scope.Resolve(s, ctx), nil
	}
	return p.operand(expr, ctx)
}

func (p *pass) singular(expr queryir.Node, kind nodes.PredicateKind, value any, ctx *scope.Context) (queryir.Node, error) {
	switch kind {
	case nodes.In, nodes.NotIn:
		negated := kind == nodes.NotIn
		if value == nil {
			return queryir.IsNull{Expr: expr, Negated: negated}, nil
		}
		raw := nodes.Collection(value)
		values := make([]queryir.Node, 0, len(raw))
		for _, v := range raw {
			n, err := p.predicateValue(v, ctx)
			if err != nil {
				return nil, err
			}
			values = append(values, n)
		}
		return queryir.In{Expr: expr, Values: values, Negated: negated}, nil

	case nodes.Matches, nodes.DoesNotMatch:
		pattern, err := p.scalarValue(kind, value, ctx)
		if err != nil {
			return nil, err
		}
		return queryir.Matches{Expr: expr, Pattern: pattern, Negated: kind == nodes.DoesNotMatch}, nil

	default:
		op, ok := comparisonOps[kind]
		if !ok {
			return nil, p.fail(kind, fmt.Sprintf("unsupported predicate %s", kind))
		}
		if value == nil {
			switch kind {
			case nodes.Eq:
				return queryir.IsNull{Expr: expr}, nil
			case nodes.NotEq:
				return queryir.IsNull{Expr: expr, Negated: true}, nil
			}
		}
		right, err := p.scalarValue(kind, value, ctx)
		if err != nil {
			return nil, err
		}
		return queryir.Comparison{Op: op, Left: expr, Right: right}, nil
	}
}

func (p *pass) scalarValue(kind nodes.PredicateKind, value any, ctx *scope.Context) (queryir.Node, error) {
	if isSequence(value) {
		return nil, p.fail(value, fmt.Sprintf("predicate %s needs a single value, got a collection", kind))
	}
	return p.predicateValue(value, ctx)
}

// predicateValue compiles the compared side: expression nodes compile as
// operands (column-to-column comparison), anything else is bound data.
func (p *pass) predicateValue(v any, ctx *scope.Context) (queryir.Node, error) {
	if CanAccept(v) {
		return p.operand(v, ctx)
	}
	return literal(v)
}
