package visitor

import (
	"fmt"
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/nodes"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/querysql"
)

// Expander turns a literal filter entry {name: value} into a condition on
// the already-resolved attribute.
type Expander func(attr queryir.Attribute, value any) (queryir.Node, error)

// Quoter renders a resolved column as the raw fragment passed to
// functions.
type Quoter func(attr queryir.Attribute) string

// DefaultExpander is the equality shorthand:
//
//	nil          → attr IS NULL
//	collection   → attr IN (...), OR attr IS NULL when the list holds nil
//	anything else → attr = value
func DefaultExpander(attr queryir.Attribute, value any) (queryir.Node, error) {
	if value == nil {
		return queryir.IsNull{Expr: attr}, nil
	}
	if !isSequence(value) {
		lit, err := literal(value)
		if err != nil {
			return nil, err
		}
		return queryir.Comparison{Op: queryir.OpEq, Left: attr, Right: lit}, nil
	}

	var values []queryir.Node
	hasNil := false
	for _, v := range nodes.Collection(value) {
		if v == nil {
			hasNil = true
			continue
		}
		lit, err := literal(v)
		if err != nil {
			return nil, err
		}
		values = append(values, lit)
	}
	in := queryir.In{Expr: attr, Values: values}
	if !hasNil {
		return in, nil
	}
	if len(values) == 0 {
		return queryir.IsNull{Expr: attr}, nil
	}
	return queryir.Or{Children: []queryir.Node{in, queryir.IsNull{Expr: attr}}}, nil
}

// orderShorthand handles {name: "desc"} entries in order clauses.
func orderShorthand(value any) (queryir.Direction, bool) {
	s, ok := value.(string)
	if !ok {
		return queryir.DirDefault, false
	}
	switch strings.ToLower(s) {
	case "asc":
		return queryir.DirAsc, true
	case "desc":
		return queryir.DirDesc, true
	default:
		return queryir.DirDefault, false
	}
}

// literal converts Go data to a bound Literal.
func literal(v any) (queryir.Node, error) {
	val, err := ir.FromGo(v)
	if err != nil {
		return nil, fmt.Errorf("literal %v: %w", v, err)
	}
	return queryir.Lit(val), nil
}

func defaultQuoter(attr queryir.Attribute) string {
	return querysql.QuoteColumn(attr)
}
