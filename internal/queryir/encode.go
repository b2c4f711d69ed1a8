package queryir

import "github.com/BearerPipelineTest/meta-where/internal/ir"

// Encode converts a node to a generic tree of maps and slices suitable
// for ir.MarshalCanonical. Every map carries a "type" key.
func Encode(n Node) any {
	switch node := n.(type) {
	case nil:
		return map[string]any{"type": "nil"}
	case Attribute:
		m := map[string]any{"type": "attribute", "name": node.Name}
		if node.Relation != "" {
			m["relation"] = node.Relation
		}
		return m
	case Literal:
		if _, isNull := node.Value.(ir.IRNull); isNull || node.Value == nil {
			return map[string]any{"type": "literal", "null": true}
		}
		return map[string]any{"type": "literal", "value": node.Value}
	case SQLLiteral:
		m := map[string]any{"type": "sql", "sql": node.SQL}
		if len(node.Args) > 0 {
			m["args"] = encodeList(node.Args)
		}
		return m
	case NamedFunction:
		m := map[string]any{"type": "function", "name": node.Name, "args": encodeList(node.Args)}
		if node.Alias != "" {
			m["alias"] = node.Alias
		}
		return m
	case InfixOperation:
		m := map[string]any{"type": "infix", "operator": node.Operator, "left": Encode(node.Left), "right": Encode(node.Right)}
		if node.Alias != "" {
			m["alias"] = node.Alias
		}
		return m
	case Comparison:
		return map[string]any{"type": "comparison", "op": string(node.Op), "left": Encode(node.Left), "right": Encode(node.Right)}
	case Matches:
		return map[string]any{"type": "matches", "negated": node.Negated, "expr": Encode(node.Expr), "pattern": Encode(node.Pattern)}
	case In:
		return map[string]any{"type": "in", "negated": node.Negated, "expr": Encode(node.Expr), "values": encodeList(node.Values)}
	case IsNull:
		return map[string]any{"type": "is_null", "negated": node.Negated, "expr": Encode(node.Expr)}
	case And:
		return map[string]any{"type": "and", "children": encodeList(node.Children)}
	case Or:
		return map[string]any{"type": "or", "children": encodeList(node.Children)}
	case Not:
		return map[string]any{"type": "not", "expr": Encode(node.Expr)}
	case Grouping:
		return map[string]any{"type": "grouping", "expr": Encode(node.Expr)}
	default:
		return map[string]any{"type": "unknown"}
	}
}

// EncodeSelect converts a statement to a generic tree. Absent clauses are
// omitted.
func EncodeSelect(sel *Select) map[string]any {
	from := map[string]any{"name": sel.From.Name}
	if sel.From.Alias != "" {
		from["alias"] = sel.From.Alias
	}
	m := map[string]any{"type": "select", "from": from}
	if sel.Distinct {
		m["distinct"] = true
	}
	if len(sel.Projections) > 0 {
		m["projections"] = encodeList(sel.Projections)
	}
	if len(sel.Joins) > 0 {
		joins := make([]any, len(sel.Joins))
		for i, j := range sel.Joins {
			table := map[string]any{"name": j.Table.Name}
			if j.Table.Alias != "" {
				table["alias"] = j.Table.Alias
			}
			joins[i] = map[string]any{"kind": j.Type.String(), "table": table, "on": Encode(j.On)}
		}
		m["joins"] = joins
	}
	if sel.Where != nil {
		m["where"] = Encode(sel.Where)
	}
	if len(sel.GroupBy) > 0 {
		m["group_by"] = encodeList(sel.GroupBy)
	}
	if sel.Having != nil {
		m["having"] = Encode(sel.Having)
	}
	if len(sel.OrderBy) > 0 {
		orders := make([]any, len(sel.OrderBy))
		for i, o := range sel.OrderBy {
			entry := map[string]any{"expr": Encode(o.Expr)}
			if d := o.Direction.String(); d != "" {
				entry["direction"] = d
			}
			orders[i] = entry
		}
		m["order_by"] = orders
	}
	if sel.Limit > 0 {
		m["limit"] = sel.Limit
	}
	if sel.Offset > 0 {
		m["offset"] = sel.Offset
	}
	return m
}

func encodeList(list []Node) []any {
	out := make([]any, len(list))
	for i, n := range list {
		out[i] = Encode(n)
	}
	return out
}
