package queryir

// Walk calls fn for n and, while fn returns true, for each of its
// children in render order.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch node := n.(type) {
	case SQLLiteral:
		walkList(node.Args, fn)
	case NamedFunction:
		walkList(node.Args, fn)
	case InfixOperation:
		Walk(node.Left, fn)
		Walk(node.Right, fn)
	case Comparison:
		Walk(node.Left, fn)
		Walk(node.Right, fn)
	case Matches:
		Walk(node.Expr, fn)
		Walk(node.Pattern, fn)
	case In:
		Walk(node.Expr, fn)
		walkList(node.Values, fn)
	case IsNull:
		Walk(node.Expr, fn)
	case And:
		walkList(node.Children, fn)
	case Or:
		walkList(node.Children, fn)
	case Not:
		Walk(node.Expr, fn)
	case Grouping:
		Walk(node.Expr, fn)
	}
}

func walkList(list []Node, fn func(Node) bool) {
	for _, n := range list {
		Walk(n, fn)
	}
}

// WalkSelect walks every expression of sel: projections, join
// conditions, where, group by, having and order by.
func WalkSelect(sel *Select, fn func(Node) bool) {
	walkList(sel.Projections, fn)
	for _, j := range sel.Joins {
		Walk(j.On, fn)
	}
	Walk(sel.Where, fn)
	walkList(sel.GroupBy, fn)
	Walk(sel.Having, fn)
	for _, o := range sel.OrderBy {
		Walk(o.Expr, fn)
	}
}

// Attributes returns every column sel references, in walk order.
func Attributes(sel *Select) []Attribute {
	var out []Attribute
	WalkSelect(sel, func(n Node) bool {
		if a, ok := n.(Attribute); ok {
			out = append(out, a)
		}
		return true
	})
	return out
}
