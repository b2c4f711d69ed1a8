package querydoc

import (
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
)

// decodeFilter decodes one filter mapping.
//
// A plain mapping becomes a nodes.Map, so nested keys scope their values
// and literal entries go through the compiler's equality shorthand:
//
//	{articles: {title: Hello}, age.gt: 30, name: [Ernie, Bert]}
//
// A mapping that uses an operator ($or, $and, $not, $cmp) or compares
// against an expression ({nickname: {$expr: name}}) becomes a list of
// condition nodes instead. Nested scopes inside it are folded into key
// paths.
func decodeFilter(field string, v any) (any, error) {
	obj, ok := fields(v)
	if !ok {
		return nil, errorf(field, "filter must be a mapping, got %T", v)
	}
	if needsNodes(obj) {
		ns, err := filterNodes(field, obj)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(ns))
		for i, n := range ns {
			out[i] = n
		}
		return out, nil
	}

	m := make(nodes.Map, 0, len(obj))
	for _, f := range obj {
		fk := join(field, f.Key)
		k, err := parseKey(fk, f.Key, true)
		if err != nil {
			return nil, err
		}
		kn, err := k.node()
		if err != nil {
			return nil, errorf(fk, "%v", err)
		}

		var val any
		if _, isMap := fields(f.Value); isMap {
			if k.kind != "" {
				return nil, errorf(fk, "predicate key needs a value, not a mapping")
			}
			val, err = decodeFilter(fk, f.Value)
		} else {
			val, err = data(fk, f.Value)
		}
		if err != nil {
			return nil, err
		}
		m = append(m, nodes.Entry{Key: kn, Value: val})
	}
	return m, nil
}

func needsNodes(obj Object) bool {
	for _, f := range obj {
		if strings.HasPrefix(f.Key, "$") || isExprObject(f.Value) {
			return true
		}
	}
	return false
}

func isExprObject(v any) bool {
	obj, ok := fields(v)
	return ok && len(obj) == 1 && obj[0].Key == "$expr"
}

// data normalises a literal value or list of literal values.
func data(field string, v any) (any, error) {
	l, ok := list(v)
	if !ok {
		return scalar(field, v)
	}
	out := make([]any, len(l))
	for i, el := range l {
		s, err := scalar(index(field, i), el)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func filterNodes(field string, obj Object) ([]nodes.Node, error) {
	var out []nodes.Node
	for _, f := range obj {
		fk := join(field, f.Key)
		switch f.Key {
		case "$or":
			conds, err := conditions(fk, f.Value)
			if err != nil {
				return nil, err
			}
			acc := conds[0]
			for _, c := range conds[1:] {
				if acc, err = nodes.NewOr(acc, c); err != nil {
					return nil, errorf(fk, "%v", err)
				}
			}
			out = append(out, acc)
		case "$and":
			conds, err := conditions(fk, f.Value)
			if err != nil {
				return nil, err
			}
			and, err := nodes.AllOf(conds...)
			if err != nil {
				return nil, errorf(fk, "%v", err)
			}
			out = append(out, and)
		case "$not":
			obj, ok := fields(f.Value)
			if !ok {
				return nil, errorf(fk, "expected a mapping, got %T", f.Value)
			}
			c, err := condition(fk, obj)
			if err != nil {
				return nil, err
			}
			not, err := nodes.NewNot(c)
			if err != nil {
				return nil, errorf(fk, "%v", err)
			}
			out = append(out, not)
		case "$cmp":
			for i, item := range items(f.Value) {
				p, err := comparison(index(fk, i), item)
				if err != nil {
					return nil, err
				}
				out = append(out, p)
			}
		default:
			if strings.HasPrefix(f.Key, "$") {
				return nil, errorf(fk, "unknown operator %q", f.Key)
			}
			ns, err := entryNodes(fk, f.Key, f.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, ns...)
		}
	}
	return out, nil
}

// conditions decodes a non-empty list of mappings, one condition each.
func conditions(field string, v any) ([]nodes.Node, error) {
	l, ok := list(v)
	if !ok || len(l) == 0 {
		return nil, errorf(field, "expected a non-empty list of mappings")
	}
	out := make([]nodes.Node, len(l))
	for i, el := range l {
		obj, ok := fields(el)
		if !ok {
			return nil, errorf(index(field, i), "expected a mapping, got %T", el)
		}
		c, err := condition(index(field, i), obj)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// condition folds the nodes of one mapping into a single boolean node.
func condition(field string, obj Object) (nodes.Node, error) {
	ns, err := filterNodes(field, obj)
	if err != nil {
		return nil, err
	}
	switch len(ns) {
	case 0:
		return nil, errorf(field, "empty condition")
	case 1:
		return ns[0], nil
	default:
		and, err := nodes.AllOf(ns...)
		if err != nil {
			return nil, errorf(field, "%v", err)
		}
		return and, nil
	}
}

// entryNodes turns one {key: value} entry into condition nodes.
func entryNodes(field, rawKey string, value any) ([]nodes.Node, error) {
	k, err := parseKey(field, rawKey, true)
	if err != nil {
		return nil, err
	}

	if obj, ok := fields(value); ok && !isExprObject(value) {
		if k.kind != "" || !k.last.plain() {
			return nil, errorf(field, "scope inside a condition must be a plain association path")
		}
		children, err := filterNodes(field, obj)
		if err != nil {
			return nil, err
		}
		prefix := append(append([]string(nil), k.path...), k.last.name)
		out := make([]nodes.Node, len(children))
		for i, c := range children {
			if out[i], err = withPrefix(prefix, k.absolute, c); err != nil {
				return nil, errorf(field, "%v", err)
			}
		}
		return out, nil
	}

	if !k.last.plain() {
		return nil, errorf(field, "join annotation %q cannot be compared", rawKey)
	}
	kind := k.kind
	if kind == "" {
		kind = nodes.Eq
	}
	pred, err := predicate(field, nodes.Stub(k.last.name), kind, value, true)
	if err != nil {
		return nil, err
	}
	if len(k.path) == 0 {
		return []nodes.Node{pred}, nil
	}
	kp, err := nodes.KeyPathTo(k.path, pred)
	if err != nil {
		return nil, errorf(field, "%v", err)
	}
	if k.absolute {
		kp.MarkAbsolute()
	}
	return []nodes.Node{kp}, nil
}

// predicate builds expr <kind> value. Equality against a list becomes
// membership, as in the mapping shorthand.
func predicate(field string, expr any, kind nodes.PredicateKind, value any, hasValue bool) (*nodes.Predicate, error) {
	if !hasValue {
		p, err := nodes.NewPredicate(expr, kind)
		if err != nil {
			return nil, errorf(field, "%v", err)
		}
		return p, nil
	}
	val, err := compareValue(field, value)
	if err != nil {
		return nil, err
	}
	if _, isList := val.([]any); isList {
		switch kind {
		case nodes.Eq:
			kind = nodes.In
		case nodes.NotEq:
			kind = nodes.NotIn
		}
	}
	p, err := nodes.NewPredicate(expr, kind, val)
	if err != nil {
		return nil, errorf(field, "%v", err)
	}
	return p, nil
}

func compareValue(field string, v any) (any, error) {
	if isExprObject(v) {
		obj, _ := fields(v)
		return decodeExpr(join(field, "$expr"), obj[0].Value, false)
	}
	return data(field, v)
}

// comparison decodes a $cmp item: {expr: E, kind: gt, value: V}.
func comparison(field string, v any) (nodes.Node, error) {
	obj, ok := fields(v)
	if !ok {
		return nil, errorf(field, "expected a mapping, got %T", v)
	}
	if err := onlyKeys(field, obj, "expr", "kind", "value"); err != nil {
		return nil, err
	}
	rawExpr, ok := obj.Get("expr")
	if !ok {
		return nil, errorf(field, "missing expr")
	}
	expr, err := decodeExpr(join(field, "expr"), rawExpr, false)
	if err != nil {
		return nil, err
	}
	kind := nodes.Eq
	if rawKind, ok := obj.Get("kind"); ok {
		name, err := text(join(field, "kind"), rawKind)
		if err != nil {
			return nil, err
		}
		if kind, err = nodes.ParsePredicateKind(name); err != nil {
			return nil, errorf(join(field, "kind"), "%v", err)
		}
	}
	value, hasValue := obj.Get("value")
	return predicate(field, expr, kind, value, hasValue)
}

// withPrefix moves n under the association path prefix. Absolute key
// paths already resolve from the root and are left alone.
func withPrefix(prefix []string, absolute bool, n nodes.Node) (nodes.Node, error) {
	var (
		kp  *nodes.KeyPath
		err error
	)
	if inner, ok := n.(*nodes.KeyPath); ok {
		if inner.IsAbsolute() {
			return inner, nil
		}
		kp, err = nodes.KeyPathTo(append(append([]string(nil), prefix...), inner.Path()...), inner.Endpoint())
	} else {
		kp, err = nodes.KeyPathTo(prefix, n)
	}
	if err != nil {
		return nil, err
	}
	if absolute {
		kp.MarkAbsolute()
	}
	return kp, nil
}

func onlyKeys(field string, obj Object, allowed ...string) error {
	for _, f := range obj {
		ok := false
		for _, a := range allowed {
			if f.Key == a {
				ok = true
				break
			}
		}
		if !ok {
			return errorf(join(field, f.Key), "unknown field (allowed: %s)", strings.Join(allowed, ", "))
		}
	}
	return nil
}
