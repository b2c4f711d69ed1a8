package querydoc

import (
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
)

var operators = map[string]bool{"+": true, "-": true, "*": true, "/": true, "||": true}

// decodeExpr decodes an expression:
//
//	name, articles.title, ~articles.title   column reference
//	{fn: count, args: [id], as: n}           function call
//	{op: "+", left: age, right: 1, as: x}    infix operation
//	{lit: Hello}                             bound data (nested only)
//	{sql: "name DESC"}                       raw fragment (top level only)
//
// Numbers, booleans and null are bound data. A string that does not read
// as a column reference is bound data inside an expression and a raw
// fragment at the top level.
func decodeExpr(field string, v any, top bool) (any, error) {
	switch e := v.(type) {
	case string:
		if !isRef(e) {
			return e, nil
		}
		k, err := parseKey(field, e, false)
		if err != nil {
			return nil, err
		}
		return k.ref(field)
	case Object, map[string]any:
		obj, _ := fields(e)
		return decodeExprObject(field, obj, top)
	default:
		if _, isList := list(v); isList {
			return nil, errorf(field, "expected an expression, got a list")
		}
		return scalar(field, v)
	}
}

func isExprForm(obj Object) bool {
	for _, k := range []string{"fn", "op", "lit", "sql"} {
		if _, ok := obj.Get(k); ok {
			return true
		}
	}
	return false
}

func decodeExprObject(field string, obj Object, top bool) (any, error) {
	alias := ""
	if raw, ok := obj.Get("as"); ok {
		var err error
		if alias, err = text(join(field, "as"), raw); err != nil {
			return nil, err
		}
	}

	if raw, ok := obj.Get("fn"); ok {
		if err := onlyKeys(field, obj, "fn", "args", "as"); err != nil {
			return nil, err
		}
		name, err := text(join(field, "fn"), raw)
		if err != nil {
			return nil, err
		}
		var args []any
		rawArgs, _ := obj.Get("args")
		for i, a := range items(rawArgs) {
			arg, err := decodeExpr(index(join(field, "args"), i), a, false)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		f := nodes.NewFunction(name, args...)
		if alias != "" {
			f = f.As(alias)
		}
		return f, nil
	}

	if raw, ok := obj.Get("op"); ok {
		if err := onlyKeys(field, obj, "op", "left", "right", "as"); err != nil {
			return nil, err
		}
		op, err := text(join(field, "op"), raw)
		if err != nil {
			return nil, err
		}
		if !operators[op] {
			return nil, errorf(join(field, "op"), "unsupported operator %q", op)
		}
		var sides [2]any
		for i, side := range []string{"left", "right"} {
			rawSide, ok := obj.Get(side)
			if !ok {
				return nil, errorf(field, "missing %s", side)
			}
			if sides[i], err = decodeExpr(join(field, side), rawSide, false); err != nil {
				return nil, err
			}
		}
		o := nodes.NewOperation(sides[0], op, sides[1])
		if alias != "" {
			o = o.As(alias)
		}
		return o, nil
	}

	if raw, ok := obj.Get("lit"); ok {
		if top {
			return nil, errorf(field, "lit is only valid inside an expression")
		}
		if err := onlyKeys(field, obj, "lit"); err != nil {
			return nil, err
		}
		return scalar(join(field, "lit"), raw)
	}

	if raw, ok := obj.Get("sql"); ok {
		if !top {
			return nil, errorf(field, "sql is only valid at the top level of a clause")
		}
		if err := onlyKeys(field, obj, "sql"); err != nil {
			return nil, err
		}
		return text(join(field, "sql"), raw)
	}

	return nil, errorf(field, "expected fn, op, lit or sql")
}

// decodeProjections decodes select and group items. A mapping that is
// not an expression scopes its values under association keys:
//
//	[name, {fn: count, args: [id], as: n}, {articles: [title, body]}]
func decodeProjections(field string, v any) ([]any, error) {
	var out []any
	for i, item := range items(v) {
		fi := index(field, i)
		obj, ok := fields(item)
		if !ok || isExprForm(obj) {
			e, err := decodeExpr(fi, item, true)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
			continue
		}
		m, err := scoped(fi, obj, decodeProjections)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// scoped builds a nodes.Map whose keys are associations and whose values
// are decoded by each.
func scoped(field string, obj Object, each func(string, any) ([]any, error)) (nodes.Map, error) {
	m := make(nodes.Map, 0, len(obj))
	for _, f := range obj {
		fk := join(field, f.Key)
		k, err := parseKey(fk, f.Key, false)
		if err != nil {
			return nil, err
		}
		kn, err := k.node()
		if err != nil {
			return nil, errorf(fk, "%v", err)
		}
		vals, err := each(fk, f.Value)
		if err != nil {
			return nil, err
		}
		var val any = vals
		if len(vals) == 1 {
			val = vals[0]
		}
		m = append(m, nodes.Entry{Key: kn, Value: val})
	}
	return m, nil
}

// decodeOrderings decodes order items:
//
//	name, "name desc", "articles.title DESC"   column with direction
//	"lower(name) DESC"                         raw fragment
//	{expr: {fn: lower, args: [name]}, dir: desc}
//	{name: desc, articles: [title]}            shorthand and scopes
func decodeOrderings(field string, v any) ([]any, error) {
	var out []any
	for i, item := range items(v) {
		fi := index(field, i)
		switch it := item.(type) {
		case string:
			o, err := orderString(fi, it)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
			continue
		}

		obj, ok := fields(item)
		if !ok {
			return nil, errorf(fi, "expected a string or mapping, got %T", item)
		}
		if raw, ok := obj.Get("expr"); ok {
			if err := onlyKeys(fi, obj, "expr", "dir"); err != nil {
				return nil, err
			}
			e, err := decodeExpr(join(fi, "expr"), raw, false)
			if err != nil {
				return nil, err
			}
			desc := false
			if rawDir, ok := obj.Get("dir"); ok {
				if desc, err = direction(join(fi, "dir"), rawDir); err != nil {
					return nil, err
				}
			}
			o, err := ordered(fi, e, desc)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
			continue
		}
		if _, ok := obj.Get("sql"); ok {
			e, err := decodeExprObject(fi, obj, true)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
			continue
		}
		m, err := scoped(fi, obj, orderValue)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// orderValue keeps the asc/desc shorthand as a string and decodes
// anything else as nested order items.
func orderValue(field string, v any) ([]any, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(s) {
		case "asc", "desc":
			return []any{s}, nil
		}
	}
	return decodeOrderings(field, v)
}

func orderString(field, s string) (any, error) {
	s = strings.TrimSpace(s)
	ref, desc := s, false
	if i := strings.LastIndexByte(s, ' '); i > 0 {
		switch strings.ToLower(s[i+1:]) {
		case "asc":
			ref = strings.TrimSpace(s[:i])
		case "desc":
			ref, desc = strings.TrimSpace(s[:i]), true
		}
	}
	if !isRef(ref) {
		return s, nil
	}
	k, err := parseKey(field, ref, false)
	if err != nil {
		return nil, err
	}
	n, err := k.ref(field)
	if err != nil {
		return nil, err
	}
	return ordered(field, n, desc)
}

func direction(field string, v any) (bool, error) {
	s, _ := v.(string)
	switch strings.ToLower(s) {
	case "asc":
		return false, nil
	case "desc":
		return true, nil
	default:
		return false, errorf(field, `expected "asc" or "desc", got %v`, v)
	}
}

// ordered wraps an expression in an ordering node.
func ordered(field string, e any, desc bool) (any, error) {
	switch n := e.(type) {
	case nodes.Stub:
		if desc {
			return n.Desc(), nil
		}
		return n.Asc(), nil
	case *nodes.KeyPath:
		var err error
		if desc {
			n, err = n.Desc()
		} else {
			n, err = n.Asc()
		}
		if err != nil {
			return nil, errorf(field, "%v", err)
		}
		return n, nil
	case *nodes.Function:
		if desc {
			return n.Desc(), nil
		}
		return n.Asc(), nil
	case *nodes.Operation:
		if desc {
			return n.Desc(), nil
		}
		return n.Asc(), nil
	default:
		return nil, errorf(field, "cannot order by %T", e)
	}
}

// decodeJoins decodes join specs: key strings, and mappings nesting
// further specs under an association.
func decodeJoins(field string, v any) ([]any, error) {
	var out []any
	for i, item := range items(v) {
		fi := index(field, i)
		if s, ok := item.(string); ok {
			k, err := parseKey(fi, s, false)
			if err != nil {
				return nil, err
			}
			n, err := k.node()
			if err != nil {
				return nil, errorf(fi, "%v", err)
			}
			out = append(out, n)
			continue
		}
		obj, ok := fields(item)
		if !ok {
			return nil, errorf(fi, "expected a string or mapping, got %T", item)
		}
		m, err := scoped(fi, obj, decodeJoins)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
