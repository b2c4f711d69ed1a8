package querydoc

import (
	"log/slog"

	"github.com/BearerPipelineTest/meta-where/internal/relation"
	"github.com/BearerPipelineTest/meta-where/internal/schema"
)

// Query is a decoded query document. Each clause holds trees ready for
// the compiler.
type Query struct {
	Table    string
	Joins    []any
	Where    []any
	Having   []any
	Select   []any
	Group    []any
	Order    []any
	Distinct bool
	Limit    int
	Offset   int
}

var queryFields = []string{"table", "joins", "where", "having", "select", "group", "order", "distinct", "limit", "offset"}

// Decode decodes a query document. doc is an Object or map[string]any
// whose values are strings, int64s, bools, nil, lists and nested
// mappings:
//
//	table: people
//	joins: [articles, "notes.notable(Article):outer"]
//	where: {articles: {title.matches: "%Go%"}, age.gte: 18}
//	select: [name, {fn: count, args: [articles.id], as: n}]
//	group: [name]
//	order: ["name desc"]
//	limit: 10
func Decode(doc any) (*Query, error) {
	obj, ok := fields(doc)
	if !ok {
		return nil, errorf("", "query must be a mapping, got %T", doc)
	}
	if err := onlyKeys("", obj, queryFields...); err != nil {
		return nil, err
	}

	q := &Query{}
	raw, ok := obj.Get("table")
	if !ok {
		return nil, errorf("table", "is required")
	}
	var err error
	if q.Table, err = text("table", raw); err != nil {
		return nil, err
	}

	for _, f := range obj {
		switch f.Key {
		case "joins":
			q.Joins, err = decodeJoins(f.Key, f.Value)
		case "where":
			q.Where, err = decodeFilters(f.Key, f.Value)
		case "having":
			q.Having, err = decodeFilters(f.Key, f.Value)
		case "select":
			q.Select, err = decodeProjections(f.Key, f.Value)
		case "group":
			q.Group, err = decodeProjections(f.Key, f.Value)
		case "order":
			q.Order, err = decodeOrderings(f.Key, f.Value)
		case "distinct":
			b, isBool := f.Value.(bool)
			if !isBool {
				return nil, errorf(f.Key, "expected a bool, got %T", f.Value)
			}
			q.Distinct = b
		case "limit":
			q.Limit, err = integer(f.Key, f.Value)
		case "offset":
			q.Offset, err = integer(f.Key, f.Value)
		}
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("query decoded",
		"table", q.Table,
		"joins", len(q.Joins),
		"where", len(q.Where),
		"select", len(q.Select))
	return q, nil
}

// decodeFilters accepts one filter mapping or a list of them.
func decodeFilters(field string, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	var out []any
	l, isList := list(v)
	if !isList {
		l = []any{v}
	}
	for i, item := range l {
		fi := field
		if isList {
			fi = index(field, i)
		}
		tree, err := decodeFilter(fi, item)
		if err != nil {
			return nil, err
		}
		out = append(out, tree)
	}
	return out, nil
}

// Relation builds the relation the document describes.
func (q *Query) Relation(reg *schema.Registry, opts ...relation.Option) *relation.Relation {
	r := relation.New(reg, q.Table, opts...).
		Joins(q.Joins...).
		Where(q.Where...).
		Having(q.Having...).
		Select(q.Select...).
		Group(q.Group...).
		Order(q.Order...).
		Limit(q.Limit).
		Offset(q.Offset)
	if q.Distinct {
		r = r.Distinct()
	}
	return r
}
