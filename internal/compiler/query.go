package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/BearerPipelineTest/meta-where/internal/querydoc"
)

// CompileQuery parses a query block. The block's fields follow the query
// document format of package querydoc; field order is kept.
//
//	query: adults: {
//		table: "people"
//		where: {"age.gte": 18}
//		order: ["name"]
//	}
func CompileQuery(v cue.Value) (*querydoc.Query, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	doc, err := Document(v)
	if err != nil {
		return nil, err
	}
	q, err := querydoc.Decode(doc)
	if err != nil {
		var derr *querydoc.DecodeError
		if errors.As(err, &derr) {
			return nil, &CompileError{Field: queryField(v, derr.Field), Message: derr.Message, Pos: v.Pos()}
		}
		return nil, &CompileError{Field: queryField(v, ""), Message: err.Error(), Pos: v.Pos()}
	}
	return q, nil
}

func queryField(v cue.Value, field string) string {
	name := "query"
	if l := lastLabel(v); l != "" {
		name = "query." + l
	}
	if field == "" {
		return name
	}
	return name + "." + field
}

// Document converts a concrete CUE value to query document data: structs
// become querydoc.Objects in field order, lists []any, and scalars
// string, int64, float64, bool or nil.
func Document(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := querydoc.Object{}
		for iter.Next() {
			val, err := Document(iter.Value())
			if err != nil {
				return nil, err
			}
			obj = append(obj, querydoc.Field{Key: label(iter.Selector()), Value: val})
		}
		return obj, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for iter.Next() {
			val, err := Document(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	}

	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("value of kind %v is not concrete", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.StringKind:
		s, err := v.String()
		return s, formatCUEError(err)
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return i, nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	case cue.BoolKind:
		b, err := v.Bool()
		return b, formatCUEError(err)
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}
