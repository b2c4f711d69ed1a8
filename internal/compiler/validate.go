package compiler

import (
	"errors"
	"fmt"

	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/schema"
)

// Validation error codes (E100-E199). Schema rules keep their E2xx codes
// from package schema.
const (
	ErrUnknownTable    = "E101" // query table is not declared
	ErrUnresolvedJoin  = "E102" // join spec names an unknown association
	ErrUncompilable    = "E103" // a clause does not compile against the joins
	ErrUnknownColumn   = "E104" // column not declared on its table
	ErrUnsupportedType = "E100" // unsupported value passed to Validate
)

// ValidationError represents a schema or query validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled bundle. Returns all errors found (does not
// fail fast). Queries are only checked against a valid schema.
func Validate(v any) []ValidationError {
	var b *Bundle
	switch x := v.(type) {
	case *Bundle:
		b = x
	case Bundle:
		b = &x
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}

	var errs []ValidationError
	for _, e := range b.Registry.Validate() {
		errs = append(errs, ValidationError{Field: "table." + e.Field, Message: e.Message, Code: e.Code})
	}
	if len(errs) > 0 {
		return errs
	}
	for _, q := range b.Queries {
		errs = append(errs, validateQuery(b.Registry, q)...)
	}
	return errs
}

func validateQuery(reg *schema.Registry, q NamedQuery) []ValidationError {
	field := "query." + q.Name
	line := 0
	if q.Pos.IsValid() {
		line = q.Pos.Line()
	}
	fail := func(code, format string, args ...any) []ValidationError {
		return []ValidationError{{Field: field, Code: code, Line: line, Message: fmt.Sprintf(format, args...)}}
	}

	if _, ok := reg.Table(q.Query.Table); !ok {
		return fail(ErrUnknownTable, "table %q is not declared", q.Query.Table)
	}

	sel, err := q.Query.Relation(reg).Build()
	if err != nil {
		if errors.Is(err, schema.ErrUnknownAssociation) {
			return fail(ErrUnresolvedJoin, "%v", err)
		}
		return fail(ErrUncompilable, "%v", err)
	}

	tables := map[string]string{sel.From.Ref(): sel.From.Name}
	for _, j := range sel.Joins {
		tables[j.Table.Ref()] = j.Table.Name
	}

	var errs []ValidationError
	seen := make(map[queryir.Attribute]bool)
	for _, a := range queryir.Attributes(sel) {
		if a.Name == "*" || seen[a] {
			continue
		}
		seen[a] = true
		name, ok := tables[a.Relation]
		if !ok {
			continue
		}
		t, _ := reg.Table(name)
		if t.HasColumn(a.Name) {
			continue
		}
		where := fmt.Sprintf("table %q", name)
		if a.Relation != name {
			where += fmt.Sprintf(" (as %q)", a.Relation)
		}
		errs = append(errs, fail(ErrUnknownColumn, "column %q is not declared on %s", a.Name, where)...)
	}
	return errs
}
