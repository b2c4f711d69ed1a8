package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/BearerPipelineTest/meta-where/internal/querydoc"
	"github.com/BearerPipelineTest/meta-where/internal/schema"
)

// Bundle is everything one CUE source declares: the schema registry and
// the named queries over it.
type Bundle struct {
	Registry *schema.Registry
	Queries  []NamedQuery
}

// NamedQuery is a decoded query block with its source position.
type NamedQuery struct {
	Name  string
	Query *querydoc.Query
	Pos   token.Pos
}

// Query returns the query named name.
func (b *Bundle) Query(name string) (NamedQuery, bool) {
	for _, q := range b.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return NamedQuery{}, false
}

// Compile compiles every table and query block of v and stops at the
// first error. The CLI loader compiles block by block instead so it can
// report every error.
//
//	table: people: { class: "Person", columns: ["id", "name"] }
//	query: adults: { table: "people", where: {"age.gte": 18} }
func Compile(v cue.Value) (*Bundle, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	b := &Bundle{Registry: schema.NewRegistry()}
	err := eachField(v, "table", func(label string, tv cue.Value) error {
		t, err := CompileTable(tv)
		if err != nil {
			return err
		}
		if err := b.Registry.Add(t); err != nil {
			return &CompileError{Field: "table." + label, Message: err.Error(), Pos: tv.Pos()}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachField(v, "query", func(label string, qv cue.Value) error {
		q, err := CompileQuery(qv)
		if err != nil {
			return err
		}
		b.Queries = append(b.Queries, NamedQuery{Name: label, Query: q, Pos: qv.Pos()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// eachField calls fn for each regular field of the struct at path. A
// missing path is not an error.
func eachField(v cue.Value, path string, fn func(string, cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(label(iter.Selector()), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// label returns a field name without CUE quoting.
func label(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel && sel.ConstraintType() < cue.PatternConstraint {
		return sel.Unquoted()
	}
	return sel.String()
}

// lastLabel returns the name v is declared under.
func lastLabel(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return label(sels[len(sels)-1])
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// First error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
