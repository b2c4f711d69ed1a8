package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
	"github.com/BearerPipelineTest/meta-where/internal/schema"
)

// CompileTable parses a table block into a schema.Table. The table name
// is the block's label:
//
//	table: notes: {
//		class: "Note"
//		columns: ["id", "notable_id", "notable_type", "note"]
//		associations: notable: {kind: "belongs_to", polymorphic: true}
//	}
func CompileTable(v cue.Value) (*schema.Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := lastLabel(v)
	field := "table." + name

	class, err := optionalString(v, "class")
	if err != nil {
		return nil, err
	}
	columns, err := stringList(v, "columns")
	if err != nil {
		return nil, err
	}
	t := schema.NewTable(name, class, columns...)

	pk, err := optionalString(v, "primary_key")
	if err != nil {
		return nil, err
	}
	if pk != "" {
		t.PrimaryKey = pk
	}

	err = eachField(v, "associations", func(label string, av cue.Value) error {
		a, err := compileAssociation(field+".associations."+label, label, av)
		if err != nil {
			return err
		}
		t.Associate(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func compileAssociation(field, name string, v cue.Value) (schema.Association, error) {
	a := schema.Association{Name: name}

	kind, err := optionalString(v, "kind")
	if err != nil {
		return a, err
	}
	if kind == "" {
		return a, &CompileError{Field: field + ".kind", Message: "association kind is required", Pos: v.Pos()}
	}
	a.Kind = schema.Kind(kind)

	for _, s := range []struct {
		path string
		dst  *string
	}{
		{"target", &a.Target},
		{"foreign_key", &a.ForeignKey},
		{"type_column", &a.TypeColumn},
		{"as", &a.As},
	} {
		if *s.dst, err = optionalString(v, s.path); err != nil {
			return a, err
		}
	}

	if pv := v.LookupPath(cue.ParsePath("polymorphic")); pv.Exists() {
		if a.Polymorphic, err = pv.Bool(); err != nil {
			return a, formatCUEError(err)
		}
	}

	join, err := optionalString(v, "join")
	if err != nil {
		return a, err
	}
	switch join {
	case "", "inner":
		a.Join = nodes.InnerJoin
	case "outer":
		a.Join = nodes.OuterJoin
	default:
		return a, &CompileError{
			Field:   field + ".join",
			Message: fmt.Sprintf("join must be \"inner\" or \"outer\", got %q", join),
			Pos:     v.Pos(),
		}
	}
	return a, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
