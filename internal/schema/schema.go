package schema

import (
	"fmt"
	"sort"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
)

// Kind is the cardinality of an association.
type Kind string

const (
	BelongsTo Kind = "belongs_to"
	HasMany   Kind = "has_many"
	HasOne    Kind = "has_one"
)

// Association describes how one table reaches another.
//
// For BelongsTo the foreign key lives on the owning table and points at
// the target's primary key. For HasMany and HasOne the foreign key lives
// on the target table. A polymorphic BelongsTo has no fixed target: the
// class comes from an explicit hint and TypeColumn guards the join.
// A HasMany/HasOne with As set is the inverse side of such an
// association and guards on the target's TypeColumn.
type Association struct {
	Name       string
	Kind       Kind
	Target     string // target table; empty when Polymorphic
	ForeignKey string
	// Polymorphic marks a belongs_to whose target class varies per row.
	Polymorphic bool
	// TypeColumn holds the class name for polymorphic joins. Defaults to
	// <name>_type, or <as>_type on the inverse side.
	TypeColumn string
	// As names the polymorphic belongs_to on the target that this
	// association is the inverse of.
	As string
	// Join is the join type used when the association is referenced by
	// name only. Defaults to inner.
	Join nodes.JoinType
}

// Table describes one table and its outgoing associations.
type Table struct {
	Name       string
	Class      string
	PrimaryKey string
	Columns    []string

	associations map[string]*Association
	order        []string
}

// NewTable creates a table with primary key "id".
func NewTable(name, class string, columns ...string) *Table {
	return &Table{
		Name:         name,
		Class:        class,
		PrimaryKey:   "id",
		Columns:      columns,
		associations: make(map[string]*Association),
	}
}

// Associate adds an association and returns the table for chaining.
// Defaults are filled in: ForeignKey, TypeColumn.
func (t *Table) Associate(a Association) *Table {
	if t.associations == nil {
		t.associations = make(map[string]*Association)
	}
	if a.ForeignKey == "" {
		switch {
		case a.Kind == BelongsTo:
			a.ForeignKey = a.Name + "_id"
		case a.As != "":
			a.ForeignKey = a.As + "_id"
		default:
			a.ForeignKey = singular(t.Name) + "_id"
		}
	}
	if a.TypeColumn == "" {
		switch {
		case a.Polymorphic:
			a.TypeColumn = a.Name + "_type"
		case a.As != "":
			a.TypeColumn = a.As + "_type"
		}
	}
	if _, exists := t.associations[a.Name]; !exists {
		t.order = append(t.order, a.Name)
	}
	t.associations[a.Name] = &a
	return t
}

// BelongsTo is shorthand for Associate with Kind BelongsTo.
func (t *Table) BelongsTo(name, target string) *Table {
	return t.Associate(Association{Name: name, Kind: BelongsTo, Target: target})
}

// HasMany is shorthand for Associate with Kind HasMany.
func (t *Table) HasMany(name, target string) *Table {
	return t.Associate(Association{Name: name, Kind: HasMany, Target: target})
}

// Association returns the named association.
func (t *Table) Association(name string) (*Association, bool) {
	a, ok := t.associations[name]
	return a, ok
}

// Associations returns the associations in declaration order.
func (t *Table) Associations() []*Association {
	out := make([]*Association, len(t.order))
	for i, name := range t.order {
		out[i] = t.associations[name]
	}
	return out
}

// HasColumn reports whether the table declares column. Tables without a
// column list accept any column.
func (t *Table) HasColumn(column string) bool {
	if len(t.Columns) == 0 {
		return true
	}
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// singular strips a trailing "s". It is only used for default foreign
// key names; set ForeignKey explicitly for irregular plurals.
func singular(name string) string {
	if len(name) > 1 && name[len(name)-1] == 's' {
		return name[:len(name)-1]
	}
	return name
}

// Registry holds the tables of one schema.
//
// Thread-safety: a Registry is built once and then only read; concurrent
// reads are safe, concurrent Add is not.
type Registry struct {
	tables  map[string]*Table
	byClass map[string]*Table
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables:  make(map[string]*Table),
		byClass: make(map[string]*Table),
	}
}

// Add registers tables. Table names and class names must be unique.
func (r *Registry) Add(tables ...*Table) error {
	for _, t := range tables {
		if t.Name == "" {
			return fmt.Errorf("table has no name")
		}
		if _, dup := r.tables[t.Name]; dup {
			return fmt.Errorf("table %q registered twice", t.Name)
		}
		if t.Class != "" {
			if other, dup := r.byClass[t.Class]; dup {
				return fmt.Errorf("class %q used by tables %q and %q", t.Class, other.Name, t.Name)
			}
			r.byClass[t.Class] = t
		}
		r.tables[t.Name] = t
	}
	return nil
}

// Table returns the named table.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// ByClass returns the table backing class.
func (r *Registry) ByClass(class string) (*Table, bool) {
	t, ok := r.byClass[class]
	return t, ok
}

// Tables returns all tables sorted by name.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve finds the association name on table from and the table it
// leads to. class is the polymorphic hint; it is required for polymorphic
// associations and must match the target's class otherwise.
func (r *Registry) Resolve(from *Table, name, class string) (*Association, *Table, error) {
	a, ok := from.Association(name)
	if !ok {
		return nil, nil, &LookupError{Table: from.Name, Association: name}
	}
	if a.Polymorphic {
		if class == "" {
			return nil, nil, &LookupError{Table: from.Name, Association: name,
				Reason: "polymorphic association needs a class"}
		}
		target, ok := r.ByClass(class)
		if !ok {
			return nil, nil, &LookupError{Table: from.Name, Association: name,
				Reason: fmt.Sprintf("no table for class %q", class)}
		}
		return a, target, nil
	}
	target, ok := r.Table(a.Target)
	if !ok {
		return nil, nil, &LookupError{Table: from.Name, Association: name,
			Reason: fmt.Sprintf("target table %q is not registered", a.Target)}
	}
	if class != "" && class != target.Class {
		return nil, nil, &LookupError{Table: from.Name, Association: name,
			Reason: fmt.Sprintf("class %q does not match target class %q", class, target.Class)}
	}
	return a, target, nil
}
