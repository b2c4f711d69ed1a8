package joins

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/nodes"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/schema"
	"github.com/BearerPipelineTest/meta-where/internal/scope"
)

// Part is one joined table in the tree. The root part is the query's
// FROM table. Part implements scope.Join.
type Part struct {
	parent   *Part
	assoc    *schema.Association
	table    *schema.Table
	alias    string
	joinType nodes.JoinType
	class    string
	children []*Part
	index    map[scope.Ref]*Part
}

var _ scope.Join = (*Part)(nil)

func newPart(parent *Part, assoc *schema.Association, table *schema.Table, alias string, typ nodes.JoinType, class string) *Part {
	return &Part{
		parent:   parent,
		assoc:    assoc,
		table:    table,
		alias:    alias,
		joinType: typ,
		class:    class,
		index:    make(map[scope.Ref]*Part),
	}
}

// Table implements scope.Join. Alias is empty when the table name itself
// is unambiguous.
func (p *Part) Table() queryir.Table {
	return queryir.Table{Name: p.table.Name, Alias: p.alias}
}

// Child implements scope.Join. A class hint on a non-polymorphic
// association matches when it names the target's class.
func (p *Part) Child(ref scope.Ref) (scope.Join, bool) {
	if c, ok := p.index[ref]; ok {
		return c, true
	}
	if ref.Class == "" {
		return nil, false
	}
	c, ok := p.index[scope.Ref{Name: ref.Name}]
	if !ok || c.table.Class != ref.Class {
		return nil, false
	}
	return c, true
}

// Association returns the association that reached this part, or nil at
// the root.
func (p *Part) Association() *schema.Association { return p.assoc }

// Schema returns the registry entry of the joined table.
func (p *Part) Schema() *schema.Table { return p.table }

// JoinType returns how the part is joined to its parent.
func (p *Part) JoinType() nodes.JoinType { return p.joinType }

// Children returns the parts joined directly to p, in join order.
func (p *Part) Children() []*Part { return p.children }

// Dependency is the join tree of one query. It is built before any
// compile pass and only read afterwards.
//
// Aliases: the first use of a table keeps its name; later uses are
// aliased <association>_<parent table>, with _2, _3... appended on a
// further collision. Joining the same association twice under the same
// parent reuses the first part, and the first join type wins.
type Dependency struct {
	reg   *schema.Registry
	root  *Part
	taken map[string]bool
}

// New starts a join tree rooted at table.
func New(reg *schema.Registry, table string) (*Dependency, error) {
	t, ok := reg.Table(table)
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return &Dependency{
		reg:   reg,
		root:  newPart(nil, nil, t, "", nodes.InnerJoin, ""),
		taken: map[string]bool{t.Name: true},
	}, nil
}

// Root returns the FROM part. scope.Root(d.Root()) is the root context.
func (d *Dependency) Root() *Part { return d.root }

// Add joins the associations named by spec. spec has the shapes the
// visitor understands as scoping keys:
//
//	"articles"                              name (string or nodes.Stub)
//	nodes.Stub("articles").Outer()          join annotation
//	nodes.NewKeyPath("articles", "comments")   path
//	Map{"articles": []any{"comments", ...}} nested
//	[]any{...}                              several
func (d *Dependency) Add(spec any) error {
	return d.walk(spec, d.root)
}

func (d *Dependency) walk(spec any, parent *Part) error {
	switch s := spec.(type) {
	case nil:
		return nil
	case nodes.Map:
		for _, e := range s {
			part, err := d.key(e.Key, parent)
			if err != nil {
				return err
			}
			if err := d.walk(e.Value, part); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		m := make(nodes.Map, 0, len(s))
		for _, k := range sortedKeys(s) {
			m = append(m, nodes.Entry{Key: k, Value: s[k]})
		}
		return d.walk(m, parent)
	case []any:
		for _, el := range s {
			if err := d.walk(el, parent); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for _, el := range s {
			if err := d.walk(el, parent); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := d.key(spec, parent)
		return err
	}
}

// key joins the association(s) a single key names and returns the
// deepest part.
func (d *Dependency) key(key any, parent *Part) (*Part, error) {
	switch k := key.(type) {
	case string:
		return d.join(parent, k, "", nil)
	case nodes.Stub:
		return d.join(parent, string(k), "", nil)
	case *nodes.Join:
		typ := k.Type
		return d.join(parent, k.Name, k.Class, &typ)
	case *nodes.KeyPath:
		part := parent
		if k.IsAbsolute() {
			part = d.root
		}
		for _, name := range k.Path() {
			next, err := d.join(part, name, "", nil)
			if err != nil {
				return nil, err
			}
			part = next
		}
		return d.key(k.Endpoint(), part)
	default:
		return nil, fmt.Errorf("cannot join %T (%v)", key, key)
	}
}

// join adds (or reuses) the child of parent reached through name. typ is
// nil when the caller gave no explicit join type.
func (d *Dependency) join(parent *Part, name, class string, typ *nodes.JoinType) (*Part, error) {
	assoc, target, err := d.reg.Resolve(parent.table, name, class)
	if err != nil {
		return nil, err
	}
	ref := scope.Ref{Name: name}
	if assoc.Polymorphic {
		ref.Class = class
	}
	if existing, ok := parent.index[ref]; ok {
		slog.Debug("join reused",
			"association", ref.String(),
			"alias", existing.Table().Ref())
		return existing, nil
	}

	joinType := assoc.Join
	if typ != nil {
		joinType = *typ
	}
	alias := d.allocate(name, target, parent)
	part := newPart(parent, assoc, target, alias, joinType, ref.Class)
	parent.children = append(parent.children, part)
	parent.index[ref] = part

	slog.Debug("join added",
		"association", ref.String(),
		"table", target.Name,
		"alias", part.Table().Ref(),
		"type", joinType.String())
	return part, nil
}

func (d *Dependency) allocate(assoc string, target *schema.Table, parent *Part) string {
	if !d.taken[target.Name] {
		d.taken[target.Name] = true
		return ""
	}
	base := assoc + "_" + parent.table.Name
	alias := base
	for n := 2; d.taken[alias]; n++ {
		alias = fmt.Sprintf("%s_%d", base, n)
	}
	d.taken[alias] = true
	return alias
}

// Parts returns every joined part (not the root) in pre-order.
func (d *Dependency) Parts() []*Part {
	var out []*Part
	var visit func(p *Part)
	visit = func(p *Part) {
		for _, c := range p.children {
			out = append(out, c)
			visit(c)
		}
	}
	visit(d.root)
	return out
}

// Clauses returns one JOIN clause per part, parents before children.
func (d *Dependency) Clauses() []queryir.JoinClause {
	parts := d.Parts()
	out := make([]queryir.JoinClause, len(parts))
	for i, p := range parts {
		typ := queryir.InnerJoin
		if p.joinType == nodes.OuterJoin {
			typ = queryir.LeftOuterJoin
		}
		out[i] = queryir.JoinClause{Type: typ, Table: p.Table(), On: on(p)}
	}
	return out
}

// on builds the join condition between p and its parent. Polymorphic
// joins add a guard on the type column.
func on(p *Part) queryir.Node {
	owner := p.parent.Table().Ref()
	child := p.Table().Ref()
	a := p.assoc

	var cond, guard queryir.Node
	switch a.Kind {
	case schema.BelongsTo:
		cond = equal(child, p.table.PrimaryKey, owner, a.ForeignKey)
		if a.Polymorphic {
			guard = typeGuard(owner, a.TypeColumn, p.table.Class)
		}
	default:
		cond = equal(child, a.ForeignKey, owner, p.parent.table.PrimaryKey)
		if a.As != "" {
			guard = typeGuard(child, a.TypeColumn, p.parent.table.Class)
		}
	}
	if guard == nil {
		return cond
	}
	return queryir.And{Children: []queryir.Node{cond, guard}}
}

func equal(leftRel, leftCol, rightRel, rightCol string) queryir.Node {
	return queryir.Comparison{
		Op:    queryir.OpEq,
		Left:  queryir.Attribute{Relation: leftRel, Name: leftCol},
		Right: queryir.Attribute{Relation: rightRel, Name: rightCol},
	}
}

func typeGuard(rel, column, class string) queryir.Node {
	return queryir.Comparison{
		Op:    queryir.OpEq,
		Left:  queryir.Attribute{Relation: rel, Name: column},
		Right: queryir.Lit(ir.IRString(class)),
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the tree for logs, e.g. "people; inner articles; outer comments_articles".
func (d *Dependency) String() string {
	var b strings.Builder
	b.WriteString(d.root.table.Name)
	for _, p := range d.Parts() {
		fmt.Fprintf(&b, "; %s %s", p.joinType, p.Table().Ref())
	}
	return b.String()
}
