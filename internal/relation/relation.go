package relation

import (
	"fmt"
	"log/slog"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/joins"
	"github.com/BearerPipelineTest/meta-where/internal/nodes"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/querysql"
	"github.com/BearerPipelineTest/meta-where/internal/schema"
	"github.com/BearerPipelineTest/meta-where/internal/scope"
	"github.com/BearerPipelineTest/meta-where/internal/visitor"
)

// Relation is an immutable query under construction. Every builder method
// returns a new Relation and leaves the receiver untouched, so a base
// relation can be shared and refined concurrently.
type Relation struct {
	reg      *schema.Registry
	table    string
	compiler *visitor.Compiler

	joins    []any
	where    []any
	having   []any
	selects  []any
	groups   []any
	orders   []any
	distinct bool
	limit    int
	offset   int
}

// Option configures a Relation.
type Option func(*visitor.Options)

// WithExpander replaces the literal filter entry expansion.
func WithExpander(e visitor.Expander) Option {
	return func(o *visitor.Options) { o.Expander = e }
}

// WithQuoter replaces how function column operands are rendered.
func WithQuoter(q visitor.Quoter) Option {
	return func(o *visitor.Options) { o.Quoter = q }
}

// New starts a relation over table. The table is looked up when the
// relation is built.
func New(reg *schema.Registry, table string, opts ...Option) *Relation {
	var o visitor.Options
	for _, opt := range opts {
		opt(&o)
	}
	return &Relation{reg: reg, table: table, compiler: visitor.New(o)}
}

// Table returns the name of the FROM table.
func (r *Relation) Table() string { return r.table }

func (r *Relation) clone() *Relation {
	c := *r
	c.joins = clip(r.joins)
	c.where = clip(r.where)
	c.having = clip(r.having)
	c.selects = clip(r.selects)
	c.groups = clip(r.groups)
	c.orders = clip(r.orders)
	return &c
}

// clip caps the slice so appends on a clone never write into the
// original's backing array.
func clip(s []any) []any { return s[:len(s):len(s)] }

// Joins adds join specs (see joins.Dependency.Add).
func (r *Relation) Joins(specs ...any) *Relation {
	c := r.clone()
	c.joins = append(c.joins, specs...)
	return c
}

// Where adds filter trees. All trees are combined with AND.
//
// A leading string with ? placeholders takes the remaining arguments as
// its bind values instead: Where("name like ?", "%bob%").
func (r *Relation) Where(trees ...any) *Relation {
	c := r.clone()
	c.where = append(c.where, conditions(trees)...)
	return c
}

// Having adds filter trees applied after grouping. It accepts the same
// bound fragment form as Where.
func (r *Relation) Having(trees ...any) *Relation {
	c := r.clone()
	c.having = append(c.having, conditions(trees)...)
	return c
}

func conditions(trees []any) []any {
	if len(trees) > 1 {
		if s, ok := trees[0].(string); ok && queryir.Placeholders(s) > 0 {
			return []any{nodes.NewSQL(s, trees[1:]...)}
		}
	}
	return trees
}

// Select adds projection trees.
func (r *Relation) Select(trees ...any) *Relation {
	c := r.clone()
	c.selects = append(c.selects, trees...)
	return c
}

// Group adds grouping trees.
func (r *Relation) Group(trees ...any) *Relation {
	c := r.clone()
	c.groups = append(c.groups, trees...)
	return c
}

// Order adds ordering trees.
func (r *Relation) Order(trees ...any) *Relation {
	c := r.clone()
	c.orders = append(c.orders, trees...)
	return c
}

// Reorder replaces the ordering trees.
func (r *Relation) Reorder(trees ...any) *Relation {
	c := r.clone()
	c.orders = append([]any(nil), trees...)
	return c
}

// Distinct selects distinct rows.
func (r *Relation) Distinct() *Relation {
	c := r.clone()
	c.distinct = true
	return c
}

// Limit caps the number of rows. Zero removes the cap.
func (r *Relation) Limit(n int) *Relation {
	c := r.clone()
	c.limit = n
	return c
}

// Offset skips n rows.
func (r *Relation) Offset(n int) *Relation {
	c := r.clone()
	c.offset = n
	return c
}

// Build compiles every clause against the relation's join tree.
func (r *Relation) Build() (*queryir.Select, error) {
	if r.limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", r.limit)
	}
	if r.offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", r.offset)
	}

	dep, err := joins.New(r.reg, r.table)
	if err != nil {
		return nil, err
	}
	for _, spec := range r.joins {
		if err := dep.Add(spec); err != nil {
			return nil, fmt.Errorf("joins: %w", err)
		}
	}
	ctx := scope.Root(dep.Root())

	sel := &queryir.Select{
		From:     dep.Root().Table(),
		Joins:    dep.Clauses(),
		Distinct: r.distinct,
		Limit:    r.limit,
		Offset:   r.offset,
	}
	if sel.Where, err = r.filter(r.where, ctx); err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	if sel.Having, err = r.filter(r.having, ctx); err != nil {
		return nil, fmt.Errorf("having: %w", err)
	}
	for _, tree := range r.selects {
		ns, err := r.compiler.CompileSelect(tree, ctx)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		sel.Projections = append(sel.Projections, ns...)
	}
	for _, tree := range r.groups {
		ns, err := r.compiler.CompileGroup(tree, ctx)
		if err != nil {
			return nil, fmt.Errorf("group: %w", err)
		}
		sel.GroupBy = append(sel.GroupBy, ns...)
	}
	for _, tree := range r.orders {
		ords, err := r.compiler.CompileOrder(tree, ctx)
		if err != nil {
			return nil, fmt.Errorf("order: %w", err)
		}
		sel.OrderBy = append(sel.OrderBy, ords...)
	}

	slog.Debug("relation built",
		"table", r.table,
		"joins", dep.String(),
		"projections", len(sel.Projections),
		"orderings", len(sel.OrderBy))
	return sel, nil
}

// filter compiles each tree and ANDs the non-empty results.
func (r *Relation) filter(trees []any, ctx *scope.Context) (queryir.Node, error) {
	var conds []queryir.Node
	for _, tree := range trees {
		n, err := r.compiler.CompileFilter(tree, ctx)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		if and, ok := n.(queryir.And); ok {
			conds = append(conds, and.Children...)
			continue
		}
		conds = append(conds, n)
	}
	switch len(conds) {
	case 0:
		return nil, nil
	case 1:
		return conds[0], nil
	default:
		return queryir.And{Children: conds}, nil
	}
}

// ToSQL builds the relation and renders it for SQLite.
func (r *Relation) ToSQL() (string, []any, error) {
	p, err := r.Plan()
	if err != nil {
		return "", nil, err
	}
	return p.SQL, p.Params, nil
}

// Plan is a built relation with everything derived from it.
type Plan struct {
	Select      *queryir.Select
	SQL         string
	Params      []any
	Warnings    []string
	Fingerprint string
}

// Plan builds, validates, renders and fingerprints the relation.
func (r *Relation) Plan() (*Plan, error) {
	sel, err := r.Build()
	if err != nil {
		return nil, err
	}

	comp := querysql.NewSQLCompiler()
	if t, ok := r.reg.Table(r.table); ok {
		comp.PrimaryKey = t.PrimaryKey
	}
	sql, params, err := comp.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	fp, err := ir.Fingerprint(ir.DomainAST, queryir.EncodeSelect(sel))
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	result := queryir.Validate(sel)
	for _, w := range result.Warnings {
		slog.Debug("query warning", "table", r.table, "warning", w)
	}

	return &Plan{
		Select:      sel,
		SQL:         sql,
		Params:      params,
		Warnings:    result.Warnings,
		Fingerprint: fp,
	}, nil
}
