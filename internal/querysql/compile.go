package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
)

// SQLCompiler renders QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: literal values are always parameterized, never interpolated.
// Identifiers are double-quoted. Raw SQLLiteral fragments are emitted
// verbatim, with their bind values in place of their ? placeholders.
type SQLCompiler struct {
	// StableOrder appends "<from>"."<PrimaryKey>" ASC as a final ORDER BY
	// tiebreaker so row order is deterministic. It is skipped for grouped,
	// HAVING and DISTINCT statements, and when every projection is an
	// aggregate call, since those return rows the key no longer names.
	StableOrder bool

	// PrimaryKey is the tiebreaker column. Defaults to "id".
	PrimaryKey string
}

// NewSQLCompiler creates a compiler with stable ordering enabled.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		StableOrder: true,
		PrimaryKey:  "id",
	}
}

// Compile converts a Select statement to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(sel *queryir.Select) (string, []any, error) {
	if sel == nil {
		return "", nil, fmt.Errorf("cannot compile nil statement")
	}
	if sel.From.Name == "" {
		return "", nil, fmt.Errorf("statement has no FROM table")
	}

	w := &writer{}
	w.sql.WriteString("SELECT ")
	if sel.Distinct {
		w.sql.WriteString("DISTINCT ")
	}
	if err := c.writeProjections(w, sel); err != nil {
		return "", nil, err
	}

	w.sql.WriteString(" FROM ")
	w.sql.WriteString(tableSQL(sel.From))

	for i, j := range sel.Joins {
		if j.On == nil {
			return "", nil, fmt.Errorf("join %d (%s): missing ON condition", i, j.Table.Ref())
		}
		w.sql.WriteString(" ")
		w.sql.WriteString(j.Type.String())
		w.sql.WriteString(" ")
		w.sql.WriteString(tableSQL(j.Table))
		w.sql.WriteString(" ON ")
		if err := c.writeNode(w, j.On); err != nil {
			return "", nil, fmt.Errorf("compile join %s: %w", j.Table.Ref(), err)
		}
	}

	if sel.Where != nil {
		w.sql.WriteString(" WHERE ")
		if err := c.writeNode(w, sel.Where); err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
	}

	if len(sel.GroupBy) > 0 {
		w.sql.WriteString(" GROUP BY ")
		if err := c.writeList(w, sel.GroupBy); err != nil {
			return "", nil, fmt.Errorf("compile group by: %w", err)
		}
	}

	if sel.Having != nil {
		w.sql.WriteString(" HAVING ")
		if err := c.writeNode(w, sel.Having); err != nil {
			return "", nil, fmt.Errorf("compile having: %w", err)
		}
	}

	orderings := c.orderings(sel)
	if len(orderings) > 0 {
		w.sql.WriteString(" ORDER BY ")
		for i, o := range orderings {
			if i > 0 {
				w.sql.WriteString(", ")
			}
			if err := c.writeNode(w, o.Expr); err != nil {
				return "", nil, fmt.Errorf("compile order by: %w", err)
			}
			if dir := o.Direction.String(); dir != "" {
				w.sql.WriteString(" ")
				w.sql.WriteString(dir)
			}
		}
	}

	switch {
	case sel.Limit > 0:
		w.sql.WriteString(" LIMIT " + strconv.Itoa(sel.Limit))
		if sel.Offset > 0 {
			w.sql.WriteString(" OFFSET " + strconv.Itoa(sel.Offset))
		}
	case sel.Offset > 0:
		// SQLite requires LIMIT before OFFSET; -1 means no limit.
		w.sql.WriteString(" LIMIT -1 OFFSET " + strconv.Itoa(sel.Offset))
	}

	return w.sql.String(), w.params, nil
}

// CompileNode renders a single expression. Function aliases are not
// rendered outside a select list.
func (c *SQLCompiler) CompileNode(n queryir.Node) (string, []any, error) {
	w := &writer{}
	if err := c.writeNode(w, n); err != nil {
		return "", nil, err
	}
	return w.sql.String(), w.params, nil
}

// orderings returns the statement's ORDER BY list plus the stable
// tiebreaker when it applies.
func (c *SQLCompiler) orderings(sel *queryir.Select) []queryir.Ordering {
	if !c.StableOrder || len(sel.GroupBy) > 0 || sel.Having != nil || sel.Distinct || aggregateOnly(sel) {
		return sel.OrderBy
	}
	pk := c.PrimaryKey
	if pk == "" {
		pk = "id"
	}
	tiebreak := queryir.Attribute{Relation: sel.From.Ref(), Name: pk}
	for _, o := range sel.OrderBy {
		if attr, ok := o.Expr.(queryir.Attribute); ok && attr == tiebreak {
			return sel.OrderBy
		}
	}
	out := make([]queryir.Ordering, 0, len(sel.OrderBy)+1)
	out = append(out, sel.OrderBy...)
	return append(out, queryir.Ordering{Expr: tiebreak, Direction: queryir.DirAsc})
}

// aggregates are SQLite's built-in aggregate functions.
var aggregates = map[string]bool{
	"avg": true, "count": true, "group_concat": true, "max": true,
	"min": true, "sum": true, "total": true, "string_agg": true,
}

func aggregateOnly(sel *queryir.Select) bool {
	if len(sel.Projections) == 0 {
		return false
	}
	for _, p := range sel.Projections {
		fn, ok := p.(queryir.NamedFunction)
		if !ok || !aggregates[strings.ToLower(fn.Name)] {
			return false
		}
	}
	return true
}

func (c *SQLCompiler) writeProjections(w *writer, sel *queryir.Select) error {
	if len(sel.Projections) == 0 {
		w.sql.WriteString(QuoteIdent(sel.From.Ref()) + ".*")
		return nil
	}
	for i, p := range sel.Projections {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		if err := c.writeNode(w, p); err != nil {
			return fmt.Errorf("compile projection %d: %w", i, err)
		}
		if alias := aliasOf(p); alias != "" {
			w.sql.WriteString(" AS ")
			w.sql.WriteString(QuoteIdent(alias))
		}
	}
	return nil
}

func (c *SQLCompiler) writeList(w *writer, list []queryir.Node) error {
	for i, n := range list {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		if err := c.writeNode(w, n); err != nil {
			return err
		}
	}
	return nil
}

// writeNode renders one expression.
// CRITICAL: Literal values are NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) writeNode(w *writer, n queryir.Node) error {
	switch node := n.(type) {
	case nil:
		return fmt.Errorf("cannot compile nil node")
	case queryir.Attribute:
		w.sql.WriteString(QuoteColumn(node))
	case queryir.Literal:
		param, err := irValueToParam(node.Value)
		if err != nil {
			return fmt.Errorf("convert value: %w", err)
		}
		w.sql.WriteString("?")
		w.params = append(w.params, param)
	case queryir.SQLLiteral:
		return c.writeFragment(w, node)
	case queryir.NamedFunction:
		w.sql.WriteString(node.Name)
		w.sql.WriteString("(")
		if err := c.writeList(w, node.Args); err != nil {
			return fmt.Errorf("function %s: %w", node.Name, err)
		}
		w.sql.WriteString(")")
	case queryir.InfixOperation:
		w.sql.WriteString("(")
		if err := c.writeNode(w, node.Left); err != nil {
			return err
		}
		w.sql.WriteString(" " + node.Operator + " ")
		if err := c.writeNode(w, node.Right); err != nil {
			return err
		}
		w.sql.WriteString(")")
	case queryir.Comparison:
		return c.writeBinary(w, node.Left, string(node.Op), node.Right)
	case queryir.Matches:
		op := "LIKE"
		if node.Negated {
			op = "NOT LIKE"
		}
		return c.writeBinary(w, node.Expr, op, node.Pattern)
	case queryir.In:
		return c.writeIn(w, node)
	case queryir.IsNull:
		if err := c.writeNode(w, node.Expr); err != nil {
			return err
		}
		if node.Negated {
			w.sql.WriteString(" IS NOT NULL")
		} else {
			w.sql.WriteString(" IS NULL")
		}
	case queryir.And:
		if len(node.Children) == 0 {
			w.sql.WriteString("1 = 1") // vacuous truth
			return nil
		}
		return c.writeJoined(w, node.Children, " AND ", false)
	case queryir.Or:
		if len(node.Children) == 0 {
			w.sql.WriteString("1 = 0")
			return nil
		}
		return c.writeJoined(w, node.Children, " OR ", true)
	case queryir.Not:
		w.sql.WriteString("NOT (")
		if err := c.writeNode(w, node.Expr); err != nil {
			return err
		}
		w.sql.WriteString(")")
	case queryir.Grouping:
		w.sql.WriteString("(")
		if err := c.writeNode(w, node.Expr); err != nil {
			return err
		}
		w.sql.WriteString(")")
	default:
		return fmt.Errorf("unsupported node type: %T", n)
	}
	return nil
}

// writeFragment emits a raw fragment. A placeholder count that differs
// from the bind values would shift every later parameter, so it fails.
func (c *SQLCompiler) writeFragment(w *writer, frag queryir.SQLLiteral) error {
	pieces := queryir.SplitPlaceholders(frag.SQL)
	if len(pieces)-1 != len(frag.Args) {
		return fmt.Errorf("raw fragment %q has %d placeholder(s) but %d bind value(s)",
			frag.SQL, len(pieces)-1, len(frag.Args))
	}
	w.sql.WriteString(pieces[0])
	for i, arg := range frag.Args {
		if err := c.writeNode(w, arg); err != nil {
			return fmt.Errorf("raw fragment %q: %w", frag.SQL, err)
		}
		w.sql.WriteString(pieces[i+1])
	}
	return nil
}

func (c *SQLCompiler) writeBinary(w *writer, left queryir.Node, op string, right queryir.Node) error {
	if err := c.writeNode(w, left); err != nil {
		return err
	}
	w.sql.WriteString(" " + op + " ")
	return c.writeNode(w, right)
}

func (c *SQLCompiler) writeIn(w *writer, in queryir.In) error {
	if len(in.Values) == 0 {
		if in.Negated {
			w.sql.WriteString("1 = 1")
		} else {
			w.sql.WriteString("1 = 0")
		}
		return nil
	}
	if err := c.writeNode(w, in.Expr); err != nil {
		return err
	}
	if in.Negated {
		w.sql.WriteString(" NOT IN (")
	} else {
		w.sql.WriteString(" IN (")
	}
	if err := c.writeList(w, in.Values); err != nil {
		return err
	}
	w.sql.WriteString(")")
	return nil
}

// writeJoined renders children separated by sep. OR groups are always
// parenthesised so they bind correctly inside an AND.
func (c *SQLCompiler) writeJoined(w *writer, children []queryir.Node, sep string, paren bool) error {
	if paren {
		w.sql.WriteString("(")
	}
	for i, child := range children {
		if i > 0 {
			w.sql.WriteString(sep)
		}
		if err := c.writeNode(w, child); err != nil {
			return err
		}
	}
	if paren {
		w.sql.WriteString(")")
	}
	return nil
}

type writer struct {
	sql    strings.Builder
	params []any
}

func aliasOf(n queryir.Node) string {
	switch node := n.(type) {
	case queryir.NamedFunction:
		return node.Alias
	case queryir.InfixOperation:
		return node.Alias
	default:
		return ""
	}
}

func tableSQL(t queryir.Table) string {
	if t.Alias == "" || t.Alias == t.Name {
		return QuoteIdent(t.Name)
	}
	return QuoteIdent(t.Name) + " " + QuoteIdent(t.Alias)
}

// QuoteIdent double-quotes a SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteColumn renders a column reference, qualified when the attribute
// names its relation. A "*" column is not quoted.
func QuoteColumn(a queryir.Attribute) string {
	col := QuoteIdent(a.Name)
	if a.Name == "*" {
		col = "*"
	}
	if a.Relation == "" {
		return col
	}
	return QuoteIdent(a.Relation) + "." + col
}

// irValueToParam converts an ir.IRValue to a Go native type for a SQL
// parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("literal has no value")
	}
	return ir.ToGo(v)
}
