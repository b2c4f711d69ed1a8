package querysql

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
)

func col(rel, name string) queryir.Attribute {
	return queryir.Attribute{Relation: rel, Name: name}
}

func lit(v any) queryir.Literal {
	val, err := ir.FromGo(v)
	if err != nil {
		panic(err)
	}
	return queryir.Lit(val)
}

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	sel := &queryir.Select{
		From:  queryir.Table{Name: "people"},
		Where: queryir.Matches{Expr: col("people", "name"), Pattern: lit("%bob%")},
	}

	sql, params, err := compiler.Compile(sel)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "people".* FROM "people" WHERE "people"."name" LIKE ? ORDER BY "people"."id" ASC`, sql)
	assert.NotContains(t, sql, "bob") // value NOT in SQL
	assert.Equal(t, []any{"%bob%"}, params)
}

func TestCompile_NoStableOrder(t *testing.T) {
	compiler := &SQLCompiler{}

	sql, _, err := compiler.Compile(&queryir.Select{From: queryir.Table{Name: "people"}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "people".* FROM "people"`, sql)
}

func TestCompile_StableOrderNotDuplicated(t *testing.T) {
	sel := &queryir.Select{
		From:    queryir.Table{Name: "people"},
		OrderBy: []queryir.Ordering{{Expr: col("people", "id"), Direction: queryir.DirDesc}},
	}

	sql, _, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "people".* FROM "people" ORDER BY "people"."id" DESC`, sql)
}

func TestCompile_StableOrderSkipped(t *testing.T) {
	avg := queryir.NamedFunction{Name: "avg", Args: []queryir.Node{queryir.SQLLiteral{SQL: `"people"."age"`}}, Alias: "avg_age"}
	lower := queryir.NamedFunction{Name: "lower", Args: []queryir.Node{queryir.SQLLiteral{SQL: `"people"."name"`}}}
	from := queryir.Table{Name: "people"}

	tests := []struct {
		name string
		sel  *queryir.Select
		want string
	}{
		{
			"aggregate projection",
			&queryir.Select{From: from, Projections: []queryir.Node{avg}},
			`SELECT avg("people"."age") AS "avg_age" FROM "people"`,
		},
		{
			"upper case aggregate",
			&queryir.Select{From: from, Projections: []queryir.Node{queryir.NamedFunction{Name: "COUNT", Args: []queryir.Node{queryir.SQLLiteral{SQL: "*"}}}}},
			`SELECT COUNT(*) FROM "people"`,
		},
		{
			"having",
			&queryir.Select{From: from, Having: queryir.Comparison{Op: queryir.OpGt, Left: avg, Right: lit(1)}},
			`SELECT "people".* FROM "people" HAVING avg("people"."age") > ?`,
		},
		{
			"scalar function keeps the tiebreaker",
			&queryir.Select{From: from, Projections: []queryir.Node{lower}},
			`SELECT lower("people"."name") FROM "people" ORDER BY "people"."id" ASC`,
		},
		{
			"mixed projections keep the tiebreaker",
			&queryir.Select{From: from, Projections: []queryir.Node{col("people", "name"), avg}},
			`SELECT "people"."name", avg("people"."age") AS "avg_age" FROM "people" ORDER BY "people"."id" ASC`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := NewSQLCompiler().Compile(tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestCompile_BoundFragments(t *testing.T) {
	sel := &queryir.Select{
		From: queryir.Table{Name: "people"},
		Where: queryir.And{Children: []queryir.Node{
			queryir.Grouping{Expr: queryir.SQLLiteral{SQL: "name like ? OR nickname = ?", Args: []queryir.Node{lit("%bob%"), col("people", "name")}}},
			queryir.Comparison{Op: queryir.OpGt, Left: col("people", "age"), Right: lit(9.5)},
		}},
		OrderBy: []queryir.Ordering{{Expr: queryir.SQLLiteral{SQL: "name = '?' DESC"}}},
	}

	sql, params, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "people".* FROM "people"`+
		` WHERE (name like ? OR nickname = "people"."name") AND "people"."age" > ?`+
		` ORDER BY name = '?' DESC, "people"."id" ASC`, sql)
	assert.Equal(t, []any{"%bob%", 9.5}, params)
	assert.NotContains(t, sql, "bob")
}

func TestCompile_FragmentPlaceholderMismatch(t *testing.T) {
	tests := []struct {
		name string
		frag queryir.SQLLiteral
		want string
	}{
		{"unbound placeholder", queryir.SQLLiteral{SQL: "name like ?"}, "1 placeholder(s) but 0 bind value(s)"},
		{"extra value", queryir.SQLLiteral{SQL: "name = 'x'", Args: []queryir.Node{lit(1)}}, "0 placeholder(s) but 1 bind value(s)"},
		{"two placeholders one value", queryir.SQLLiteral{SQL: "a = ? AND b = ?", Args: []queryir.Node{lit(1)}}, "2 placeholder(s) but 1 bind value(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(&queryir.Select{
				From: queryir.Table{Name: "people"},
				Where: queryir.And{Children: []queryir.Node{
					queryir.Comparison{Op: queryir.OpEq, Left: col("people", "id"), Right: lit(1)},
					tt.frag,
				}},
			})
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(nil)
	assert.Error(t, err)

	_, _, err = c.Compile(&queryir.Select{})
	assert.Error(t, err)

	_, _, err = c.Compile(&queryir.Select{
		From:  queryir.Table{Name: "people"},
		Joins: []queryir.JoinClause{{Table: queryir.Table{Name: "articles"}}},
	})
	assert.ErrorContains(t, err, "missing ON")

	_, _, err = c.Compile(&queryir.Select{
		From:  queryir.Table{Name: "people"},
		Where: queryir.Comparison{Op: queryir.OpEq, Left: col("people", "tags"), Right: queryir.Lit(ir.IRArray{})},
	})
	assert.ErrorContains(t, err, "compile where")
}

func TestCompileNode(t *testing.T) {
	name := col("people", "name")
	age := col("people", "age")

	tests := []struct {
		name   string
		node   queryir.Node
		sql    string
		params []any
	}{
		{"attribute", name, `"people"."name"`, nil},
		{"unqualified", queryir.Attribute{Name: "name"}, `"name"`, nil},
		{"star", queryir.Attribute{Relation: "people", Name: "*"}, `"people".*`, nil},
		{"eq", queryir.Comparison{Op: queryir.OpEq, Left: name, Right: lit("bob")}, `"people"."name" = ?`, []any{"bob"}},
		{"not eq", queryir.Comparison{Op: queryir.OpNotEq, Left: name, Right: lit("bob")}, `"people"."name" != ?`, []any{"bob"}},
		{"lteq", queryir.Comparison{Op: queryir.OpLteq, Left: age, Right: lit(3)}, `"people"."age" <= ?`, []any{int64(3)}},
		{"not like", queryir.Matches{Expr: name, Pattern: lit("%a"), Negated: true}, `"people"."name" NOT LIKE ?`, []any{"%a"}},
		{"in", queryir.In{Expr: age, Values: []queryir.Node{lit(1), lit(2)}}, `"people"."age" IN (?, ?)`, []any{int64(1), int64(2)}},
		{"not in", queryir.In{Expr: age, Values: []queryir.Node{lit(1)}, Negated: true}, `"people"."age" NOT IN (?)`, []any{int64(1)}},
		{"empty in", queryir.In{Expr: age}, `1 = 0`, nil},
		{"empty not in", queryir.In{Expr: age, Negated: true}, `1 = 1`, nil},
		{"is null", queryir.IsNull{Expr: name}, `"people"."name" IS NULL`, nil},
		{"is not null", queryir.IsNull{Expr: name, Negated: true}, `"people"."name" IS NOT NULL`, nil},
		{"empty and", queryir.And{}, `1 = 1`, nil},
		{"empty or", queryir.Or{}, `1 = 0`, nil},
		{
			"and of or",
			queryir.And{Children: []queryir.Node{
				queryir.Comparison{Op: queryir.OpGt, Left: age, Right: lit(1)},
				queryir.Or{Children: []queryir.Node{
					queryir.Comparison{Op: queryir.OpEq, Left: name, Right: lit("a")},
					queryir.Comparison{Op: queryir.OpEq, Left: name, Right: lit("b")},
				}},
			}},
			`"people"."age" > ? AND ("people"."name" = ? OR "people"."name" = ?)`,
			[]any{int64(1), "a", "b"},
		},
		{"not", queryir.Not{Expr: queryir.IsNull{Expr: name}}, `NOT ("people"."name" IS NULL)`, nil},
		{"grouping", queryir.Grouping{Expr: name}, `("people"."name")`, nil},
		{
			"function",
			queryir.NamedFunction{Name: "max", Args: []queryir.Node{queryir.SQLLiteral{SQL: `"people"."id"`}}, Alias: "max_id"},
			`max("people"."id")`,
			nil,
		},
		{
			"infix",
			queryir.InfixOperation{Operator: "*", Left: queryir.InfixOperation{Operator: "+", Left: age, Right: lit(1)}, Right: lit(2)},
			`(("people"."age" + ?) * ?)`,
			[]any{int64(1), int64(2)},
		},
		{"null literal", queryir.Lit(ir.IRNull{}), `?`, []any{nil}},
		{"float literal", lit(9.99), `?`, []any{9.99}},
		{"quoted identifier", queryir.Attribute{Relation: `we"ird`, Name: "x"}, `"we""ird"."x"`, nil},
	}

	c := NewSQLCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := c.CompileNode(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompileNode_Unsupported(t *testing.T) {
	_, _, err := NewSQLCompiler().CompileNode(nil)
	assert.Error(t, err)
}

func TestCompile_LimitOffset(t *testing.T) {
	c := &SQLCompiler{}
	base := queryir.Table{Name: "people"}

	sql, _, err := c.Compile(&queryir.Select{From: base, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "people".* FROM "people" LIMIT 5`, sql)

	sql, _, err = c.Compile(&queryir.Select{From: base, Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "people".* FROM "people" LIMIT -1 OFFSET 3`, sql)
}

func TestCompile_AliasedJoin(t *testing.T) {
	sel := &queryir.Select{
		From:     queryir.Table{Name: "people"},
		Distinct: true,
		Joins: []queryir.JoinClause{{
			Type:  queryir.InnerJoin,
			Table: queryir.Table{Name: "people", Alias: "children_people"},
			On:    queryir.Comparison{Op: queryir.OpEq, Left: col("children_people", "parent_id"), Right: col("people", "id")},
		}},
		Where: queryir.Comparison{Op: queryir.OpEq, Left: col("children_people", "name"), Right: lit("bob")},
	}

	sql, params, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT DISTINCT "people".* FROM "people" INNER JOIN "people" "children_people" ON "children_people"."parent_id" = "people"."id" WHERE "children_people"."name" = ?`,
		sql)
	assert.Equal(t, []any{"bob"}, params)
}

func TestCompile_FullStatementGolden(t *testing.T) {
	articleID := queryir.SQLLiteral{SQL: `"articles"."id"`}
	sel := &queryir.Select{
		From: queryir.Table{Name: "people"},
		Projections: []queryir.Node{
			col("people", "name"),
			queryir.NamedFunction{Name: "count", Args: []queryir.Node{articleID}, Alias: "article_count"},
		},
		Joins: []queryir.JoinClause{{
			Type:  queryir.LeftOuterJoin,
			Table: queryir.Table{Name: "articles"},
			On:    queryir.Comparison{Op: queryir.OpEq, Left: col("articles", "person_id"), Right: col("people", "id")},
		}},
		Where: queryir.And{Children: []queryir.Node{
			queryir.Matches{Expr: col("people", "name"), Pattern: lit("%bob%")},
			queryir.Or{Children: []queryir.Node{
				queryir.Comparison{Op: queryir.OpGt, Left: col("people", "age"), Right: lit(30)},
				queryir.IsNull{Expr: col("people", "age")},
			}},
		}},
		GroupBy: []queryir.Node{col("people", "id"), col("people", "name")},
		Having: queryir.Comparison{
			Op:    queryir.OpGteq,
			Left:  queryir.NamedFunction{Name: "count", Args: []queryir.Node{articleID}},
			Right: lit(2),
		},
		OrderBy: []queryir.Ordering{{Expr: col("people", "name"), Direction: queryir.DirDesc}},
		Limit:   10,
		Offset:  5,
	}

	sql, params, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)
	assert.Equal(t, []any{"%bob%", int64(30), int64(2)}, params)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "full_statement", []byte(sql+"\n"+DebugSQL(sql, params)+"\n"))
}
