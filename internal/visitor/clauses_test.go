package visitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/nodes"
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
)

func TestSelectFlattensSequences(t *testing.T) {
	tree := []any{
		nodes.Stub("id"),
		[]any{
			nodes.Stub("name"),
			mustMap(t, "articles", []any{nodes.Stub("title")}),
		},
		"count(*) AS total",
	}

	got, err := CompileSelect(tree, root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Node{
		attr("people", "id"),
		attr("people", "name"),
		attr("articles", "title"),
		queryir.SQLLiteral{SQL: "count(*) AS total"},
	}, got)
}

func TestFunctionArguments(t *testing.T) {
	inner := nodes.Stub("lower").Func(nodes.Stub("name"))
	fn := nodes.Stub("coalesce").Func(inner, nodes.NewKeyPath("articles", "title"), "anon", 3)

	got, err := CompileSelect(fn, root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Node{queryir.NamedFunction{
		Name: "coalesce",
		Args: []queryir.Node{
			queryir.NamedFunction{Name: "lower", Args: []queryir.Node{queryir.SQLLiteral{SQL: `"people"."name"`}}},
			queryir.SQLLiteral{SQL: `"articles"."title"`},
			str("anon"),
			num(3),
		},
	}}, got)
}

func TestFunctionUnderScope(t *testing.T) {
	tree := mustMap(t, "articles", nodes.Stub("count").Func(nodes.Stub("id")).As("article_count"))

	got, err := CompileSelect(tree, root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Node{queryir.NamedFunction{
		Name:  "count",
		Args:  []queryir.Node{queryir.SQLLiteral{SQL: `"articles"."id"`}},
		Alias: "article_count",
	}}, got)
}

func TestCustomQuoter(t *testing.T) {
	c := New(Options{Quoter: func(a queryir.Attribute) string { return a.Relation + "." + a.Name }})
	got, err := c.CompileSelect(nodes.Stub("max").Func(nodes.Stub("id")), root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Node{queryir.NamedFunction{
		Name: "max",
		Args: []queryir.Node{queryir.SQLLiteral{SQL: "people.id"}},
	}}, got)
}

func TestOperations(t *testing.T) {
	op := nodes.Stub("age").Add(1).Mul(nodes.Stub("weight")).As("score")

	projections, err := CompileSelect(op, root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Node{queryir.InfixOperation{
		Operator: "*",
		Left:     queryir.InfixOperation{Operator: "+", Left: attr("people", "age"), Right: num(1)},
		Right:    attr("people", "weight"),
		Alias:    "score",
	}}, projections)

	cond, err := CompileFilter(nodes.Stub("age").Sub(2).Gt(30), root())
	require.NoError(t, err)
	assert.Equal(t, queryir.Comparison{
		Op:    queryir.OpGt,
		Left:  queryir.InfixOperation{Operator: "-", Left: attr("people", "age"), Right: num(2)},
		Right: num(30),
	}, cond)
}

func TestCompileOrder(t *testing.T) {
	desc, err := nodes.NewKeyPath("articles", "title").Desc()
	require.NoError(t, err)

	tree := []any{
		nodes.Stub("name").Desc(),
		nodes.Stub("id"),
		"created_at DESC",
		desc,
		nodes.Stub("length").Func(nodes.Stub("name")).Asc(),
	}

	got, err := CompileOrder(tree, root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Ordering{
		{Expr: attr("people", "name"), Direction: queryir.DirDesc},
		{Expr: attr("people", "id"), Direction: queryir.DirAsc},
		{Expr: queryir.SQLLiteral{SQL: "created_at DESC"}, Direction: queryir.DirDefault},
		{Expr: attr("articles", "title"), Direction: queryir.DirDesc},
		{Expr: queryir.NamedFunction{Name: "length", Args: []queryir.Node{queryir.SQLLiteral{SQL: `"people"."name"`}}}, Direction: queryir.DirAsc},
	}, got)
}

func TestCompileOrderShorthand(t *testing.T) {
	tree := mustMap(t,
		"name", "desc",
		"articles", mustMap(t, "title", "ASC"),
	)

	got, err := CompileOrder(tree, root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Ordering{
		{Expr: attr("people", "name"), Direction: queryir.DirDesc},
		{Expr: attr("articles", "title"), Direction: queryir.DirAsc},
	}, got)
}

func TestCompileGroup(t *testing.T) {
	tree := []any{nodes.Stub("id"), mustMap(t, "articles", []any{nodes.Stub("id")})}

	got, err := CompileGroup(tree, root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Node{attr("people", "id"), attr("articles", "id")}, got)

	_, err = CompileGroup(nodes.Stub("id").Eq(1), root())
	assert.True(t, IsTreeError(err))
}

func TestLiteralEntryOutsideFilter(t *testing.T) {
	tree := mustMap(t, "name", "upper(name)")

	_, err := CompileSelect(tree, root())
	require.Error(t, err)
	assert.True(t, IsTreeError(err))
	assert.Contains(t, err.Error(), "literal mapping entry has no meaning here")

	_, err = CompileGroup(tree, root())
	assert.True(t, IsTreeError(err))

	cond, err := CompileFilter(tree, root())
	require.NoError(t, err)
	assert.Equal(t, eq(attr("people", "name"), str("upper(name)")), cond)
}

func TestSelectAllowsConditions(t *testing.T) {
	got, err := CompileSelect(nodes.Stub("age").Gt(18), root())
	require.NoError(t, err)
	assert.Equal(t, []queryir.Node{queryir.Comparison{Op: queryir.OpGt, Left: attr("people", "age"), Right: num(18)}}, got)
}

func complexTree(t *testing.T) any {
	t.Helper()
	abs, err := nodes.NewKeyPath("children", "name").MarkAbsolute().Matches("%a%")
	require.NoError(t, err)
	anyTitle, err := nodes.NewKeyPath("articles", "title").Predicate(nodes.MatchesAny, []string{"%x%", "%y%"})
	require.NoError(t, err)
	return []any{
		mustMap(t,
			"name", []string{"bob", "joe"},
			"articles", mustMap(t, "comments", []any{nodes.Stub("body").NotEq("spam"), abs}),
		),
		anyTitle,
		nodes.Stub("age").Add(1).Gteq(21),
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	tree := complexTree(t)

	first, err := CompileFilter(tree, root())
	require.NoError(t, err)
	second, err := CompileFilter(tree, root())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fa, err := ir.Fingerprint(ir.DomainAST, queryir.Encode(first))
	require.NoError(t, err)
	fb, err := ir.Fingerprint(ir.DomainAST, queryir.Encode(second))
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestConcurrentCompilePasses(t *testing.T) {
	tree := complexTree(t)
	ctx := root()

	want, err := CompileFilter(tree, ctx)
	require.NoError(t, err)
	wantOrder, err := CompileOrder([]any{nodes.Stub("name").Desc()}, ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	filters := make([]queryir.Node, 20)
	orders := make([][]queryir.Ordering, 20)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			filters[i], _ = CompileFilter(tree, ctx)
		}(i)
		go func(i int) {
			defer wg.Done()
			orders[i], _ = CompileOrder([]any{nodes.Stub("name").Desc()}, ctx)
		}(i)
	}
	wg.Wait()

	for i := range filters {
		assert.Equal(t, want, filters[i])
		assert.Equal(t, wantOrder, orders[i])
	}
}
