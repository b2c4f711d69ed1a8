// Package joins builds the join tree of a query from association names.
//
// The tree is built once, before compilation, from the same key shapes
// the visitor scopes by (names, join annotations, key paths and nested
// maps). Each part gets a table alias and an ON condition derived from
// the schema registry:
//
//	d, _ := joins.New(reg, "people")
//	d.Add([]any{"articles", nodes.Map{{Key: "articles", Value: "comments"}}})
//	ctx := scope.Root(d.Root())
//	sel.Joins = d.Clauses()
//
// A Dependency is not safe for concurrent Add calls. Once built, its
// parts are read-only and may back any number of compile passes.
package joins
