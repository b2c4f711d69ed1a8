// Package relation is the query builder tying the pieces together: a
// Relation collects join specs and clause trees, builds the join tree,
// compiles each clause in the context of that tree and renders the
// resulting statement.
//
//	rel := relation.New(reg, "people").
//		Joins("articles").
//		Where(nodes.Map{{Key: "articles", Value: nodes.Map{{Key: "title", Value: "Hello"}}}}).
//		Order(nodes.Stub("name").Desc())
//	sql, params, err := rel.ToSQL()
package relation
