// Package schema is the association registry: tables, their columns,
// and the named associations between them.
//
// The join builder (package joins) asks the registry how to follow an
// association from one table to the next:
//
//	reg := schema.NewRegistry()
//	reg.Add(
//		schema.NewTable("people", "Person", "id", "name").
//			HasMany("articles", "articles"),
//		schema.NewTable("articles", "Article", "id", "person_id", "title"),
//	)
//	assoc, target, err := reg.Resolve(people, "articles", "")
//
// Polymorphic belongs_to associations have no fixed target; the caller
// supplies a class hint and the registry resolves it to a table.
package schema
