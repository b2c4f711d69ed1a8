package testutil

import (
	"github.com/BearerPipelineTest/meta-where/internal/schema"
)

// SampleSchema returns the people/articles/comments/notes schema used by
// join, relation and end-to-end tests. It matches the store's embedded
// sample fixture.
//
//	people   ── articles ── comments ── author (people)
//	   │  └─ children (people)   └─ notes (as notable)
//	   └─ notes (as notable)
//	notes.notable → Person | Article (polymorphic)
func SampleSchema() *schema.Registry {
	people := schema.NewTable("people", "Person", "id", "parent_id", "name", "nickname", "age").
		Associate(schema.Association{Name: "articles", Kind: schema.HasMany, Target: "articles", ForeignKey: "person_id"}).
		Associate(schema.Association{Name: "comments", Kind: schema.HasMany, Target: "comments", ForeignKey: "person_id"}).
		Associate(schema.Association{Name: "children", Kind: schema.HasMany, Target: "people", ForeignKey: "parent_id"}).
		Associate(schema.Association{Name: "parent", Kind: schema.BelongsTo, Target: "people", ForeignKey: "parent_id"}).
		Associate(schema.Association{Name: "notes", Kind: schema.HasMany, Target: "notes", As: "notable"})

	articles := schema.NewTable("articles", "Article", "id", "person_id", "title", "body").
		Associate(schema.Association{Name: "person", Kind: schema.BelongsTo, Target: "people"}).
		HasMany("comments", "comments").
		Associate(schema.Association{Name: "notes", Kind: schema.HasMany, Target: "notes", As: "notable"})

	comments := schema.NewTable("comments", "Comment", "id", "article_id", "person_id", "body").
		BelongsTo("article", "articles").
		Associate(schema.Association{Name: "author", Kind: schema.BelongsTo, Target: "people", ForeignKey: "person_id"})

	notes := schema.NewTable("notes", "Note", "id", "notable_id", "notable_type", "note").
		Associate(schema.Association{Name: "notable", Kind: schema.BelongsTo, Polymorphic: true})

	reg := schema.NewRegistry()
	if err := reg.Add(people, articles, comments, notes); err != nil {
		panic(err)
	}
	return reg
}
