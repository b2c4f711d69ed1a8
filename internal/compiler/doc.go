// Package compiler turns CUE sources into a schema registry and named
// query documents, and validates queries against the schema.
//
// A source declares tables and queries side by side:
//
//	table: people: {
//		class:   "Person"
//		columns: ["id", "name", "age"]
//		associations: articles: {kind: "has_many", target: "articles", foreign_key: "person_id"}
//	}
//	query: adults: {
//		table: "people"
//		where: {"age.gte": 18}
//	}
//
// CUE's Go API is used directly; no cue subprocess is involved.
package compiler
