// Package visitor compiles expression trees into backend AST nodes.
//
// The visitor walks three shapes: ordered mappings (nodes.Map or
// map[string]any), sequences, and expression nodes. It tracks a
// scope.Context while it walks. A mapping entry whose value is a mapping,
// a compilable node, or a non-empty sequence of compilable nodes changes
// context: the key names an association and the value is compiled under
// the child context. Any other entry is literal data and is handed to the
// clause's expander (equality shorthand for filters).
//
//	tree := nodes.Map{
//		{Key: "articles", Value: nodes.Map{{Key: "title", Value: "Hello"}}},
//		{Key: nodes.Stub("name").Matches(nil), Value: "%bob%"},
//	}
//	cond, err := visitor.CompileFilter(tree, scope.Root(graph))
//
// CLAUSES:
//
// The same walker serves four clause kinds:
//
//	filter  WHERE / HAVING conditions, combined with AND
//	select  projection list; functions keep their aliases
//	order   ORDER BY entries; bare columns sort ascending
//	group   GROUP BY expressions
//
// STRINGS:
//
// A plain string is a name when it is a mapping key or a predicate
// expression, literal data when it is a value or a function argument, and
// a raw SQL fragment when it stands alone in a sequence or at the top.
// Stubs are always names.
//
// Compilation is pure: no I/O, no shared mutable state. The join graph
// behind the context is only read. A pass either returns complete output
// or an error, never both.
package visitor
