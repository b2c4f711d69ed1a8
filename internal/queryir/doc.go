// Package queryir provides the backend query AST that compiled expression
// trees are emitted into.
//
// QueryIR is the boundary between the expression layer and text
// generation. The visitor package produces queryir nodes; the querysql
// package renders them to parameterised SQL. Nothing in this package
// knows about associations, contexts or key paths: every column here is
// already qualified by the alias the join graph assigned.
//
// ARCHITECTURE:
//
//	[nodes tree] → [visitor] → [Query IR] → [SQL renderer]
//
// NODE SET:
//
//   - Attribute(relation, name) - qualified column reference
//   - Literal(value) - bound parameter (ir.IRValue)
//   - SQLLiteral(sql, args) - raw fragment emitted verbatim, args bound to its ? marks
//   - NamedFunction(name, args, alias) and InfixOperation
//   - Comparison, Matches, In, IsNull - leaf conditions
//   - And, Or, Not, Grouping - logical structure
//
// Statements are described by Select, which carries JoinClause and
// Ordering entries. Those are not Nodes: they can only appear in their
// clause position.
//
// SEALED INTERFACES:
//
// Node is sealed using the marker method pattern. This enables exhaustive
// type switches in renderers:
//
//	switch n := node.(type) {
//	case queryir.Attribute:
//	    // Handle column
//	case queryir.Comparison:
//	    // Handle comparison
//	default:
//	    // Impossible - compiler knows all Node types
//	}
//
// PORTABILITY:
//
// Validate reports constructs that render but are fragile: raw SQL
// fragments, comparisons against NULL, empty IN lists, and unqualified
// columns in statements with joins.
package queryir
