// Package nodes defines the expression tree that callers build to describe
// query filters, selections and orderings without writing SQL.
//
// ARCHITECTURE:
//
//	[caller / dsl] → [nodes tree] → [visitor + scope] → [queryir] → [querysql]
//
// The tree is backend independent. It names attributes and associations
// symbolically; the visitor package later resolves those names against a
// join graph and emits backend AST nodes.
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method. Only types in this package implement
// it, so the compiler's type switches are exhaustive:
//
//	switch n := node.(type) {
//	case Stub:        // bare attribute name
//	case *KeyPath:    // association path + endpoint
//	case *Predicate:  // comparison / membership / pattern test
//	case *Function:   // named SQL function
//	case *Operation:  // infix arithmetic
//	case *Join:       // join-type annotation
//	case *Order:      // ordering
//	case *And, *Or, *Not:
//	case *SQL:        // raw fragment with bound values
//	}
//
// CAPABILITIES:
//
// Go has no operator overloading, so every operator is a method or a
// constructor function. Which operators a node supports is declared by its
// Capability set (see Capabilities). Combinators check capabilities and
// fail with a *CapabilityError instead of probing for methods:
//
//	NewAnd(Stub("name").Eq("bob"), Stub("age").Gt(30))  // ok: both boolean
//	NewAnd(Stub("name"), Stub("age").Gt(30))            // CapabilityError
//
// PREDICATE VOCABULARY:
//
// Ten base comparisons (eq, not_eq, matches, does_not_match, lt, lteq, gt,
// gteq, in, not_in), each in three variants: singular, _any (OR over a
// collection) and _all (AND over a collection). The alias table
// (like, not_like, lte, gte) is resolved by ParsePredicateKind only.
//
// MUTABILITY:
//
// Nodes are immutable once built, with two builder exceptions: a KeyPath
// grows and fixes its endpoint in place, and Function.As sets the display
// alias. Both happen before the tree is handed to the compiler.
package nodes
