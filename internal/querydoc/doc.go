// Package querydoc decodes declarative query documents (from YAML, CUE or
// plain Go maps) into the expression trees the compiler consumes.
//
// Keys follow a small grammar: dotted key paths (articles.title), a
// leading ~ for paths resolved from the root, name(Class) for
// polymorphic targets, name:outer / name:inner for join types, and a
// trailing predicate name (age.gt) for predicate keys. See Decode for
// the clause shapes.
package querydoc
