// Package dsl is the caller-facing surface for building expression trees.
//
// Most of the algebra lives on the node types themselves (Stub.Eq,
// KeyPath.Get, Function.As). This package adds a Builder that collects
// the first construction error, so a whole tree can be written as one
// expression and checked once:
//
//	tree, err := dsl.Build(func(b *dsl.Builder) any {
//		return b.Map("children", b.Map("name", "bob"))
//	})
//
// The tree is handed to visitor.CompileFilter (or one of the other
// clause compilers) together with a root scope.
package dsl
