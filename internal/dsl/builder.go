package dsl

import (
	"fmt"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
)

// Builder is the handle passed to a Build block. Operations that can fail
// record the first error and return nil; later operations become no-ops
// and Build reports that error. This keeps blocks free of error checks:
//
//	tree, err := dsl.Build(func(b *dsl.Builder) any {
//		return b.List(
//			b.Attr("name").Matches("%bob%"),
//			b.Map("articles", b.Attr("title").Eq("Hello")),
//			b.Or(b.Attr("age").Gt(30), b.Attr("age").Eq(nil)),
//		)
//	})
type Builder struct {
	err error
}

// Build runs block and returns the tree it produced, or the first error
// recorded on the builder.
func Build(block func(b *Builder) any) (any, error) {
	b := &Builder{}
	tree := block(b)
	if b.err != nil {
		return nil, b.err
	}
	return tree, nil
}

// Err returns the first recorded error.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Attr returns a stub for an attribute or association name.
func (b *Builder) Attr(name string) nodes.Stub { return nodes.Stub(name) }

// Path returns the key path names[0].names[1]...; a single name is not a
// path and fails.
func (b *Builder) Path(names ...string) *nodes.KeyPath {
	if b.err != nil {
		return nil
	}
	if len(names) < 2 {
		b.fail(fmt.Errorf("key path needs at least two names, got %d", len(names)))
		return nil
	}
	return nodes.NewKeyPath(names[0], names[1], names[2:]...)
}

// Abs returns a key path that resolves from the root context.
func (b *Builder) Abs(names ...string) *nodes.KeyPath {
	k := b.Path(names...)
	if k == nil {
		return nil
	}
	return k.MarkAbsolute()
}

// Step unwraps the result of a fallible KeyPath operation:
//
//	b.Step(b.Path("articles", "title").Eq("x"))
func (b *Builder) Step(k *nodes.KeyPath, err error) *nodes.KeyPath {
	if err != nil {
		b.fail(err)
		return nil
	}
	return k
}

// Pred builds a predicate from a vocabulary name or alias, e.g.
// Pred(b.Attr("name"), "like_any", []string{"%a%", "%b%"}).
func (b *Builder) Pred(expr any, name string, value ...any) nodes.Node {
	if b.err != nil {
		return nil
	}
	kind, err := nodes.ParsePredicateKind(name)
	if err != nil {
		b.fail(err)
		return nil
	}
	if k, ok := expr.(*nodes.KeyPath); ok {
		if k = b.Step(k.Predicate(kind, value...)); k == nil {
			return nil
		}
		return k
	}
	p, err := nodes.NewPredicate(expr, kind, value...)
	if err != nil {
		b.fail(err)
		return nil
	}
	return p
}

// Func builds name(args...).
func (b *Builder) Func(name string, args ...any) *nodes.Function {
	return nodes.NewFunction(name, args...)
}

// And conjoins its arguments. One argument is returned unchanged.
func (b *Builder) And(children ...nodes.Node) nodes.Node {
	if b.err != nil {
		return nil
	}
	switch len(children) {
	case 0:
		b.fail(fmt.Errorf("and needs at least one condition"))
		return nil
	case 1:
		if err := b.boolean("and", children[0]); err != nil {
			return nil
		}
		return children[0]
	}
	a, err := nodes.AllOf(children...)
	if err != nil {
		b.fail(err)
		return nil
	}
	return a
}

// Or disjoins its arguments, folding left: Or(a, b, c) is (a | b) | c.
func (b *Builder) Or(children ...nodes.Node) nodes.Node {
	if b.err != nil {
		return nil
	}
	if len(children) == 0 {
		b.fail(fmt.Errorf("or needs at least one condition"))
		return nil
	}
	acc := children[0]
	if err := b.boolean("or", acc); err != nil {
		return nil
	}
	for _, c := range children[1:] {
		o, err := nodes.NewOr(acc, c)
		if err != nil {
			b.fail(err)
			return nil
		}
		acc = o
	}
	return acc
}

// Not negates expr.
func (b *Builder) Not(expr nodes.Node) nodes.Node {
	if b.err != nil {
		return nil
	}
	n, err := nodes.NewNot(expr)
	if err != nil {
		b.fail(err)
		return nil
	}
	return n
}

// Subtract builds left AND NOT right.
func (b *Builder) Subtract(left, right nodes.Node) nodes.Node {
	if b.err != nil {
		return nil
	}
	n, err := nodes.Subtract(left, right)
	if err != nil {
		b.fail(err)
		return nil
	}
	return n
}

func (b *Builder) boolean(op string, n nodes.Node) error {
	if !nodes.Capabilities(n).Has(nodes.CapBoolean) {
		err := &nodes.CapabilityError{Op: op, Node: n, Want: nodes.CapBoolean}
		b.fail(err)
		return err
	}
	return nil
}

// Map builds an ordered mapping from alternating keys and values. Keys
// scope their values: Map("articles", b.Attr("title").Eq("x")).
func (b *Builder) Map(pairs ...any) nodes.Map {
	if b.err != nil {
		return nil
	}
	m, err := nodes.MapOf(pairs...)
	if err != nil {
		b.fail(err)
		return nil
	}
	return m
}

// List groups trees into a sequence.
func (b *Builder) List(items ...any) []any {
	return items
}
