package nodes

import (
	"errors"
	"strings"
)

// KeyPath is an association path ending in an endpoint node, e.g.
// comments.author.name or ~articles.title.
//
// A KeyPath starts Extendable: its endpoint is a Stub and Get moves that
// stub into the path and takes a new one. Once an endpoint operation
// (predicate, function, order, join annotation) replaces the stub, the
// path is Fixed and Get fails. Endpoint operations mutate the KeyPath in
// place and return the same handle.
type KeyPath struct {
	path     []string
	endpoint Node
	absolute bool
}

func (*KeyPath) node() {}

// NewKeyPath builds first.second[.rest...]. The last name becomes the
// Stub endpoint; the others form the path.
func NewKeyPath(first, second string, rest ...string) *KeyPath {
	names := append([]string{first, second}, rest...)
	last := len(names) - 1
	return &KeyPath{path: names[:last:last], endpoint: Stub(names[last])}
}

// KeyPathTo builds a key path with an explicit endpoint.
func KeyPathTo(path []string, endpoint Node) (*KeyPath, error) {
	if len(path) == 0 {
		return nil, errors.New("key path needs at least one association")
	}
	switch endpoint.(type) {
	case nil:
		return nil, errors.New("key path needs an endpoint")
	case *KeyPath:
		return nil, errors.New("key path endpoint cannot be another key path")
	}
	return &KeyPath{path: append([]string(nil), path...), endpoint: endpoint}, nil
}

// Path returns a copy of the association names leading to the endpoint.
func (k *KeyPath) Path() []string {
	return append([]string(nil), k.path...)
}

// Endpoint returns the terminal node.
func (k *KeyPath) Endpoint() Node { return k.endpoint }

// IsAbsolute reports whether the path resolves from the root context.
func (k *KeyPath) IsAbsolute() bool { return k.absolute }

// MarkAbsolute makes the path resolve from the root context regardless of
// where it appears in the tree.
func (k *KeyPath) MarkAbsolute() *KeyPath {
	k.absolute = true
	return k
}

// Extendable reports whether Get may still grow the path.
func (k *KeyPath) Extendable() bool {
	_, ok := k.endpoint.(Stub)
	return ok
}

// Segments returns the path as stubs followed by the endpoint.
func (k *KeyPath) Segments() []Node {
	out := make([]Node, 0, len(k.path)+1)
	for _, p := range k.path {
		out = append(out, Stub(p))
	}
	return append(out, k.endpoint)
}

// Get appends names to the path. The current stub endpoint joins the path
// and the last name becomes the new endpoint.
func (k *KeyPath) Get(names ...string) (*KeyPath, error) {
	for _, name := range names {
		stub, ok := k.endpoint.(Stub)
		if !ok {
			return nil, &CapabilityError{Op: "get", Node: k, Want: CapExtendable}
		}
		k.path = append(k.path, string(stub))
		k.endpoint = Stub(name)
	}
	return k, nil
}

// Predicate replaces the endpoint with a predicate of the given kind.
func (k *KeyPath) Predicate(kind PredicateKind, value ...any) (*KeyPath, error) {
	if err := require(string(kind), k, CapComparable); err != nil {
		return nil, err
	}
	p, err := NewPredicate(k.endpoint, kind, value...)
	if err != nil {
		return nil, err
	}
	k.endpoint = p
	return k, nil
}

// Eq fixes the endpoint as endpoint = v.
func (k *KeyPath) Eq(v any) (*KeyPath, error) { return k.Predicate(Eq, v) }

// NotEq fixes the endpoint as endpoint != v.
func (k *KeyPath) NotEq(v any) (*KeyPath, error) { return k.Predicate(NotEq, v) }

// Matches fixes the endpoint as endpoint LIKE v.
func (k *KeyPath) Matches(v any) (*KeyPath, error) { return k.Predicate(Matches, v) }

// DoesNotMatch fixes the endpoint as endpoint NOT LIKE v.
func (k *KeyPath) DoesNotMatch(v any) (*KeyPath, error) { return k.Predicate(DoesNotMatch, v) }

// Lt fixes the endpoint as endpoint < v.
func (k *KeyPath) Lt(v any) (*KeyPath, error) { return k.Predicate(Lt, v) }

// Lteq fixes the endpoint as endpoint <= v.
func (k *KeyPath) Lteq(v any) (*KeyPath, error) { return k.Predicate(Lteq, v) }

// Gt fixes the endpoint as endpoint > v.
func (k *KeyPath) Gt(v any) (*KeyPath, error) { return k.Predicate(Gt, v) }

// Gteq fixes the endpoint as endpoint >= v.
func (k *KeyPath) Gteq(v any) (*KeyPath, error) { return k.Predicate(Gteq, v) }

// In fixes the endpoint as endpoint IN v.
func (k *KeyPath) In(v any) (*KeyPath, error) { return k.Predicate(In, v) }

// NotIn fixes the endpoint as endpoint NOT IN v.
func (k *KeyPath) NotIn(v any) (*KeyPath, error) { return k.Predicate(NotIn, v) }

// Func turns the stub endpoint into a function call.
func (k *KeyPath) Func(args ...any) (*KeyPath, error) {
	stub, ok := k.endpoint.(Stub)
	if !ok {
		return nil, &CapabilityError{Op: "func", Node: k, Want: CapCallable}
	}
	k.endpoint = stub.Func(args...)
	return k, nil
}

// Add replaces the endpoint with endpoint + v.
func (k *KeyPath) Add(v any) (*KeyPath, error) { return k.arith("+", v) }

// Sub replaces the endpoint with endpoint - v.
func (k *KeyPath) Sub(v any) (*KeyPath, error) { return k.arith("-", v) }

// Mul replaces the endpoint with endpoint * v.
func (k *KeyPath) Mul(v any) (*KeyPath, error) { return k.arith("*", v) }

// Div replaces the endpoint with endpoint / v.
func (k *KeyPath) Div(v any) (*KeyPath, error) { return k.arith("/", v) }

func (k *KeyPath) arith(op string, v any) (*KeyPath, error) {
	if err := require(op, k, CapArithmetic); err != nil {
		return nil, err
	}
	k.endpoint = NewOperation(k.endpoint, op, v)
	return k, nil
}

// Asc replaces the endpoint with an ascending order.
func (k *KeyPath) Asc() (*KeyPath, error) { return k.order(Ascending) }

// Desc replaces the endpoint with a descending order.
func (k *KeyPath) Desc() (*KeyPath, error) { return k.order(Descending) }

func (k *KeyPath) order(d Direction) (*KeyPath, error) {
	if err := require(d.String(), k, CapOrderable); err != nil {
		return nil, err
	}
	k.endpoint = &Order{Expr: k.endpoint, Direction: d}
	return k, nil
}

// Inner marks the stub endpoint as an inner-joined association.
func (k *KeyPath) Inner() (*KeyPath, error) { return k.join(InnerJoin, "", "inner") }

// Outer marks the stub endpoint as an outer-joined association.
func (k *KeyPath) Outer() (*KeyPath, error) { return k.join(OuterJoin, "", "outer") }

// Of targets the stub endpoint's polymorphic association at class.
func (k *KeyPath) Of(class string) (*KeyPath, error) { return k.join(InnerJoin, class, "of") }

func (k *KeyPath) join(typ JoinType, class, op string) (*KeyPath, error) {
	stub, ok := k.endpoint.(Stub)
	if !ok {
		return nil, &CapabilityError{Op: op, Node: k, Want: CapJoinable}
	}
	k.endpoint = NewJoin(string(stub), typ, class)
	return k, nil
}

// As sets the display alias on a function or operation endpoint.
func (k *KeyPath) As(alias string) (*KeyPath, error) {
	switch e := k.endpoint.(type) {
	case *Function:
		e.As(alias)
	case *Operation:
		e.As(alias)
	default:
		return nil, &CapabilityError{Op: "as", Node: k, Want: CapCallable}
	}
	return k, nil
}

func (k *KeyPath) String() string {
	var b strings.Builder
	if k.absolute {
		b.WriteByte('~')
	}
	for _, p := range k.path {
		b.WriteString(p)
		b.WriteByte('.')
	}
	if s, ok := k.endpoint.(interface{ String() string }); ok {
		b.WriteString(s.String())
	}
	return b.String()
}
