package nodes

// Stub is a bare name: an attribute, an association or a function name,
// depending on where it appears in the tree.
type Stub string

func (Stub) node() {}

// Name returns the symbolic name.
func (s Stub) Name() string { return string(s) }

func (s Stub) String() string { return string(s) }

func (s Stub) predications() Predications { return Predications{self: s} }

// Predicate builds any of the 30 predicate kinds against s.
func (s Stub) Predicate(kind PredicateKind, value ...any) (*Predicate, error) {
	return s.predications().Predicate(kind, value...)
}

// Eq builds s = v.
func (s Stub) Eq(v any) *Predicate { return s.predications().Eq(v) }

// NotEq builds s != v.
func (s Stub) NotEq(v any) *Predicate { return s.predications().NotEq(v) }

// Matches builds s LIKE v.
func (s Stub) Matches(v any) *Predicate { return s.predications().Matches(v) }

// DoesNotMatch builds s NOT LIKE v.
func (s Stub) DoesNotMatch(v any) *Predicate { return s.predications().DoesNotMatch(v) }

// Lt builds s < v.
func (s Stub) Lt(v any) *Predicate { return s.predications().Lt(v) }

// Lteq builds s <= v.
func (s Stub) Lteq(v any) *Predicate { return s.predications().Lteq(v) }

// Gt builds s > v.
func (s Stub) Gt(v any) *Predicate { return s.predications().Gt(v) }

// Gteq builds s >= v.
func (s Stub) Gteq(v any) *Predicate { return s.predications().Gteq(v) }

// In builds s IN v.
func (s Stub) In(v any) *Predicate { return s.predications().In(v) }

// NotIn builds s NOT IN v.
func (s Stub) NotIn(v any) *Predicate { return s.predications().NotIn(v) }

// Add builds s + v.
func (s Stub) Add(v any) *Operation { return NewOperation(s, "+", v) }

// Sub builds s - v.
func (s Stub) Sub(v any) *Operation { return NewOperation(s, "-", v) }

// Mul builds s * v.
func (s Stub) Mul(v any) *Operation { return NewOperation(s, "*", v) }

// Div builds s / v.
func (s Stub) Div(v any) *Operation { return NewOperation(s, "/", v) }

// Asc orders by s ascending.
func (s Stub) Asc() *Order { return &Order{Expr: s, Direction: Ascending} }

// Desc orders by s descending.
func (s Stub) Desc() *Order { return &Order{Expr: s, Direction: Descending} }

// Inner marks the association s as an inner join.
func (s Stub) Inner() *Join { return NewJoin(string(s), InnerJoin, "") }

// Outer marks the association s as a left outer join.
func (s Stub) Outer() *Join { return NewJoin(string(s), OuterJoin, "") }

// Of targets the polymorphic association s at class.
func (s Stub) Of(class string) *Join { return NewJoin(string(s), InnerJoin, class) }

// Func turns s into a function call with the given arguments.
func (s Stub) Func(args ...any) *Function { return NewFunction(string(s), args...) }

// Get starts a key path with s as the first association.
func (s Stub) Get(name string) *KeyPath { return NewKeyPath(string(s), name) }
