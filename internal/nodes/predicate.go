package nodes

import (
	"fmt"
	"reflect"
	"strings"
)

// PredicateKind names one entry of the closed predicate vocabulary.
// The string value doubles as the uniform method name.
type PredicateKind string

// Base predicates and their _any / _all variants.
const (
	Eq    PredicateKind = "eq"
	EqAny PredicateKind = "eq_any"
	EqAll PredicateKind = "eq_all"

	NotEq    PredicateKind = "not_eq"
	NotEqAny PredicateKind = "not_eq_any"
	NotEqAll PredicateKind = "not_eq_all"

	Matches    PredicateKind = "matches"
	MatchesAny PredicateKind = "matches_any"
	MatchesAll PredicateKind = "matches_all"

	DoesNotMatch    PredicateKind = "does_not_match"
	DoesNotMatchAny PredicateKind = "does_not_match_any"
	DoesNotMatchAll PredicateKind = "does_not_match_all"

	Lt    PredicateKind = "lt"
	LtAny PredicateKind = "lt_any"
	LtAll PredicateKind = "lt_all"

	Lteq    PredicateKind = "lteq"
	LteqAny PredicateKind = "lteq_any"
	LteqAll PredicateKind = "lteq_all"

	Gt    PredicateKind = "gt"
	GtAny PredicateKind = "gt_any"
	GtAll PredicateKind = "gt_all"

	Gteq    PredicateKind = "gteq"
	GteqAny PredicateKind = "gteq_any"
	GteqAll PredicateKind = "gteq_all"

	In    PredicateKind = "in"
	InAny PredicateKind = "in_any"
	InAll PredicateKind = "in_all"

	NotIn    PredicateKind = "not_in"
	NotInAny PredicateKind = "not_in_any"
	NotInAll PredicateKind = "not_in_all"
)

// Quantifier tells how a predicate applies to its value.
type Quantifier int

const (
	// QuantOne compares against a single value.
	QuantOne Quantifier = iota
	// QuantAny holds if the base predicate holds for any value (OR).
	QuantAny
	// QuantAll holds if the base predicate holds for all values (AND).
	QuantAll
)

var baseKinds = []PredicateKind{Eq, NotEq, Matches, DoesNotMatch, Lt, Lteq, Gt, Gteq, In, NotIn}

// aliases is the canonical alias table. Each alias also accepts the _any
// and _all suffixes.
var aliases = map[string]PredicateKind{
	"like":     Matches,
	"not_like": DoesNotMatch,
	"lte":      Lteq,
	"gte":      Gteq,
}

var vocabulary = func() map[PredicateKind]bool {
	m := make(map[PredicateKind]bool, len(baseKinds)*3)
	for _, k := range baseKinds {
		m[k] = true
		m[k+"_any"] = true
		m[k+"_all"] = true
	}
	return m
}()

// Kinds returns all 30 predicate kinds in vocabulary order.
func Kinds() []PredicateKind {
	kinds := make([]PredicateKind, 0, len(vocabulary))
	for _, k := range baseKinds {
		kinds = append(kinds, k, k+"_any", k+"_all")
	}
	return kinds
}

// Aliases returns a copy of the alias table (alias → base kind).
func Aliases() map[string]PredicateKind {
	out := make(map[string]PredicateKind, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}

// Valid reports whether k is in the vocabulary.
func (k PredicateKind) Valid() bool {
	return vocabulary[k]
}

// Quantifier returns the arity variant of k.
func (k PredicateKind) Quantifier() Quantifier {
	switch {
	case strings.HasSuffix(string(k), "_any"):
		return QuantAny
	case strings.HasSuffix(string(k), "_all"):
		return QuantAll
	default:
		return QuantOne
	}
}

// Base returns the singular kind, e.g. EqAny.Base() == Eq.
func (k PredicateKind) Base() PredicateKind {
	s := string(k)
	s = strings.TrimSuffix(s, "_any")
	s = strings.TrimSuffix(s, "_all")
	return PredicateKind(s)
}

// ParsePredicateKind resolves a predicate method name, including aliases
// and their suffixed forms ("like_any" → MatchesAny).
func ParsePredicateKind(name string) (PredicateKind, error) {
	if k := PredicateKind(name); k.Valid() {
		return k, nil
	}
	for _, suffix := range []string{"", "_any", "_all"} {
		base, ok := strings.CutSuffix(name, suffix)
		if !ok {
			continue
		}
		if k, ok := aliases[base]; ok {
			return k + PredicateKind(suffix), nil
		}
	}
	return "", &PredicateError{Name: name, Reason: "not in predicate vocabulary", err: ErrUnknownPredicate}
}

// Predicate is a typed comparison, membership or pattern test.
type Predicate struct {
	// Expr is the tested expression: Stub, *KeyPath, *Function,
	// *Operation or a literal.
	Expr any
	// Kind is the predicate method.
	Kind PredicateKind
	// Value is the comparison value (or collection for in / _any / _all).
	Value any

	hasValue bool
}

func (*Predicate) node() {}

// HasValue reports whether a value was supplied.
func (p *Predicate) HasValue() bool {
	return p.hasValue
}

// NewPredicate builds a predicate. At most one value may be given; the
// _any and _all kinds require that value to be a collection.
func NewPredicate(expr any, kind PredicateKind, value ...any) (*Predicate, error) {
	if !kind.Valid() {
		return nil, &PredicateError{Name: string(kind), Reason: "not in predicate vocabulary", err: ErrUnknownPredicate}
	}
	if len(value) > 1 {
		return nil, &PredicateError{
			Name:   string(kind),
			Reason: fmt.Sprintf("takes at most one value, got %d", len(value)),
			err:    ErrPredicateArity,
		}
	}
	p := &Predicate{Expr: expr, Kind: kind}
	if len(value) == 1 {
		if kind.Quantifier() != QuantOne && !isCollection(value[0]) {
			return nil, &PredicateError{
				Name:   string(kind),
				Reason: fmt.Sprintf("requires a collection value, got %T", value[0]),
				err:    ErrPredicateArity,
			}
		}
		p.Value = value[0]
		p.hasValue = true
	}
	return p, nil
}

// WithValue returns a copy of a valueless predicate bound to value.
// It backs the {attr.matches: "%bob%"} mapping shorthand.
func (p *Predicate) WithValue(value any) (*Predicate, error) {
	if p.hasValue {
		return nil, &PredicateError{Name: string(p.Kind), Reason: "already has a value", err: ErrPredicateArity}
	}
	return NewPredicate(p.Expr, p.Kind, value)
}

// Values returns the predicate value as a list. Collections are expanded;
// a scalar becomes a one-element list.
func (p *Predicate) Values() []any {
	return Collection(p.Value)
}

func (p *Predicate) String() string {
	if !p.hasValue {
		return fmt.Sprintf("%v.%s", p.Expr, p.Kind)
	}
	return fmt.Sprintf("%v.%s(%v)", p.Expr, p.Kind, p.Value)
}

// isCollection reports whether v is a slice or array (byte slices count as
// scalar data).
func isCollection(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// Collection expands a slice or array value into []any. Any other value
// is wrapped in a one-element list.
func Collection(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	if !isCollection(v) {
		return []any{v}
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// singular builds a predicate that cannot fail validation.
func singular(expr any, kind PredicateKind, value any) *Predicate {
	return &Predicate{Expr: expr, Kind: kind, Value: value, hasValue: true}
}

// Predications provides the operator methods shared by every comparable
// expression. Types embed it with self pointing at the outer node so the
// resulting predicates reference the right expression.
type Predications struct {
	self any
}

// Predicate is the uniform named-call path for all 30 kinds.
func (p Predications) Predicate(kind PredicateKind, value ...any) (*Predicate, error) {
	return NewPredicate(p.self, kind, value...)
}

// Eq builds an equality predicate.
func (p Predications) Eq(v any) *Predicate { return singular(p.self, Eq, v) }

// NotEq builds an inequality predicate.
func (p Predications) NotEq(v any) *Predicate { return singular(p.self, NotEq, v) }

// Matches builds a LIKE predicate.
func (p Predications) Matches(v any) *Predicate { return singular(p.self, Matches, v) }

// DoesNotMatch builds a NOT LIKE predicate.
func (p Predications) DoesNotMatch(v any) *Predicate { return singular(p.self, DoesNotMatch, v) }

// Lt builds a less-than predicate.
func (p Predications) Lt(v any) *Predicate { return singular(p.self, Lt, v) }

// Lteq builds a less-or-equal predicate.
func (p Predications) Lteq(v any) *Predicate { return singular(p.self, Lteq, v) }

// Gt builds a greater-than predicate.
func (p Predications) Gt(v any) *Predicate { return singular(p.self, Gt, v) }

// Gteq builds a greater-or-equal predicate.
func (p Predications) Gteq(v any) *Predicate { return singular(p.self, Gteq, v) }

// In builds a set-membership predicate.
func (p Predications) In(v any) *Predicate { return singular(p.self, In, v) }

// NotIn builds a set-exclusion predicate.
func (p Predications) NotIn(v any) *Predicate { return singular(p.self, NotIn, v) }

// Arithmetics provides the infix operation methods.
type Arithmetics struct {
	self any
}

// Add builds self + v.
func (a Arithmetics) Add(v any) *Operation { return NewOperation(a.self, "+", v) }

// Sub builds self - v.
func (a Arithmetics) Sub(v any) *Operation { return NewOperation(a.self, "-", v) }

// Mul builds self * v.
func (a Arithmetics) Mul(v any) *Operation { return NewOperation(a.self, "*", v) }

// Div builds self / v.
func (a Arithmetics) Div(v any) *Operation { return NewOperation(a.self, "/", v) }
