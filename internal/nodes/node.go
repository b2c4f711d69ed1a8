package nodes

import (
	"errors"
	"fmt"
	"strings"
)

// Node is any expression tree node.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	node()
}

// Capability is the set of operators a node kind supports.
type Capability uint16

const (
	// CapBoolean nodes combine with And, Or, Not and Subtract.
	CapBoolean Capability = 1 << iota
	// CapExtendable nodes accept further path segments.
	CapExtendable
	// CapComparable nodes produce predicates.
	CapComparable
	// CapOrderable nodes produce Asc/Desc orders.
	CapOrderable
	// CapJoinable nodes produce inner/outer/polymorphic joins.
	CapJoinable
	// CapCallable nodes name a function.
	CapCallable
	// CapArithmetic nodes produce infix operations.
	CapArithmetic
)

var capabilityNames = []struct {
	c    Capability
	name string
}{
	{CapBoolean, "boolean"},
	{CapExtendable, "extendable"},
	{CapComparable, "comparable"},
	{CapOrderable, "orderable"},
	{CapJoinable, "joinable"},
	{CapCallable, "callable"},
	{CapArithmetic, "arithmetic"},
}

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, cn := range capabilityNames {
		if c&cn.c != 0 {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, "|")
}

const stubCapabilities = CapExtendable | CapComparable | CapOrderable | CapJoinable | CapCallable | CapArithmetic

// Capabilities returns the capability set of v. Values that are not nodes
// (plain strings, numbers, maps) have no capabilities. A KeyPath has the
// capabilities of its endpoint.
func Capabilities(v any) Capability {
	switch n := v.(type) {
	case Stub:
		return stubCapabilities
	case *KeyPath:
		if n == nil {
			return 0
		}
		return Capabilities(n.endpoint)
	case *Function, *Operation:
		return CapComparable | CapOrderable | CapArithmetic
	case *Predicate, *And, *Or, *Not, *SQL:
		return CapBoolean
	default:
		return 0
	}
}

// Errors returned when building trees. Use errors.Is to match them.
var (
	ErrNoCapability     = errors.New("no such capability")
	ErrUnknownPredicate = errors.New("unknown predicate")
	ErrPredicateArity   = errors.New("invalid predicate arity")
)

// CapabilityError reports an operator applied to a node that lacks the
// capability for it.
type CapabilityError struct {
	// Op is the operator that was attempted (e.g. "and", "get").
	Op string
	// Node is the offending operand.
	Node any
	// Want is the capability the operator needs.
	Want Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s does not support %s (has %s)",
		e.Op, describe(e.Node), e.Want, Capabilities(e.Node))
}

func (e *CapabilityError) Unwrap() error {
	return ErrNoCapability
}

// IsCapabilityError returns true if err is (or wraps) a capability error.
func IsCapabilityError(err error) bool {
	return errors.Is(err, ErrNoCapability)
}

// PredicateError reports an unknown predicate name or a value that does
// not fit the predicate's arity.
type PredicateError struct {
	Name   string
	Reason string
	err    error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate %q: %s", e.Name, e.Reason)
}

func (e *PredicateError) Unwrap() error {
	return e.err
}

func require(op string, v any, want Capability) error {
	if Capabilities(v).Has(want) {
		return nil
	}
	return &CapabilityError{Op: op, Node: v, Want: want}
}

func describe(v any) string {
	switch n := v.(type) {
	case Stub:
		return fmt.Sprintf("stub %q", string(n))
	case *KeyPath:
		return fmt.Sprintf("key path %s", n)
	case fmt.Stringer:
		return fmt.Sprintf("%T(%s)", v, n)
	default:
		return fmt.Sprintf("%T", v)
	}
}
