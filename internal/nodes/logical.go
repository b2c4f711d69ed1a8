package nodes

import (
	"fmt"
	"strings"
)

// And is a conjunction of boolean nodes.
type And struct {
	Children []Node
}

func (*And) node() {}

// Or is a disjunction of two boolean nodes.
type Or struct {
	Left  Node
	Right Node
}

func (*Or) node() {}

// Not negates a boolean node.
type Not struct {
	Expr Node
}

func (*Not) node() {}

// NewAnd conjoins left and right. If left is already an And, right is
// appended to a copy of its children so chains stay flat.
func NewAnd(left, right Node) (*And, error) {
	if err := require("and", left, CapBoolean); err != nil {
		return nil, err
	}
	if err := require("and", right, CapBoolean); err != nil {
		return nil, err
	}
	if a, ok := left.(*And); ok {
		children := make([]Node, 0, len(a.Children)+1)
		children = append(children, a.Children...)
		return &And{Children: append(children, right)}, nil
	}
	return &And{Children: []Node{left, right}}, nil
}

// AllOf conjoins any number of boolean nodes.
func AllOf(children ...Node) (*And, error) {
	for _, c := range children {
		if err := require("and", c, CapBoolean); err != nil {
			return nil, err
		}
	}
	return &And{Children: append([]Node(nil), children...)}, nil
}

// NewOr disjoins left and right.
func NewOr(left, right Node) (*Or, error) {
	if err := require("or", left, CapBoolean); err != nil {
		return nil, err
	}
	if err := require("or", right, CapBoolean); err != nil {
		return nil, err
	}
	return &Or{Left: left, Right: right}, nil
}

// NewNot negates expr.
func NewNot(expr Node) (*Not, error) {
	if err := require("not", expr, CapBoolean); err != nil {
		return nil, err
	}
	return &Not{Expr: expr}, nil
}

// Subtract builds left AND NOT right.
func Subtract(left, right Node) (*And, error) {
	if err := require("subtract", left, CapBoolean); err != nil {
		return nil, err
	}
	not, err := NewNot(right)
	if err != nil {
		return nil, &CapabilityError{Op: "subtract", Node: right, Want: CapBoolean}
	}
	return NewAnd(left, not)
}

func (a *And) String() string {
	parts := make([]string, len(a.Children))
	for i, c := range a.Children {
		parts[i] = fmt.Sprint(c)
	}
	return "(" + strings.Join(parts, " & ") + ")"
}

func (o *Or) String() string {
	return fmt.Sprintf("(%v | %v)", o.Left, o.Right)
}

func (n *Not) String() string {
	return fmt.Sprintf("-%v", n.Expr)
}
