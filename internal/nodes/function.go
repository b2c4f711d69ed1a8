package nodes

import (
	"fmt"
	"strings"
)

// Function is a named function call. Arguments may be nodes, nested
// functions or literal values.
type Function struct {
	Predications
	Arithmetics

	Name string
	Args []any

	alias string
}

func (*Function) node() {}

// NewFunction builds name(args...).
func NewFunction(name string, args ...any) *Function {
	f := &Function{Name: name, Args: args}
	f.Predications.self = f
	f.Arithmetics.self = f
	return f
}

// As sets the display alias used when the function is selected. The
// alias is set once; later calls keep the first alias.
func (f *Function) As(alias string) *Function {
	if f.alias == "" {
		f.alias = alias
	}
	return f
}

// Alias returns the display alias, or "" if none was set.
func (f *Function) Alias() string { return f.alias }

// Asc orders by the function result ascending.
func (f *Function) Asc() *Order { return &Order{Expr: f, Direction: Ascending} }

// Desc orders by the function result descending.
func (f *Function) Desc() *Order { return &Order{Expr: f, Direction: Descending} }

func (f *Function) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = fmt.Sprint(a)
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Operation is an infix arithmetic operation. It is a Function whose name
// is the operator and whose two arguments are the operands.
type Operation struct {
	Function
}

func (*Operation) node() {}

// NewOperation builds left operator right.
func NewOperation(left any, operator string, right any) *Operation {
	o := &Operation{Function: Function{Name: operator, Args: []any{left, right}}}
	o.Predications.self = o
	o.Arithmetics.self = o
	return o
}

// Operator returns the infix operator.
func (o *Operation) Operator() string { return o.Name }

// Left returns the left operand.
func (o *Operation) Left() any { return o.Args[0] }

// Right returns the right operand.
func (o *Operation) Right() any { return o.Args[1] }

// As sets the display alias used when the operation is selected. Like
// Function.As, the first alias wins.
func (o *Operation) As(alias string) *Operation {
	if o.alias == "" {
		o.alias = alias
	}
	return o
}

// Asc orders by the operation result ascending.
func (o *Operation) Asc() *Order { return &Order{Expr: o, Direction: Ascending} }

// Desc orders by the operation result descending.
func (o *Operation) Desc() *Order { return &Order{Expr: o, Direction: Descending} }

func (o *Operation) String() string {
	return fmt.Sprintf("(%v %s %v)", o.Left(), o.Name, o.Right())
}
