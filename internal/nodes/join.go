package nodes

import "fmt"

// JoinType selects how an association is joined.
type JoinType int

const (
	// InnerJoin is the default join type.
	InnerJoin JoinType = iota
	// OuterJoin is a LEFT OUTER JOIN.
	OuterJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "inner"
	case OuterJoin:
		return "outer"
	default:
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
}

// Join annotates an association with a join type and, for polymorphic
// belongs-to associations, the concrete target class.
type Join struct {
	Name  string
	Type  JoinType
	Class string
}

func (*Join) node() {}

// NewJoin builds a join annotation. class is "" unless the association
// is polymorphic.
func NewJoin(name string, typ JoinType, class string) *Join {
	return &Join{Name: name, Type: typ, Class: class}
}

// Polymorphic reports whether a target class was given.
func (j *Join) Polymorphic() bool { return j.Class != "" }

// Inner returns a copy with inner join type.
func (j *Join) Inner() *Join { return NewJoin(j.Name, InnerJoin, j.Class) }

// Outer returns a copy with outer join type.
func (j *Join) Outer() *Join { return NewJoin(j.Name, OuterJoin, j.Class) }

// Of returns a copy targeting class.
func (j *Join) Of(class string) *Join { return NewJoin(j.Name, j.Type, class) }

func (j *Join) String() string {
	if j.Polymorphic() {
		return fmt.Sprintf("%s(%s, %s)", j.Name, j.Type, j.Class)
	}
	return fmt.Sprintf("%s(%s)", j.Name, j.Type)
}

// Direction is an ordering direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Order wraps an expression with a sort direction.
type Order struct {
	Expr      any
	Direction Direction
}

func (*Order) node() {}

// IsAscending reports whether the order is ascending.
func (o *Order) IsAscending() bool { return o.Direction == Ascending }

// IsDescending reports whether the order is descending.
func (o *Order) IsDescending() bool { return o.Direction == Descending }

// Reverse returns a copy with the opposite direction.
func (o *Order) Reverse() *Order {
	d := Ascending
	if o.Direction == Ascending {
		d = Descending
	}
	return &Order{Expr: o.Expr, Direction: d}
}

func (o *Order) String() string {
	return fmt.Sprintf("%v %s", o.Expr, o.Direction)
}
