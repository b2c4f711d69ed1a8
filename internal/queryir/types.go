package queryir

import "github.com/BearerPipelineTest/meta-where/internal/ir"

// Node is a backend expression: a column reference, literal, function
// call or condition.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// All nodes are plain values. Construct them without taking an address:
//
//	queryir.Comparison{Op: queryir.OpEq, Left: attr, Right: queryir.Lit(ir.IRInt(1))}
type Node interface {
	exprNode() // Marker method - seals interface to this package
}

// Table is a FROM or JOIN source. Alias is empty when the table is
// referenced by its own name.
type Table struct {
	Name  string
	Alias string
}

// Ref returns the name used to qualify columns of this table.
func (t Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Attribute is a column reference. Relation is the qualifying table name
// or alias; an empty Relation renders the bare column.
//
// Example:
//
//	Attribute{Relation: "comments_articles", Name: "body"}
//
// Translates to SQL:
//
//	"comments_articles"."body"
type Attribute struct {
	Relation string
	Name     string
}

func (Attribute) exprNode() {}

// Qualified reports whether the attribute names its table.
func (a Attribute) Qualified() bool { return a.Relation != "" }

// Literal is a bound value. It always renders as a parameter.
type Literal struct {
	Value ir.IRValue
}

func (Literal) exprNode() {}

// Lit wraps v as a Literal.
func Lit(v ir.IRValue) Literal { return Literal{Value: v} }

// SQLLiteral is a raw SQL fragment emitted verbatim. It is used for
// column operands of functions (already quoted) and for caller-supplied
// fragments.
//
// Args binds the fragment's ? placeholders in order; there must be
// exactly one per placeholder (see SplitPlaceholders).
type SQLLiteral struct {
	SQL  string
	Args []Node
}

func (SQLLiteral) exprNode() {}

// NamedFunction is a function call.
//
// Example:
//
//	NamedFunction{Name: "max", Args: []Node{SQLLiteral{SQL: `"people"."id"`}}, Alias: "max_id"}
//
// Translates to SQL:
//
//	max("people"."id") AS "max_id"
type NamedFunction struct {
	Name  string
	Args  []Node
	Alias string
}

func (NamedFunction) exprNode() {}

// InfixOperation is an arithmetic expression such as a + b. It renders
// parenthesised so nesting preserves the tree's grouping.
type InfixOperation struct {
	Operator string
	Left     Node
	Right    Node
	Alias    string
}

func (InfixOperation) exprNode() {}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq    CompareOp = "="
	OpNotEq CompareOp = "!="
	OpLt    CompareOp = "<"
	OpLteq  CompareOp = "<="
	OpGt    CompareOp = ">"
	OpGteq  CompareOp = ">="
)

// Comparison is left <op> right.
type Comparison struct {
	Op    CompareOp
	Left  Node
	Right Node
}

func (Comparison) exprNode() {}

// Matches is a LIKE test. Negated renders NOT LIKE.
type Matches struct {
	Expr    Node
	Pattern Node
	Negated bool
}

func (Matches) exprNode() {}

// In is a set membership test. Negated renders NOT IN.
//
// An empty Values list is legal: IN () never matches and NOT IN () always
// matches. Renderers must emit an equivalent constant condition.
type In struct {
	Expr    Node
	Values  []Node
	Negated bool
}

func (In) exprNode() {}

// IsNull tests for NULL. Negated renders IS NOT NULL.
type IsNull struct {
	Expr    Node
	Negated bool
}

func (IsNull) exprNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Children []Node
}

func (And) exprNode() {}

// Or is a disjunction. An empty Or is always false.
type Or struct {
	Children []Node
}

func (Or) exprNode() {}

// Not negates Expr.
type Not struct {
	Expr Node
}

func (Not) exprNode() {}

// Grouping wraps Expr in parentheses.
type Grouping struct {
	Expr Node
}

func (Grouping) exprNode() {}

// Direction is an ORDER BY direction. DirDefault renders no keyword; it
// is used for raw fragments that carry their own direction.
type Direction int

const (
	DirDefault Direction = iota
	DirAsc
	DirDesc
)

func (d Direction) String() string {
	switch d {
	case DirAsc:
		return "ASC"
	case DirDesc:
		return "DESC"
	default:
		return ""
	}
}

// Ordering is one ORDER BY entry.
type Ordering struct {
	Expr      Node
	Direction Direction
}

// JoinType is the SQL join kind.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
)

func (t JoinType) String() string {
	if t == LeftOuterJoin {
		return "LEFT OUTER JOIN"
	}
	return "INNER JOIN"
}

// JoinClause is one JOIN of a Select. On is required.
type JoinClause struct {
	Type  JoinType
	Table Table
	On    Node
}

// Select is a complete query statement.
//
// Semantics:
//
//	SELECT [DISTINCT] <projections> FROM <from> <joins>
//	WHERE <where> GROUP BY <group_by> HAVING <having>
//	ORDER BY <order_by> LIMIT <limit> OFFSET <offset>
//
// An empty Projections list selects every column of From. Where and
// Having are nil when absent. Limit and Offset of zero are omitted.
type Select struct {
	From        Table
	Distinct    bool
	Projections []Node
	Joins       []JoinClause
	Where       Node
	GroupBy     []Node
	Having      Node
	OrderBy     []Ordering
	Limit       int
	Offset      int
}
