package queryir

import (
	"fmt"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
)

// ValidationResult contains portability analysis of a statement.
//
// Every statement that passes the renderer executes; a statement that is
// not portable relies on SQL-specific or easily misread behaviour.
type ValidationResult struct {
	// IsPortable indicates no warnings were raised.
	IsPortable bool

	// Warnings lists the fragile constructs found, in traversal order.
	Warnings []string
}

// Validate checks a Select for fragile constructs.
//
// Rules:
//  1. Raw SQL fragments are opaque to the IR and are not portable.
//  2. Comparing against a NULL literal never matches; use IsNull.
//  3. An empty IN list is a constant condition.
//  4. With joins present, every column must be qualified by its table.
//  5. LIKE patterns must be string literals or expressions.
//
// Validate is a pure function with no side effects.
func Validate(sel *Select) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	if sel == nil {
		v.addWarning("nil statement")
	} else {
		v.validateSelect(sel)
	}

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// ValidateNode checks a single expression. Unqualified columns are not
// reported because a bare expression has no join context.
func ValidateNode(n Node) ValidationResult {
	v := &validator{warnings: []string{}}
	v.validateNode(n)
	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings     []string
	requireQuals bool
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(sel *Select) {
	if sel.From.Name == "" {
		v.addWarning("Select has no FROM table")
	}
	v.requireQuals = len(sel.Joins) > 0

	for _, p := range sel.Projections {
		v.validateNode(p)
	}
	for i, j := range sel.Joins {
		if j.On == nil {
			v.addWarning("Join %d (%s) has no ON condition - renders as a cross join", i, j.Table.Ref())
			continue
		}
		v.validateNode(j.On)
	}
	if sel.Where != nil {
		v.validateNode(sel.Where)
	}
	for _, g := range sel.GroupBy {
		v.validateNode(g)
	}
	if sel.Having != nil {
		v.validateNode(sel.Having)
	}
	for _, o := range sel.OrderBy {
		v.validateNode(o.Expr)
	}
}

func (v *validator) validateNode(n Node) {
	switch node := n.(type) {
	case nil:
		v.addWarning("nil node")
	case Attribute:
		if v.requireQuals && !node.Qualified() {
			v.addWarning("Column '%s' is unqualified in a statement with joins - reference is ambiguous", node.Name)
		}
	case Literal:
		// Literals are always parameterised.
	case SQLLiteral:
		v.addWarning("Raw SQL fragment %q - not portable", node.SQL)
		if n := Placeholders(node.SQL); n != len(node.Args) {
			v.addWarning("Raw SQL fragment %q has %d placeholder(s) but %d bind value(s)", node.SQL, n, len(node.Args))
		}
		for _, a := range node.Args {
			v.validateNode(a)
		}
	case NamedFunction:
		for _, a := range node.Args {
			v.validateNode(a)
		}
	case InfixOperation:
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case Comparison:
		if isNullLiteral(node.Right) || isNullLiteral(node.Left) {
			v.addWarning("Comparison %s against NULL never matches - use IsNull", node.Op)
		}
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case Matches:
		if lit, ok := node.Pattern.(Literal); ok {
			if _, isString := lit.Value.(ir.IRString); !isString {
				v.addWarning("LIKE pattern is %T, not a string", lit.Value)
			}
		}
		v.validateNode(node.Expr)
		v.validateNode(node.Pattern)
	case In:
		if len(node.Values) == 0 {
			v.addWarning("Empty IN list - condition is constant")
		}
		v.validateNode(node.Expr)
		for _, val := range node.Values {
			v.validateNode(val)
		}
	case IsNull:
		v.validateNode(node.Expr)
	case And:
		for _, c := range node.Children {
			v.validateNode(c)
		}
	case Or:
		for _, c := range node.Children {
			v.validateNode(c)
		}
	case Not:
		v.validateNode(node.Expr)
	case Grouping:
		v.validateNode(node.Expr)
	default:
		v.addWarning("Unknown node type: %T - portability cannot be verified", n)
	}
}

func isNullLiteral(n Node) bool {
	lit, ok := n.(Literal)
	if !ok {
		return false
	}
	_, isNull := lit.Value.(ir.IRNull)
	return isNull
}
