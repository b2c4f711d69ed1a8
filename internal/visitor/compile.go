package visitor

import (
	"github.com/BearerPipelineTest/meta-where/internal/queryir"
	"github.com/BearerPipelineTest/meta-where/internal/scope"
)

// Options configures a Compiler. Zero values select the defaults.
type Options struct {
	// Expander expands literal filter entries. Defaults to DefaultExpander.
	Expander Expander
	// Quoter renders function column operands. Defaults to the SQLite
	// double-quoted form.
	Quoter Quoter
}

// Compiler compiles trees for the four clause kinds. It holds no state
// between calls and is safe for concurrent use.
type Compiler struct {
	expander Expander
	quoter   Quoter
}

// New creates a Compiler.
func New(opts Options) *Compiler {
	c := &Compiler{expander: opts.Expander, quoter: opts.Quoter}
	if c.expander == nil {
		c.expander = DefaultExpander
	}
	if c.quoter == nil {
		c.quoter = defaultQuoter
	}
	return c
}

var defaultCompiler = New(Options{})

// CompileFilter compiles tree into one condition. Multiple conditions at
// the top level combine with AND. An empty tree yields nil.
func (c *Compiler) CompileFilter(tree any, root *scope.Context) (queryir.Node, error) {
	rs, err := c.run(filterClause, tree, root)
	if err != nil {
		return nil, err
	}
	switch len(rs) {
	case 0:
		return nil, nil
	case 1:
		return rs[0].node, nil
	default:
		return queryir.And{Children: resultNodes(rs)}, nil
	}
}

// CompileSelect compiles tree into a projection list.
func (c *Compiler) CompileSelect(tree any, root *scope.Context) ([]queryir.Node, error) {
	rs, err := c.run(selectClause, tree, root)
	if err != nil {
		return nil, err
	}
	return resultNodes(rs), nil
}

// CompileGroup compiles tree into a GROUP BY list.
func (c *Compiler) CompileGroup(tree any, root *scope.Context) ([]queryir.Node, error) {
	rs, err := c.run(groupClause, tree, root)
	if err != nil {
		return nil, err
	}
	return resultNodes(rs), nil
}

// CompileOrder compiles tree into ORDER BY entries. Entries without an
// explicit direction sort ascending, except raw fragments which carry
// their own.
func (c *Compiler) CompileOrder(tree any, root *scope.Context) ([]queryir.Ordering, error) {
	rs, err := c.run(orderClause, tree, root)
	if err != nil {
		return nil, err
	}
	out := make([]queryir.Ordering, len(rs))
	for i, r := range rs {
		dir := r.dir
		if !r.ordered {
			dir = queryir.DirAsc
			if _, raw := r.node.(queryir.SQLLiteral); raw {
				dir = queryir.DirDefault
			}
		}
		out[i] = queryir.Ordering{Expr: r.node, Direction: dir}
	}
	return out, nil
}

// CompileFilter compiles with the default options.
func CompileFilter(tree any, root *scope.Context) (queryir.Node, error) {
	return defaultCompiler.CompileFilter(tree, root)
}

// CompileSelect compiles with the default options.
func CompileSelect(tree any, root *scope.Context) ([]queryir.Node, error) {
	return defaultCompiler.CompileSelect(tree, root)
}

// CompileOrder compiles with the default options.
func CompileOrder(tree any, root *scope.Context) ([]queryir.Ordering, error) {
	return defaultCompiler.CompileOrder(tree, root)
}

// CompileGroup compiles with the default options.
func CompileGroup(tree any, root *scope.Context) ([]queryir.Node, error) {
	return defaultCompiler.CompileGroup(tree, root)
}

// run walks tree for one clause kind. A nil tree compiles to nothing.
func (c *Compiler) run(kind clauseKind, tree any, root *scope.Context) ([]result, error) {
	if tree == nil {
		return nil, nil
	}
	p := &pass{c: c, kind: kind}
	return p.visit(tree, root)
}

func resultNodes(rs []result) []queryir.Node {
	out := make([]queryir.Node, len(rs))
	for i, r := range rs {
		out[i] = r.node
	}
	return out
}
