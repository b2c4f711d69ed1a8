// Package scope tracks where in the join graph a compile pass currently is
// and qualifies bare names with the table alias of that position.
//
// A Context wraps a node of a read-only join graph (see Join). Contexts
// never change; descending into an association yields a new Context that
// remembers the root so absolute key paths can restart from it.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/queryir"
)

// Ref names one association step. Class selects the target of a
// polymorphic association and is empty otherwise.
type Ref struct {
	Name  string
	Class string
}

func (r Ref) String() string {
	if r.Class != "" {
		return r.Name + "(" + r.Class + ")"
	}
	return r.Name
}

// Refs builds plain refs from association names.
func Refs(names ...string) []Ref {
	out := make([]Ref, len(names))
	for i, n := range names {
		out[i] = Ref{Name: n}
	}
	return out
}

// Join is one node of an already-built join graph. Implementations must be
// safe for concurrent reads.
type Join interface {
	// Table returns the joined table and the alias assigned to it.
	Table() queryir.Table
	// Child returns the join reached through ref, if it was joined.
	Child(ref Ref) (Join, bool)
}

// ErrUnknownAssociation is wrapped by every ResolutionError.
var ErrUnknownAssociation = errors.New("unknown association in this scope")

// ResolutionError reports an association that is not joined under the
// current context.
type ResolutionError struct {
	Ref   Ref
	Scope string   // table ref of the context where lookup failed
	Path  []string // refs walked before the miss
}

func (e *ResolutionError) Error() string {
	where := e.Scope
	if len(e.Path) > 0 {
		where = e.Scope + " via " + strings.Join(e.Path, ".")
	}
	return fmt.Sprintf("%s: %q in %s", ErrUnknownAssociation, e.Ref.String(), where)
}

func (e *ResolutionError) Unwrap() error {
	return ErrUnknownAssociation
}

// IsResolutionError returns true if err is (or wraps) a resolution miss.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrUnknownAssociation)
}

// Context is a position in the join graph.
type Context struct {
	join Join
	name string
	root *Context
}

// Root returns the outermost context for a join graph.
func Root(j Join) *Context {
	return &Context{join: j}
}

// Bare returns a context that is not backed by a join graph. Columns
// resolved under it are qualified by name and descent never fails.
func Bare(name string) *Context {
	return &Context{name: name}
}

// Table returns the table and alias columns are qualified by.
func (c *Context) Table() queryir.Table {
	if c.join == nil {
		return queryir.Table{Name: c.name}
	}
	return c.join.Table()
}

// Join returns the backing join node, or nil for a bare context.
func (c *Context) Join() Join { return c.join }

// IsRoot reports whether c is the outermost context.
func (c *Context) IsRoot() bool { return c.root == nil }

// RootContext returns the outermost context c descends from.
func (c *Context) RootContext() *Context {
	if c.root == nil {
		return c
	}
	return c.root
}

// Child returns the context reached through ref.
func (c *Context) Child(ref Ref) (*Context, error) {
	root := c.RootContext()
	if c.join == nil {
		return &Context{name: ref.Name, root: root}, nil
	}
	child, ok := c.join.Child(ref)
	if !ok {
		return nil, &ResolutionError{Ref: ref, Scope: c.Table().Ref()}
	}
	return &Context{join: child, root: root}, nil
}

// Resolve qualifies name with the context's table. A nil context yields
// an unqualified attribute.
func Resolve(name string, ctx *Context) queryir.Attribute {
	if ctx == nil {
		return queryir.Attribute{Name: name}
	}
	return queryir.Attribute{Relation: ctx.Table().Ref(), Name: name}
}

// Descend walks path one ref at a time and returns the deepest context.
// When absolute is set the walk starts from ctx's root. With a nil ctx the
// walk produces bare contexts named after each ref, so the last ref
// becomes the context identity.
func Descend(path []Ref, ctx *Context, absolute bool) (*Context, error) {
	if absolute && ctx != nil {
		ctx = ctx.RootContext()
	}
	for i, ref := range path {
		if ctx == nil {
			ctx = Bare(ref.Name)
			continue
		}
		next, err := ctx.Child(ref)
		if err != nil {
			var rerr *ResolutionError
			if errors.As(err, &rerr) {
				for _, walked := range path[:i] {
					rerr.Path = append(rerr.Path, walked.String())
				}
			}
			return nil, err
		}
		ctx = next
	}
	return ctx, nil
}
