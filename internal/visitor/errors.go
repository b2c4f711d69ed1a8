package visitor

import (
	"errors"
	"fmt"
)

// ErrMalformedTree is wrapped by every TreeError.
var ErrMalformedTree = errors.New("malformed tree")

// TreeError reports a tree shape the visitor cannot compile for the
// requested clause.
type TreeError struct {
	Clause string // "filter", "select", "order" or "group"
	Node   any    // offending key, node or value
	Reason string
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("%s in %s clause: %s (%T)", ErrMalformedTree, e.Clause, e.Reason, e.Node)
}

func (e *TreeError) Unwrap() error {
	return ErrMalformedTree
}

// IsTreeError returns true if err is (or wraps) a malformed tree error.
func IsTreeError(err error) bool {
	return errors.Is(err, ErrMalformedTree)
}
