package nodes

import "fmt"

// SQL is a raw fragment whose ? placeholders are bound to Args in order:
//
//	NewSQL("name like ?", "%bob%")
//
// Args are bound as data, never spliced into the text. An arg may also be
// an expression node (a Stub names a column), which compiles in place of
// its placeholder. SQL is boolean, so it combines with And, Or and Not.
type SQL struct {
	Fragment string
	Args     []any
}

func (*SQL) node() {}

// NewSQL builds a raw fragment with bind values.
func NewSQL(fragment string, args ...any) *SQL {
	return &SQL{Fragment: fragment, Args: args}
}

func (s *SQL) String() string {
	if len(s.Args) == 0 {
		return s.Fragment
	}
	return fmt.Sprintf("%s %v", s.Fragment, s.Args)
}
