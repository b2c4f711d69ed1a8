package harness

import (
	"github.com/BearerPipelineTest/meta-where/internal/ir"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// RunID correlates the run's log lines.
	RunID string `json:"run_id"`

	// SQL and Params are the rendered statement. DebugSQL inlines the
	// params for reading.
	SQL      string `json:"sql,omitempty"`
	Params   []any  `json:"params,omitempty"`
	DebugSQL string `json:"debug_sql,omitempty"`

	// Warnings are the portability warnings of the compiled statement.
	Warnings []string `json:"warnings,omitempty"`

	// ASTFingerprint identifies the compiled statement; RowsFingerprint
	// the result set. Both are hex SHA-256.
	ASTFingerprint  string `json:"ast_fingerprint,omitempty"`
	RowsFingerprint string `json:"rows_fingerprint,omitempty"`

	Columns []string      `json:"columns,omitempty"`
	Rows    []ir.IRObject `json:"rows,omitempty"`

	// Failure is the compile or execution error, if any. Scenarios may
	// expect one with an error assertion.
	Failure string `json:"failure,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
