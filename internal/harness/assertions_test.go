package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
)

func sampleResult() *Result {
	r := NewResult("run-1")
	r.SQL = `SELECT "people"."name" FROM "people" WHERE "people"."age" > ?`
	r.Params = []any{int64(30)}
	r.DebugSQL = `SELECT "people"."name" FROM "people" WHERE "people"."age" > 30`
	r.Warnings = []string{`Raw SQL fragment "x" - not portable`}
	r.Columns = []string{"name", "nickname"}
	r.Rows = []ir.IRObject{
		{"name": ir.IRString("Bert"), "nickname": ir.IRString("Bertie")},
		{"name": ir.IRString("Ernie"), "nickname": ir.IRNull{}},
	}
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		fails     string
	}{
		{"sql", Assertion{Type: AssertSQL, SQL: sampleResult().SQL}, ""},
		{"sql mismatch", Assertion{Type: AssertSQL, SQL: "SELECT 1"}, "Assertion failed: sql"},
		{"params", Assertion{Type: AssertParams, Params: []any{30}}, ""},
		{"params mismatch", Assertion{Type: AssertParams, Params: []any{"30"}}, `Expected: ["30"]`},
		{"float params mismatch", Assertion{Type: AssertParams, Params: []any{1.5}}, "Expected: [1.5]"},
		{"non-finite params", Assertion{Type: AssertParams, Params: []any{math.Inf(1)}}, "non-finite"},
		{"row count", Assertion{Type: AssertRowCount, Count: 2}, ""},
		{"row count mismatch", Assertion{Type: AssertRowCount, Count: 3}, "Actual: 2 rows"},
		{"rows subset", Assertion{Type: AssertRows, Rows: []map[string]any{{"name": "Bert"}, {"nickname": nil}}}, ""},
		{"rows wrong order", Assertion{Type: AssertRows, Rows: []map[string]any{{"name": "Ernie"}, {"name": "Bert"}}}, "row 0 matching"},
		{"rows wrong length", Assertion{Type: AssertRows, Rows: []map[string]any{{"name": "Bert"}}}, "Expected: 1 rows"},
		{"rows missing column", Assertion{Type: AssertRows, Rows: []map[string]any{{"age": 1}, {}}}, "row 0 matching"},
		{"contains row", Assertion{Type: AssertContainsRow, Row: map[string]any{"name": "Ernie", "nickname": nil}}, ""},
		{"contains row missing", Assertion{Type: AssertContainsRow, Row: map[string]any{"name": "Oscar"}}, `{"name":"Bert","nickname":"Bertie"}`},
		{"warning", Assertion{Type: AssertWarning, Contains: "Raw SQL"}, ""},
		{"warning missing", Assertion{Type: AssertWarning, Contains: "nope"}, "a warning containing"},
		{"error when none", Assertion{Type: AssertError, Contains: "boom"}, "Actual: no error"},
		{"unknown type", Assertion{Type: "trace_order"}, "unknown assertion type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			if tt.fails == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.fails)
		})
	}
}

func TestEvaluateAssertionsAfterFailure(t *testing.T) {
	r := NewResult("run-1")
	r.Failure = "where: malformed tree"

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertRowCount, Count: 1},
		{Type: AssertError, Contains: "malformed"},
	})
	assert.Empty(t, errs, "non-error assertions are skipped")

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertError, Contains: "resolution"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Actual: where: malformed tree")

	errs = EvaluateAssertions(r, []Assertion{{Type: AssertRowCount, Count: 1}})
	assert.Equal(t, []string{"unexpected failure: where: malformed tree"}, errs)
}

func TestAssertionErrorIncludesSQL(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertRowCount, Count: 0}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "SQL:\n  SELECT \"people\".\"name\" FROM \"people\" WHERE \"people\".\"age\" > 30")
}

func TestResultAddError(t *testing.T) {
	r := NewResult("run-1")
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
