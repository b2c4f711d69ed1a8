package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/BearerPipelineTest/meta-where/internal/testutil"
)

// Snapshot renders the deterministic parts of a result as text for
// golden comparison:
//
//	scenario: adults
//	run: test-run-default
//	sql: SELECT "people".* FROM "people" WHERE "people"."age" > ? ...
//	params: [30]
//	debug: SELECT "people".* FROM "people" WHERE "people"."age" > 30 ...
//	columns: id, name
//	rows: 1
//	  {"id":1,"name":"Ernie"}
//
// Fingerprints are left out; they are checked for stability instead.
func Snapshot(name string, r *Result) []byte {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("scenario: %s", name)
	line("run: %s", r.RunID)
	if r.Failure != "" {
		line("failure: %s", r.Failure)
		return []byte(b.String())
	}

	line("sql: %s", r.SQL)
	params, err := irList(r.Params)
	if err != nil {
		line("params: %v", r.Params)
	} else {
		line("params: %s", formatValue(params))
	}
	line("debug: %s", r.DebugSQL)
	for _, w := range r.Warnings {
		line("warning: %s", w)
	}
	if r.Columns != nil {
		line("columns: %s", strings.Join(r.Columns, ", "))
		line("rows: %d", len(r.Rows))
		for _, row := range r.Rows {
			line("  %s", formatValue(row))
		}
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario with a fixed run ID and compares its
// snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	h := New(WithRunIDs(testutil.NewFixedRunIDGenerator("")))
	result, err := h.Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
