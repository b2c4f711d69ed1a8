package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BearerPipelineTest/meta-where/internal/testutil"
)

func fixedHarness() *Harness {
	return New(WithRunIDs(testutil.NewFixedRunIDGenerator("")))
}

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 6)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, "test-run-default", result.RunID)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/adults_by_name.yaml")
	require.NoError(t, err)

	first, err := fixedHarness().Run(context.Background(), s)
	require.NoError(t, err)
	second, err := fixedHarness().Run(context.Background(), s)
	require.NoError(t, err)

	assert.Len(t, first.ASTFingerprint, 64)
	assert.Len(t, first.RowsFingerprint, 64)
	assert.Equal(t, first.ASTFingerprint, second.ASTFingerprint)
	assert.Equal(t, first.RowsFingerprint, second.RowsFingerprint)
	assert.Equal(t, Snapshot(s.Name, first), Snapshot(s.Name, second))
}

func TestDefaultRunIDs(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unknown_association.yaml")
	require.NoError(t, err)

	a, err := Run(s)
	require.NoError(t, err)
	b, err := Run(s)
	require.NoError(t, err)

	assert.Len(t, a.RunID, 36)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestCompileOnlySkipsExecution(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: compile_only
description: no database needed
specs: [testdata/specs/sample.cue]
compile_only: true
query:
  table: people
  where: {name: Ernie}
assertions:
  - type: params
    params: [Ernie]
`), "")
	require.NoError(t, err)

	result, err := fixedHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.NotEmpty(t, result.SQL)
	assert.Nil(t, result.Columns)
	assert.Empty(t, result.RowsFingerprint)
}

func TestSetupStatements(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: setup
description: setup SQL runs after the fixture
specs: [sample.cue]
fixture: sample
setup:
  - "INSERT INTO people (id, parent_id, name, nickname, age) VALUES (5, 2, 'Elmo', NULL, 3)"
query:
  table: people
  joins: [parent]
  where:
    age.lt: 5
    parent: {name: Bert}
  select: [name, nickname]
assertions:
  - type: rows
    rows:
      - {name: Elmo, nickname: null}
`), "testdata/specs")
	require.NoError(t, err)

	result, err := fixedHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "unknown query ref",
			doc: `
name: x
description: x
specs: [testdata/specs/sample.cue]
query_ref: nope
assertions: [{type: row_count, count: 0}]
`,
			msg: `query_ref "nope" is not declared`,
		},
		{
			name: "failing setup",
			doc: `
name: x
description: x
specs: [testdata/specs/sample.cue]
setup: ["INSERT INTO widgets VALUES (1)"]
query: {table: people}
assertions: [{type: row_count, count: 0}]
`,
			msg: "setup[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScenario([]byte(tt.doc), "")
			require.NoError(t, err)

			_, err = fixedHarness().Run(context.Background(), s)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestUnexpectedFailure(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: missing_table
description: the query runs against an empty database
specs: [testdata/specs/sample.cue]
query: {table: people}
assertions: [{type: row_count, count: 4}]
`), "")
	require.NoError(t, err)

	result, err := fixedHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected failure")
	assert.Contains(t, result.Errors[0], "no such table")
}

func TestDecodeFailureIsExpectable(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_operator
description: unknown filter operators are rejected
specs: [testdata/specs/sample.cue]
compile_only: true
query:
  table: people
  where:
    $xor: []
assertions:
  - type: error
    contains: unknown operator
`), "")
	require.NoError(t, err)

	result, err := fixedHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "scenario: bad_operator\nrun: test-run-default\nfailure: "+result.Failure+"\n",
		string(Snapshot(s.Name, result)))
}
