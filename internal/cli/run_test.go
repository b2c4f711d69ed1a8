package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BearerPipelineTest/meta-where/internal/harness"
	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/testutil"
)

func runWith(t *testing.T, format string, ids harness.RunIDGenerator, args ...string) (string, error) {
	t.Helper()
	cmd := newRunCommand(&RunOptions{RootOptions: &RootOptions{Format: format}, RunIDs: ids})
	return execute(t, cmd, args...)
}

type runResponse struct {
	Status string    `json:"status"`
	RunID  string    `json:"run_id"`
	Data   RunOutput `json:"data"`
}

func TestRunCommandText(t *testing.T) {
	out, err := runWith(t, "text", testutil.NewFixedRunIDGenerator("run-fixed"),
		"--sample", "testdata/specs", "adults")
	require.NoError(t, err)

	for _, want := range []string{"id", "nickname", "Bert", "Bertie", "Ernie", "Oscar", "Grouch", "NULL"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Grover")
	assert.Contains(t, out, "3 row(s), run 1 (run-fixed)")
}

func TestRunCommandJSON(t *testing.T) {
	out, err := runWith(t, "json", testutil.NewFixedRunIDGenerator("run-fixed"),
		"--sample", "testdata/specs", "adults")
	require.NoError(t, err)

	var resp runResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-fixed", resp.RunID)

	data := resp.Data
	assert.Equal(t, "run-fixed", data.RunID)
	assert.Equal(t, int64(1), data.Seq)
	assert.Equal(t, "adults", data.Query)
	assert.Equal(t, adultsSQL, data.SQL)
	assert.Equal(t, []any{float64(18)}, data.Params)
	assert.Equal(t, []string{"id", "parent_id", "name", "nickname", "age"}, data.Columns)
	assert.Len(t, data.RowsFingerprint, 64)

	require.Len(t, data.Rows, 3)
	var names []any
	for _, row := range data.Rows {
		names = append(names, row.(map[string]any)["name"])
	}
	assert.Equal(t, []any{"Bert", "Ernie", "Oscar"}, names)
	assert.Nil(t, data.Rows[1].(map[string]any)["parent_id"])
}

func TestRunCommandJoinedQuery(t *testing.T) {
	out, err := runWith(t, "text", testutil.NewFixedRunIDGenerator(""),
		"--sample", "testdata/specs", "commented")
	require.NoError(t, err)
	assert.Contains(t, out, "Ernie")
	assert.Contains(t, out, "2 row(s)")
}

func TestRunCommandWarning(t *testing.T) {
	out, err := runWith(t, "text", testutil.NewFixedRunIDGenerator(""),
		"--sample", "testdata/specs", "shouting")
	require.NoError(t, err)
	assert.Contains(t, out, `warning: Raw SQL fragment "lower(name) DESC" - not portable`)
	assert.Contains(t, out, "4 row(s)")
}

func TestRunCommandRecordsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "app.db")
	ids := &testutil.SequentialRunIDGenerator{}

	_, err := runWith(t, "text", ids, "--db", db, "--sample", "testdata/specs", "adults")
	require.NoError(t, err)
	out, err := runWith(t, "text", ids, "--db", db, "testdata/specs", "adults")
	require.NoError(t, err)
	assert.Contains(t, out, "3 row(s), run 2 (run-0002)")
	_, err = runWith(t, "text", ids, "--db", db, "testdata/specs", "shouting")
	require.NoError(t, err)

	out, err = execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	for _, want := range []string{"run-0001", "run-0002", "run-0003", "shouting"} {
		assert.Contains(t, out, want)
	}

	out, err = execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "adults")
	require.NoError(t, err)
	var resp struct {
		Status string         `json:"status"`
		Data   []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)

	first, second := resp.Data[0], resp.Data[1]
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "run-0001", first.RunID)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, adultsSQL, first.SQL)
	assert.Equal(t, []any{float64(18)}, first.Params)
	assert.Equal(t, 3, first.RowCount)
	// Same statement over unchanged data.
	assert.Equal(t, first.ASTFingerprint, second.ASTFingerprint)
	assert.Equal(t, first.RowsFingerprint, second.RowsFingerprint)
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"unknown query", []string{"--sample", "testdata/specs", "nope"}, ExitCommandError, `E012: query "nope" is not declared`},
		{"missing specs", []string{"testdata/nope", "adults"}, ExitCommandError, "failed to load specs"},
		{"invalid specs", []string{"testdata/broken_query", "backwards"}, ExitCommandError, "must not be negative"},
		{"uncompilable query", []string{"testdata/invalid_query", "tagged"}, ExitFailure, "unknown association: people.tags"},
		{"no tables without sample", []string{"testdata/specs", "adults"}, ExitFailure, "no such table: people"},
		{"bad database path", []string{"--db", "/nonexistent/dir/app.db", "testdata/specs", "adults"}, ExitCommandError, "failed to open database"},
		{"arity", []string{"testdata/specs"}, ExitFailure, "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runWith(t, "text", testutil.NewFixedRunIDGenerator(""), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)

	out, err = execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":[]}`, out)

	_, err = execute(t, NewHistoryCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   ir.IRValue
		want string
	}{
		{"nil", nil, "NULL"},
		{"null", ir.IRNull{}, "NULL"},
		{"string", ir.IRString("Ernie"), "Ernie"},
		{"int", ir.IRInt(45), "45"},
		{"float", ir.IRFloat(39.25), "39.25"},
		{"integral float", ir.IRFloat(39), "39"},
		{"bool", ir.IRBool(true), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.in))
		})
	}
}

func TestRowToGo(t *testing.T) {
	got, err := rowToGo(ir.IRObject{"avg_age": ir.IRFloat(39), "name": ir.IRString("Bert")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"avg_age": float64(39), "name": "Bert"}, got)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "0123456789ab", short("0123456789abcdef"))
	assert.Equal(t, "abc", short("abc"))
}
