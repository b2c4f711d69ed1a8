package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(id, query string) Run {
	return Run{
		ID:              id,
		QueryName:       query,
		SQL:             `SELECT "people".* FROM "people" WHERE "people"."name" = ?`,
		Params:          []any{"Ernie", int64(9007199254740993), nil, true},
		ASTFingerprint:  "ast-" + id,
		RowsFingerprint: "rows-" + id,
		RowCount:        1,
	}
}

func TestRecordRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.RecordRun(ctx, testRun("run-1", "adults"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "adults", first.QueryName)
	assert.Equal(t, []any{"Ernie", int64(9007199254740993), nil, true}, first.Params)

	second, err := s.RecordRun(ctx, testRun("run-2", "adults"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)

	dup := testRun("run-1", "other")
	again, err := s.RecordRun(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, first, again, "first record wins")
}

func TestRecordRunFloatParams(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := testRun("run-1", "adults")
	r.Params = []any{1.5, 2.0, int64(3)}
	_, err := s.RecordRun(ctx, r)
	require.NoError(t, err)

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, int64(2), int64(3)}, got.Params)

	r = testRun("run-2", "adults")
	r.Params = []any{math.NaN()}
	_, err = s.RecordRun(ctx, r)
	assert.ErrorContains(t, err, "param 0")
}

func TestRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, r := range []Run{
		testRun("b", "adults"),
		testRun("a", "children"),
		testRun("c", "adults"),
	} {
		_, err := s.RecordRun(ctx, r)
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		ids   []string
	}{
		{"adults", []string{"b", "c"}},
		{"children", []string{"a"}},
		{"", []string{"b", "a", "c"}},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run("query="+tt.query, func(t *testing.T) {
			runs, err := s.Runs(ctx, tt.query)
			require.NoError(t, err)
			assert.NotNil(t, runs)

			var ids []string
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestParamsRoundTrip(t *testing.T) {
	data, err := marshalParams(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", data)

	params, err := unmarshalParams(data)
	require.NoError(t, err)
	assert.Equal(t, []any{}, params)

	params, err = unmarshalParams("[1.5, 1e-7, 4]")
	require.NoError(t, err)
	assert.Equal(t, []any{1.5, 1e-7, int64(4)}, params)

	_, err = unmarshalParams("[1e999]")
	assert.Error(t, err)
}
