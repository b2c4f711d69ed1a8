package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
)

// Run is one logged execution of a named query.
type Run struct {
	ID              string
	Seq             int64 // assigned by RecordRun
	QueryName       string
	SQL             string
	Params          []any
	ASTFingerprint  string
	RowsFingerprint string
	RowCount        int
}

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// RecordRun appends r to the run log and returns it with its sequence
// number. Recording the same id twice keeps the first record.
func (s *Store) RecordRun(ctx context.Context, r Run) (Run, error) {
	params, err := marshalParams(r.Params)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, query_name, sql, params, ast_fingerprint, rows_fingerprint, row_count)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?
		FROM runs WHERE true
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.QueryName,
		r.SQL,
		params,
		r.ASTFingerprint,
		r.RowsFingerprint,
		r.RowCount,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return s.GetRun(ctx, r.ID)
}

// GetRun reads one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, query_name, sql, params, ast_fingerprint, rows_fingerprint, row_count
		FROM runs
		WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Runs returns the runs of a query in recording order. An empty name
// returns every run.
func (s *Store) Runs(ctx context.Context, queryName string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, query_name, sql, params, ast_fingerprint, rows_fingerprint, row_count
		FROM runs
		WHERE ? = '' OR query_name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, queryName, queryName)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var params string
	err := row.Scan(&r.ID, &r.Seq, &r.QueryName, &r.SQL, &params,
		&r.ASTFingerprint, &r.RowsFingerprint, &r.RowCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if r.Params, err = unmarshalParams(params); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", r.ID, err)
	}
	return r, nil
}

// marshalParams stores SQL parameters as a JSON array. Parameters are
// IR scalars, so NULL is allowed.
func marshalParams(params []any) (string, error) {
	arr := make(ir.IRArray, len(params))
	for i, p := range params {
		v, err := ir.FromGo(p)
		if err != nil {
			return "", fmt.Errorf("param %d: %w", i, err)
		}
		arr[i] = v
	}
	data, err := ir.MarshalIRValue(arr)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalParams parses the stored JSON array. Numbers are decoded via
// json.Number to keep int64 precision; numbers with a fraction or
// exponent come back as float64. An integral float such as 2.0 is stored
// as 2 and so reads back as int64.
func unmarshalParams(data string) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	out := make([]any, len(raw))
	for i, v := range raw {
		if n, ok := v.(json.Number); ok {
			if iv, err := n.Int64(); err == nil {
				out[i] = iv
				continue
			}
			fv, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("param %d: %w", i, err)
			}
			out[i] = fv
			continue
		}
		out[i] = v
	}
	return out, nil
}
