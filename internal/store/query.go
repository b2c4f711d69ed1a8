package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
)

// Result is the outcome of one query. Columns keeps the select order;
// each row maps column name to value.
type Result struct {
	Columns []string
	Rows    []ir.IRObject
}

// Fingerprint hashes the rows in order.
func (r *Result) Fingerprint() (string, error) {
	return ir.FingerprintRows(r.Rows)
}

// Query executes a parameterized SELECT and reads every row. Duplicate
// column names keep the last value.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	res := &Result{Columns: cols, Rows: []ir.IRObject{}}
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(ir.IRObject, len(cols))
		for i, c := range cols {
			v, err := columnValue(raw[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", len(res.Rows), c, err)
			}
			row[c] = v
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	slog.Debug("query executed",
		"sql", query,
		"params", len(args),
		"rows", len(res.Rows))
	return res, nil
}

// columnValue maps a driver value onto the IR value set.
func columnValue(v any) (ir.IRValue, error) {
	switch val := v.(type) {
	case nil:
		return ir.IRNull{}, nil
	case int64:
		return ir.IRInt(val), nil
	case string:
		return ir.IRString(val), nil
	case []byte:
		return ir.IRString(val), nil
	case bool:
		return ir.IRBool(val), nil
	case float64:
		return ir.IRFloat(val), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", v)
	}
}
