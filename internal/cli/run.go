package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BearerPipelineTest/meta-where/internal/harness"
	"github.com/BearerPipelineTest/meta-where/internal/ir"
	"github.com/BearerPipelineTest/meta-where/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Sample   bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to harness.UUIDv7Generator.
	RunIDs harness.RunIDGenerator
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	RunID           string   `json:"run_id"`
	Seq             int64    `json:"seq"`
	Query           string   `json:"query"`
	SQL             string   `json:"sql"`
	Params          []any    `json:"params"`
	Warnings        []string `json:"warnings,omitempty"`
	Columns         []string `json:"columns"`
	Rows            []any    `json:"rows"`
	RowsFingerprint string   `json:"rows_fingerprint"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <specs-dir> <query>",
		Short: "Execute a named query against SQLite",
		Long: `Compile a named query block and execute it against a SQLite database.

Every execution is recorded in the database's run log with its SQL,
parameters and result fingerprint; see the history command.

Example:
  metawhere run --sample ./specs adults
  metawhere run --db ./app.db ./specs commented --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", ":memory:", "path to SQLite database")
	cmd.Flags().BoolVar(&opts.Sample, "sample", false, "load the sample people/articles/comments/notes data first")

	return cmd
}

func runQuery(opts *RunOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load specs", loadErrors[0])
	}
	bundle := loadResult.Bundle

	q, ok := bundle.Query(name)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: query %q is not declared in %s", ErrCodeUnknownQuery, name, specsDir))
	}
	plan, err := q.Query.Relation(bundle.Registry).Plan()
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to compile query %s", name), err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = harness.UUIDv7Generator{}
	}
	runID := runIDs.Generate()
	log := slog.With("run_id", runID, "query", name)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.Sample {
		if err := st.LoadSample(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to load sample data", err)
		}
	}

	res, err := st.Query(ctx, plan.SQL, plan.Params...)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("query %s failed", name), err)
	}
	rowsFP, err := res.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to fingerprint rows", err)
	}

	run, err := st.RecordRun(ctx, store.Run{
		ID:              runID,
		QueryName:       name,
		SQL:             plan.SQL,
		Params:          plan.Params,
		ASTFingerprint:  plan.Fingerprint,
		RowsFingerprint: rowsFP,
		RowCount:        len(res.Rows),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	log.Debug("run recorded", "seq", run.Seq, "rows", run.RowCount)

	if formatter.JSON() {
		rows := make([]any, len(res.Rows))
		for i, row := range res.Rows {
			if rows[i], err = rowToGo(row); err != nil {
				return err
			}
		}
		return formatter.encode(CLIResponse{
			Status: "ok",
			RunID:  runID,
			Data: RunOutput{
				RunID:           runID,
				Seq:             run.Seq,
				Query:           name,
				SQL:             plan.SQL,
				Params:          nonNil(plan.Params),
				Warnings:        plan.Warnings,
				Columns:         res.Columns,
				Rows:            rows,
				RowsFingerprint: rowsFP,
			},
		})
	}

	w := formatter.Writer
	for _, warning := range plan.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	cells := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		cells[i] = make([]string, len(res.Columns))
		for j, col := range res.Columns {
			cells[i][j] = formatCell(row[col])
		}
	}
	if err := formatter.Table(res.Columns, cells); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d row(s), run %d (%s)\n", len(res.Rows), run.Seq, runID)
	return nil
}

// rowToGo converts a result row to plain Go values for JSON output.
func rowToGo(row ir.IRObject) (map[string]any, error) {
	out := make(map[string]any, len(row))
	for col, v := range row {
		gv, err := ir.ToGo(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		out[col] = gv
	}
	return out, nil
}

// formatCell renders one result value for the text table.
func formatCell(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return "NULL"
	case ir.IRString:
		return string(val)
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10)
	case ir.IRBool:
		return strconv.FormatBool(bool(val))
	default:
		return formatValue(val)
	}
}

func formatValue(v ir.IRValue) string {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
