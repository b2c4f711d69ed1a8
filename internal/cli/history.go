package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BearerPipelineTest/meta-where/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// HistoryEntry is one recorded run in JSON output.
type HistoryEntry struct {
	Seq             int64  `json:"seq"`
	RunID           string `json:"run_id"`
	Query           string `json:"query"`
	SQL             string `json:"sql"`
	Params          []any  `json:"params"`
	RowCount        int    `json:"row_count"`
	ASTFingerprint  string `json:"ast_fingerprint"`
	RowsFingerprint string `json:"rows_fingerprint"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List recorded query runs",
		Long: `List the runs recorded by the run command, oldest first.

Runs with equal AST fingerprints executed the same statement; equal rows
fingerprints mean they returned the same rows.

Example:
  metawhere history --db ./app.db
  metawhere history --db ./app.db adults --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return runHistory(opts, query, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.Runs(ctx, query)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	if formatter.JSON() {
		entries := make([]HistoryEntry, len(runs))
		for i, r := range runs {
			entries[i] = HistoryEntry{
				Seq:             r.Seq,
				RunID:           r.ID,
				Query:           r.QueryName,
				SQL:             r.SQL,
				Params:          r.Params,
				RowCount:        r.RowCount,
				ASTFingerprint:  r.ASTFingerprint,
				RowsFingerprint: r.RowsFingerprint,
			}
		}
		return formatter.Success(entries)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	cells := make([][]string, len(runs))
	for i, r := range runs {
		cells[i] = []string{
			strconv.FormatInt(r.Seq, 10),
			r.ID,
			r.QueryName,
			strconv.Itoa(r.RowCount),
			short(r.ASTFingerprint),
			short(r.RowsFingerprint),
		}
	}
	return formatter.Table([]string{"seq", "run", "query", "rows", "ast", "result"}, cells)
}

// short abbreviates a hex fingerprint.
func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

