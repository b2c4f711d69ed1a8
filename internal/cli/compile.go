package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/BearerPipelineTest/meta-where/internal/compiler"
	"github.com/BearerPipelineTest/meta-where/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Query  string // compile only this query
}

// CompiledQuery is one query block rendered to SQL.
type CompiledQuery struct {
	Name        string   `json:"name"`
	Table       string   `json:"table"`
	SQL         string   `json:"sql"`
	Params      []any    `json:"params"`
	DebugSQL    string   `json:"debug_sql"`
	Warnings    []string `json:"warnings,omitempty"`
	Fingerprint string   `json:"fingerprint"`
}

// CompilationResult holds the compiled queries.
type CompilationResult struct {
	Tables  int             `json:"tables"`
	Queries []CompiledQuery `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile query blocks to SQL",
		Long: `Compile the table and query blocks of a CUE package to SQL.

Every query is rendered as parameterised SQL plus a debug form with the
parameters inlined. Portability warnings are listed per query.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result as JSON to this file")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "compile only the named query")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		return outputCompileError(formatter, loadErrors[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	bundle := loadResult.Bundle
	queries := bundle.Queries
	if opts.Query != "" {
		q, ok := bundle.Query(opts.Query)
		if !ok {
			return outputCompileError(formatter, &LoadError{
				Code:    ErrCodeUnknownQuery,
				Message: fmt.Sprintf("query %q is not declared in %s", opts.Query, specsDir),
			})
		}
		queries = []compiler.NamedQuery{q}
	}

	result := &CompilationResult{Tables: len(bundle.Registry.Tables()), Queries: []CompiledQuery{}}
	var errs []error
	for _, q := range queries {
		formatter.VerboseLog("Compiling query: %s", q.Name)
		plan, err := q.Query.Relation(bundle.Registry).Plan()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeInvalidQuery, Field: "query." + q.Name, Message: err.Error(), Pos: q.Pos})
			continue
		}
		slog.Debug("query compiled", "query", q.Name, "fingerprint", plan.Fingerprint)
		result.Queries = append(result.Queries, CompiledQuery{
			Name:        q.Name,
			Table:       q.Query.Table,
			SQL:         plan.SQL,
			Params:      nonNil(plan.Params),
			DebugSQL:    querysql.DebugSQL(plan.SQL, plan.Params),
			Warnings:    plan.Warnings,
			Fingerprint: plan.Fingerprint,
		})
	}
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func nonNil(params []any) []any {
	if params == nil {
		return []any{}
	}
	return params
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d table(s), %d query(s)\n", result.Tables, len(result.Queries))

	for _, q := range result.Queries {
		fmt.Fprintf(w, "\n%s:\n", q.Name)
		fmt.Fprintf(w, "  sql:    %s\n", q.SQL)
		fmt.Fprintf(w, "  params: %s\n", formatParams(q.Params))
		fmt.Fprintf(w, "  debug:  %s\n", q.DebugSQL)
		for _, warning := range q.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote compiled queries to %s\n", outputFile)
	}

	return nil
}

func formatParams(params []any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}

// outputCompileError outputs a single command-level error.
func outputCompileError(formatter *OutputFormatter, err error) error {
	code, message := parseLoadError(err)
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.Errors(cliErrors, nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Compilation failed")
	fmt.Fprintln(w)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(w, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(w, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Field != "" {
			return loadErr.Code, loadErr.Field + ": " + loadErr.Message
		}
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
