package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/google/uuid"

	"github.com/BearerPipelineTest/meta-where/internal/compiler"
	"github.com/BearerPipelineTest/meta-where/internal/querydoc"
	"github.com/BearerPipelineTest/meta-where/internal/querysql"
	"github.com/BearerPipelineTest/meta-where/internal/relation"
	"github.com/BearerPipelineTest/meta-where/internal/store"
)

// RunIDGenerator produces run IDs.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Harness runs scenarios. Each run gets a fresh in-memory database.
type Harness struct {
	runIDs RunIDGenerator
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithRunIDs replaces the UUIDv7 run IDs, e.g. with a fixed generator
// for golden snapshots.
func WithRunIDs(g RunIDGenerator) Option {
	return func(h *Harness) { h.runIDs = g }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{runIDs: UUIDv7Generator{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Compile the CUE specs into a schema registry
// 2. Decode the query and compile it to SQL
// 3. Load the fixture and setup into a fresh in-memory database
// 4. Execute the SQL
// 5. Evaluate assertions
//
// Compile and execution errors of the query land in Result.Failure so
// scenarios can expect them. Broken scenario inputs (unreadable specs,
// unknown query_ref, failing setup SQL) are returned as errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult(h.runIDs.Generate())
	log := h.logger.With("run_id", result.RunID, "scenario", scenario.Name)

	bundle, err := LoadSpecs(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}

	rel, err := h.relation(bundle, scenario)
	if err != nil {
		var rerr *refError
		if errors.As(err, &rerr) {
			return nil, err
		}
		result.Failure = err.Error()
	}

	if rel != nil {
		if err := h.execute(ctx, rel, scenario, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	log.Debug("scenario run",
		"pass", result.Pass,
		"rows", len(result.Rows),
		"failure", result.Failure)
	return result, nil
}

type refError struct{ name string }

func (e *refError) Error() string {
	return fmt.Sprintf("query_ref %q is not declared in the specs", e.name)
}

func (h *Harness) relation(bundle *compiler.Bundle, scenario *Scenario) (*relation.Relation, error) {
	if scenario.QueryRef != "" {
		q, ok := bundle.Query(scenario.QueryRef)
		if !ok {
			return nil, &refError{name: scenario.QueryRef}
		}
		return q.Query.Relation(bundle.Registry), nil
	}
	doc, err := querydoc.FromYAML(&scenario.Query)
	if err != nil {
		return nil, err
	}
	q, err := querydoc.Decode(doc)
	if err != nil {
		return nil, err
	}
	return q.Relation(bundle.Registry), nil
}

// execute compiles rel and, unless the scenario is compile-only, runs it.
func (h *Harness) execute(ctx context.Context, rel *relation.Relation, scenario *Scenario, result *Result) error {
	plan, err := rel.Plan()
	if err != nil {
		result.Failure = err.Error()
		return nil
	}
	result.SQL = plan.SQL
	result.Params = plan.Params
	result.DebugSQL = querysql.DebugSQL(plan.SQL, plan.Params)
	result.Warnings = plan.Warnings
	result.ASTFingerprint = plan.Fingerprint

	if scenario.CompileOnly {
		return nil
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if scenario.Fixture == FixtureSample {
		if err := st.LoadSample(ctx); err != nil {
			return err
		}
	}
	for i, stmt := range scenario.Setup {
		if _, err := st.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	res, err := st.Query(ctx, plan.SQL, plan.Params...)
	if err != nil {
		result.Failure = err.Error()
		return nil
	}
	result.Columns = res.Columns
	result.Rows = res.Rows
	result.RowsFingerprint, err = res.Fingerprint()
	return err
}

// LoadSpecs compiles CUE files into one bundle. The files are unified,
// so tables and queries may be spread across them.
func LoadSpecs(paths []string) (*compiler.Bundle, error) {
	ctx := cuecontext.New()
	var v cue.Value
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		fv := ctx.CompileBytes(data, cue.Filename(p))
		if err := fv.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if i == 0 {
			v = fv
		} else {
			v = v.Unify(fv)
		}
	}
	return compiler.Compile(v)
}
