package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance case: a query compiled against a CUE
// schema, run against fixture data, and checked by assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE files declaring the table blocks (and optionally
	// query blocks). Paths are relative to the scenario file.
	Specs []string `yaml:"specs"`

	// Fixture names the data to load before the query. Only "sample"
	// (the store's embedded fixture) is known; empty loads nothing.
	Fixture string `yaml:"fixture,omitempty"`

	// Setup holds SQL statements run after the fixture.
	Setup []string `yaml:"setup,omitempty"`

	// Query is an inline query document.
	Query yaml.Node `yaml:"query,omitempty"`

	// QueryRef names a query block declared in Specs. Exactly one of
	// Query and QueryRef is set.
	QueryRef string `yaml:"query_ref,omitempty"`

	// CompileOnly skips execution; row assertions are then invalid.
	CompileOnly bool `yaml:"compile_only,omitempty"`

	// Assertions validate the compiled query and its rows.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "sql": rendered SQL equals SQL
	// - "params": bound parameters equal Params
	// - "row_count": number of rows equals Count
	// - "rows": rows match Rows in order (per-row subset match)
	// - "contains_row": some row matches Row (subset match)
	// - "warning": some portability warning contains Contains
	// - "error": compiling or running fails with a message containing Contains
	Type string `yaml:"type"`

	SQL      string           `yaml:"sql,omitempty"`
	Params   []any            `yaml:"params,omitempty"`
	Count    int              `yaml:"count,omitempty"`
	Rows     []map[string]any `yaml:"rows,omitempty"`
	Row      map[string]any   `yaml:"row,omitempty"`
	Contains string           `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertSQL         = "sql"
	AssertParams      = "params"
	AssertRowCount    = "row_count"
	AssertRows        = "rows"
	AssertContainsRow = "contains_row"
	AssertWarning     = "warning"
	AssertError       = "error"
)

// FixtureSample loads the store's embedded people/articles/comments/notes data.
const FixtureSample = "sample"

// LoadScenario reads and parses a scenario YAML file. Spec paths are
// resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. Relative spec paths are joined to
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	hasQuery := s.Query.Kind != 0
	switch {
	case hasQuery && s.QueryRef != "":
		return fmt.Errorf("query and query_ref are mutually exclusive")
	case !hasQuery && s.QueryRef == "":
		return fmt.Errorf("query or query_ref is required")
	}

	switch s.Fixture {
	case "", FixtureSample:
	default:
		return fmt.Errorf("unknown fixture %q", s.Fixture)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.CompileOnly); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, compileOnly bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSQL:
		if a.SQL == "" {
			return fmt.Errorf("assertions[%d]: sql is required for sql", index)
		}
	case AssertParams:
	case AssertRowCount, AssertRows, AssertContainsRow:
		if compileOnly {
			return fmt.Errorf("assertions[%d]: %s needs rows but the scenario is compile_only", index, a.Type)
		}
		if a.Type == AssertRowCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
		if a.Type == AssertContainsRow && len(a.Row) == 0 {
			return fmt.Errorf("assertions[%d]: row is required for contains_row", index)
		}
	case AssertWarning, AssertError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
