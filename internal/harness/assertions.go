package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Rendered statement for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "\nSQL:\n  %s\n", e.SQL)
	}

	return buf.String()
}

func fail(result *Result, typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, SQL: result.DebugSQL}
}

func assertSQL(result *Result, a Assertion) error {
	if result.SQL == a.SQL {
		return nil
	}
	return fail(result, AssertSQL, a.SQL, result.SQL)
}

func assertParams(result *Result, a Assertion) error {
	expected, err := irList(a.Params)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	actual, err := irList(result.Params)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if reflect.DeepEqual(expected, actual) {
		return nil
	}
	return fail(result, AssertParams, formatValue(expected), formatValue(actual))
}

func assertRowCount(result *Result, a Assertion) error {
	if len(result.Rows) == a.Count {
		return nil
	}
	return fail(result, AssertRowCount, fmt.Sprintf("%d rows", a.Count), fmt.Sprintf("%d rows", len(result.Rows)))
}

// assertRows checks rows in order. Each expected row is a subset match:
// extra columns in the actual row are ignored.
func assertRows(result *Result, a Assertion) error {
	if len(result.Rows) != len(a.Rows) {
		return fail(result, AssertRows,
			fmt.Sprintf("%d rows %v", len(a.Rows), a.Rows),
			fmt.Sprintf("%d rows %s", len(result.Rows), formatRows(result.Rows)))
	}
	for i, want := range a.Rows {
		ok, err := matchRow(result.Rows[i], want)
		if err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
		if !ok {
			return fail(result, AssertRows,
				fmt.Sprintf("row %d matching %v", i, want),
				formatValue(result.Rows[i]))
		}
	}
	return nil
}

func assertContainsRow(result *Result, a Assertion) error {
	for _, row := range result.Rows {
		ok, err := matchRow(row, a.Row)
		if err != nil {
			return fmt.Errorf("row: %w", err)
		}
		if ok {
			return nil
		}
	}
	return fail(result, AssertContainsRow,
		fmt.Sprintf("a row matching %v", a.Row),
		formatRows(result.Rows))
}

func assertWarning(result *Result, a Assertion) error {
	for _, w := range result.Warnings {
		if strings.Contains(w, a.Contains) {
			return nil
		}
	}
	return fail(result, AssertWarning,
		fmt.Sprintf("a warning containing %q", a.Contains),
		fmt.Sprintf("%q", result.Warnings))
}

func assertError(result *Result, a Assertion) error {
	if result.Failure == "" {
		return fail(result, AssertError, fmt.Sprintf("an error containing %q", a.Contains), "no error")
	}
	if strings.Contains(result.Failure, a.Contains) {
		return nil
	}
	return fail(result, AssertError, fmt.Sprintf("an error containing %q", a.Contains), result.Failure)
}

// matchRow checks that actual has every column of expected with an
// equal value. YAML values are converted to IR values first.
func matchRow(actual ir.IRObject, expected map[string]any) (bool, error) {
	for key, want := range expected {
		got, exists := actual[key]
		if !exists {
			return false, nil
		}
		wantIR, err := ir.FromGo(want)
		if err != nil {
			return false, fmt.Errorf("column %q: %w", key, err)
		}
		if !reflect.DeepEqual(got, wantIR) {
			return false, nil
		}
	}
	return true, nil
}

func irList(values []any) (ir.IRArray, error) {
	out := make(ir.IRArray, len(values))
	for i, v := range values {
		iv, err := ir.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = iv
	}
	return out, nil
}

func formatValue(v ir.IRValue) string {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func formatRows(rows []ir.IRObject) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = formatValue(r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
//
// When the run failed only error assertions are evaluated; a failure no
// assertion expects is itself reported.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	if result.Failure != "" {
		expected := false
		for _, a := range assertions {
			if a.Type != AssertError {
				continue
			}
			expected = true
			if err := assertError(result, a); err != nil {
				errors = append(errors, err.Error())
			}
		}
		if !expected {
			errors = append(errors, "unexpected failure: "+result.Failure)
		}
		return errors
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSQL:
			err = assertSQL(result, assertion)
		case AssertParams:
			err = assertParams(result, assertion)
		case AssertRowCount:
			err = assertRowCount(result, assertion)
		case AssertRows:
			err = assertRows(result, assertion)
		case AssertContainsRow:
			err = assertContainsRow(result, assertion)
		case AssertWarning:
			err = assertWarning(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
