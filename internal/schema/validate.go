package schema

import (
	"errors"
	"fmt"
	"regexp"
)

// Validation error codes (E200-E299)
const (
	ErrTableNoName        = "E201" // table name is required
	ErrInvalidIdentifier  = "E202" // table/column/association name is not an identifier
	ErrUnknownTarget      = "E203" // association target table is not registered
	ErrMissingForeignKey  = "E204" // foreign key column not declared on the table holding it
	ErrPolymorphicTarget  = "E205" // polymorphic association with a fixed target
	ErrInverseNotFound    = "E206" // as: names no polymorphic belongs_to on the target
	ErrInvalidKind        = "E207" // unknown association kind
	ErrMissingPrimaryKey  = "E208" // primary key column not declared
	ErrDuplicateColumn    = "E209" // column declared twice
	ErrAssociationShadows = "E210" // association name equals a column name
)

// ErrUnknownAssociation is wrapped by every LookupError.
var ErrUnknownAssociation = errors.New("unknown association")

// LookupError reports an association that cannot be followed.
type LookupError struct {
	Table       string
	Association string
	Reason      string
}

func (e *LookupError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s.%s", ErrUnknownAssociation, e.Table, e.Association)
	}
	return fmt.Sprintf("%s: %s.%s: %s", ErrUnknownAssociation, e.Table, e.Association, e.Reason)
}

func (e *LookupError) Unwrap() error {
	return ErrUnknownAssociation
}

// ValidationError is one schema rule violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks every table of the registry and returns all violations
// (it does not fail fast). Tables are checked in name order.
func (r *Registry) Validate() []ValidationError {
	var errs []ValidationError
	for _, t := range r.Tables() {
		errs = append(errs, r.validateTable(t)...)
	}
	return errs
}

func (r *Registry) validateTable(t *Table) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if t.Name == "" {
		add("table", ErrTableNoName, "table name is required")
		return errs
	}
	if !identRe.MatchString(t.Name) {
		add(t.Name, ErrInvalidIdentifier, "table name %q is not an identifier", t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		field := fmt.Sprintf("%s.columns[%d]", t.Name, i)
		if !identRe.MatchString(c) {
			add(field, ErrInvalidIdentifier, "column %q is not an identifier", c)
		}
		if seen[c] {
			add(field, ErrDuplicateColumn, "duplicate column %q", c)
		}
		seen[c] = true
	}
	if !t.HasColumn(t.PrimaryKey) {
		add(t.Name+".primary_key", ErrMissingPrimaryKey, "primary key %q is not a declared column", t.PrimaryKey)
	}

	for _, a := range t.Associations() {
		field := t.Name + "." + a.Name
		if !identRe.MatchString(a.Name) {
			add(field, ErrInvalidIdentifier, "association name %q is not an identifier", a.Name)
		}
		if len(t.Columns) > 0 && seen[a.Name] {
			add(field, ErrAssociationShadows, "association %q has the same name as a column", a.Name)
		}
		switch a.Kind {
		case BelongsTo:
			errs = append(errs, r.validateBelongsTo(t, a, field)...)
		case HasMany, HasOne:
			errs = append(errs, r.validateHas(t, a, field)...)
		default:
			add(field, ErrInvalidKind, "unknown association kind %q", a.Kind)
		}
	}
	return errs
}

func (r *Registry) validateBelongsTo(t *Table, a *Association, field string) []ValidationError {
	var errs []ValidationError
	if !t.HasColumn(a.ForeignKey) {
		errs = append(errs, ValidationError{Field: field, Code: ErrMissingForeignKey,
			Message: fmt.Sprintf("foreign key %q is not a column of %q", a.ForeignKey, t.Name)})
	}
	if a.Polymorphic {
		if a.Target != "" {
			errs = append(errs, ValidationError{Field: field, Code: ErrPolymorphicTarget,
				Message: fmt.Sprintf("polymorphic association cannot name target %q", a.Target)})
		}
		if !t.HasColumn(a.TypeColumn) {
			errs = append(errs, ValidationError{Field: field, Code: ErrMissingForeignKey,
				Message: fmt.Sprintf("type column %q is not a column of %q", a.TypeColumn, t.Name)})
		}
		return errs
	}
	if _, ok := r.Table(a.Target); !ok {
		errs = append(errs, ValidationError{Field: field, Code: ErrUnknownTarget,
			Message: fmt.Sprintf("target table %q is not registered", a.Target)})
	}
	return errs
}

func (r *Registry) validateHas(t *Table, a *Association, field string) []ValidationError {
	var errs []ValidationError
	target, ok := r.Table(a.Target)
	if !ok {
		return append(errs, ValidationError{Field: field, Code: ErrUnknownTarget,
			Message: fmt.Sprintf("target table %q is not registered", a.Target)})
	}
	if !target.HasColumn(a.ForeignKey) {
		errs = append(errs, ValidationError{Field: field, Code: ErrMissingForeignKey,
			Message: fmt.Sprintf("foreign key %q is not a column of %q", a.ForeignKey, target.Name)})
	}
	if a.As != "" {
		inverse, ok := target.Association(a.As)
		if !ok || !inverse.Polymorphic {
			errs = append(errs, ValidationError{Field: field, Code: ErrInverseNotFound,
				Message: fmt.Sprintf("%q has no polymorphic belongs_to %q", target.Name, a.As)})
		}
		if t.Class == "" {
			errs = append(errs, ValidationError{Field: field, Code: ErrInverseNotFound,
				Message: fmt.Sprintf("table %q needs a class to be the target of %q", t.Name, a.As)})
		}
	}
	return errs
}
