// Package errdefs defines the error kinds shared by the compiler, the
// sources and the catalog. Callers test for them with errors.Is / errors.As.
package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks invalid user input: unknown style keys, legend
	// types, widget types, classification methods or source types.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a catalog lookup with no matching row.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedOperation marks a row-scoped operation invoked on
	// something that is not a row.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrConflict marks a create that collides with an existing id.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries the offending value and the accepted values.
type ValidationError struct {
	Field string
	Value string
	Valid []string
}

// Invalid builds a ValidationError.
func Invalid(field, value string, valid ...string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Valid: valid}
}

func (e *ValidationError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: available values are %s", e.Field, e.Value, QuoteList(e.Valid))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is returned when an entity lookup matches nothing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Unsupported wraps ErrUnsupportedOperation with the operation name.
func Unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, fmt.Sprintf(format, args...))
}

// QuoteList renders values as `"a", "b", "c"`.
func QuoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, ", ")
}
