package dag

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	ErrUndefinedField = errors.New("undefined field")
	ErrCycle          = errors.New("cycle detected")
)

// UndefinedFieldError reports a reference to a name that has no logic entry.
type UndefinedFieldError struct {
	// Field is the field whose expression holds the reference. It is empty
	// when the name was requested directly, e.g. as a dependency target.
	Field string
	Ref   string
}

func (e *UndefinedFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("undefined field %q", e.Ref)
	}
	return fmt.Sprintf("field %q references undefined field %q", e.Field, e.Ref)
}

func (e *UndefinedFieldError) Unwrap() error {
	return ErrUndefinedField
}

// CycleError reports a circular dependency. Path starts and ends with the
// same field.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}
