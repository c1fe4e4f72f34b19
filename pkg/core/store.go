package core

import (
	"errors"
	"fmt"
)

// Shape describes how a Store lays out its values.
type Shape int

const (
	// ShapeRecord stores one scalar per field.
	ShapeRecord Shape = iota
	// ShapeColumnar stores one column per field, aligned across rows.
	ShapeColumnar
)

// String returns the shape name.
func (s Shape) String() string {
	if s == ShapeColumnar {
		return "columnar"
	}
	return "record"
}

// Store is the backing data store that expressions read from and write to.
// The engine never allocates or releases a Store; it only reads and writes
// named fields through this contract.
type Store interface {
	// Get returns the value of a field.
	Get(name string) (Value, error)

	// Set adds or overwrites a field.
	Set(name string, v Value) error

	// Shape reports whether values are scalars or columns.
	Shape() Shape
}

// ErrFieldNotFound is returned by stores when a field is absent.
var ErrFieldNotFound = errors.New("field not found")

// FieldNotFoundError names the missing field.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found in store", e.Field)
}

// Unwrap allows errors.Is(err, ErrFieldNotFound).
func (e *FieldNotFoundError) Unwrap() error {
	return ErrFieldNotFound
}
