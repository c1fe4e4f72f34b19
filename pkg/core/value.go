package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrLengthMismatch is returned when two column values of different
// lengths are combined.
var ErrLengthMismatch = errors.New("column length mismatch")

// Value is the unit of data flowing through an expression: either a single
// float64 (scalar) or a column of float64 values aligned across rows.
//
// Booleans are represented as 1 and 0. A column Value shares its backing
// slice with whatever produced it; operations never modify their inputs.
type Value struct {
	data   []float64
	column bool
}

// Scalar returns a scalar Value.
func Scalar(f float64) Value {
	return Value{data: []float64{f}}
}

// Bool returns 1 or 0 as a scalar Value.
func Bool(b bool) Value {
	return Scalar(boolFloat(b))
}

// Column returns a column Value backed by data. The slice is not copied.
func Column(data []float64) Value {
	if data == nil {
		data = []float64{}
	}
	return Value{data: data, column: true}
}

// NaN returns a scalar NaN.
func NaN() Value {
	return Scalar(math.NaN())
}

// IsColumn reports whether v is column-shaped.
func (v Value) IsColumn() bool {
	return v.column
}

// Len returns the number of rows in a column, or 1 for a scalar.
func (v Value) Len() int {
	if !v.column {
		return 1
	}
	return len(v.data)
}

// At returns row i. Scalars return their single value for every row.
func (v Value) At(i int) float64 {
	if !v.column {
		return v.Float()
	}
	return v.data[i]
}

// Float returns the scalar value, or the first row of a column. An empty
// or zero Value yields NaN.
func (v Value) Float() float64 {
	if len(v.data) == 0 {
		return math.NaN()
	}
	return v.data[0]
}

// Floats returns a copy of the rows of v.
func (v Value) Floats() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// View returns the backing slice without copying.
func (v Value) View() []float64 {
	return v.data
}

// First reduces a Value to a scalar holding its first row.
func (v Value) First() Value {
	return Scalar(v.Float())
}

// Broadcast expands v to a column of n rows. Columns are returned as is.
func (v Value) Broadcast(n int) Value {
	if v.column {
		return v
	}
	out := make([]float64, n)
	f := v.Float()
	for i := range out {
		out[i] = f
	}
	return Column(out)
}

// String formats v for diagnostics.
func (v Value) String() string {
	if !v.column {
		return FormatFloat(v.Float())
	}
	parts := make([]string, len(v.data))
	for i, f := range v.data {
		parts[i] = FormatFloat(f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// FormatFloat renders a float in its shortest round-trip form.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Rows returns the common row count of the given values. Scalars match any
// row count; when every value is a scalar, column is false.
func Rows(values ...Value) (n int, column bool, err error) {
	n = 1
	for _, v := range values {
		if !v.column {
			continue
		}
		if !column {
			n, column = len(v.data), true
			continue
		}
		if len(v.data) != n {
			return 0, false, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, n, len(v.data))
		}
	}
	return n, column, nil
}

// Apply2 combines two values row by row, broadcasting scalars.
func Apply2(a, b Value, fn func(x, y float64) float64) (Value, error) {
	n, column, err := Rows(a, b)
	if err != nil {
		return Value{}, err
	}
	if !column {
		return Scalar(fn(a.Float(), b.Float())), nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = fn(a.At(i), b.At(i))
	}
	return Column(out), nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
