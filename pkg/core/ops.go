package core

import (
	"fmt"

	"github.com/leapstack-labs/vcol/pkg/token"
)

// binary holds the row-wise implementation of every pool operator.
// Comparisons yield 1 or 0; NaN compares unequal to everything.
var binary = map[token.Op]func(x, y float64) float64{
	token.Add: func(x, y float64) float64 { return x + y },
	token.Sub: func(x, y float64) float64 { return x - y },
	token.Mul: func(x, y float64) float64 { return x * y },
	token.Div: func(x, y float64) float64 { return x / y },
	token.EQ:  func(x, y float64) float64 { return boolFloat(x == y) },
	token.NE:  func(x, y float64) float64 { return boolFloat(x != y) },
	token.GT:  func(x, y float64) float64 { return boolFloat(x > y) },
	token.LT:  func(x, y float64) float64 { return boolFloat(x < y) },
	token.GE:  func(x, y float64) float64 { return boolFloat(x >= y) },
	token.LE:  func(x, y float64) float64 { return boolFloat(x <= y) },
}

// Apply evaluates `left op right`.
func Apply(op token.Op, left, right Value) (Value, error) {
	fn, ok := binary[op]
	if !ok {
		return Value{}, fmt.Errorf("unknown operator %q", op)
	}
	return Apply2(left, right, fn)
}
