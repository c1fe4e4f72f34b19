package functions

import (
	"math"
	"sort"

	"github.com/leapstack-labs/vcol/pkg/core"
)

var builtins = map[string]Func{
	"nanmean":   reduce(mean),
	"nanmedian": reduce(median),
	"nansum":    reduce(sum),
	"nanmin":    reduce(minimum),
	"nanmax":    reduce(maximum),
}

// reduce lifts fn into a row-wise reduction across arguments. NaN inputs are
// skipped and a row with no remaining inputs yields NaN. Scalar arguments
// broadcast against columns; all-scalar calls return a scalar.
func reduce(fn func(vals []float64) float64) Func {
	return func(args []core.Value) (core.Value, error) {
		if len(args) == 0 {
			return core.NaN(), nil
		}
		n, column, err := core.Rows(args...)
		if err != nil {
			return core.Value{}, err
		}

		out := make([]float64, n)
		vals := make([]float64, 0, len(args))
		for i := range out {
			vals = vals[:0]
			for _, a := range args {
				if f := a.At(i); !math.IsNaN(f) {
					vals = append(vals, f)
				}
			}
			if len(vals) == 0 {
				out[i] = math.NaN()
				continue
			}
			out[i] = fn(vals)
		}

		if !column {
			return core.Scalar(out[0]), nil
		}
		return core.Column(out), nil
	}
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func mean(vals []float64) float64 {
	return sum(vals) / float64(len(vals))
}

// median sorts vals in place.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

func minimum(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maximum(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Max(m, v)
	}
	return m
}
