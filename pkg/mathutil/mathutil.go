// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/decision-analysis/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for presentation and logical comparisons of money amounts.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Sum adds all values.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Dot returns the weighted sum Σ weights[i]*values[i]. The slices must have
// equal length; extra elements of the longer slice are ignored.
func Dot(weights, values []float64) float64 {
	n := len(weights)
	if len(values) < n {
		n = len(values)
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += weights[i] * values[i]
	}
	return total
}

// SumsToOne reports whether the values form a probability vector: all
// finite and non-negative, with a sum within ProbabilityTolerance of one.
func SumsToOne(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return WithinTolerance(Sum(values), 1, constants.ProbabilityTolerance)
}

// ArgMax returns the index of the largest value. Ties resolve to the lowest
// index. It returns -1 for an empty slice.
func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// ArgMin returns the index of the smallest value. Ties resolve to the lowest
// index. It returns -1 for an empty slice.
func ArgMin(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v < values[best] {
			best = i
		}
	}
	return best
}

// ClampNoise returns zero for values within tolerance of zero and the value
// unchanged otherwise.
func ClampNoise(val, tolerance float64) float64 {
	if math.Abs(val) <= tolerance {
		return 0
	}
	return val
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
