// Package stats summarizes repeated estimates with Student's t confidence
// intervals.
package stats

import (
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/mathutil"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary describes a sample of independent estimates.
type Summary struct {
	Count           int     `json:"count" yaml:"count"`
	Mean            float64 `json:"mean" yaml:"mean"`
	StdDev          float64 `json:"stdDev" yaml:"stdDev"`
	StdErr          float64 `json:"stdErr" yaml:"stdErr"`
	ConfidenceLevel float64 `json:"confidenceLevel" yaml:"confidenceLevel"`
	TValue          float64 `json:"tValue" yaml:"tValue"`
	Lower           float64 `json:"lower" yaml:"lower"`
	Upper           float64 `json:"upper" yaml:"upper"`
}

// HalfWidth returns half the width of the confidence interval.
func (s Summary) HalfWidth() float64 {
	return (s.Upper - s.Lower) / 2
}

// RelativeHalfWidth returns the half-width as a percentage of |mean|, or +Inf
// when the mean is zero.
func (s Summary) RelativeHalfWidth() float64 {
	if s.Mean == 0 {
		return math.Inf(1)
	}
	return mathutil.CalculatePercentage(s.HalfWidth(), math.Abs(s.Mean))
}

// Summarize computes the mean, sample standard deviation, standard error and a
// two-sided Student's t interval with len(values)-1 degrees of freedom.
func Summarize(values []float64, confidenceLevel float64) (Summary, error) {
	if len(values) < 2 {
		return Summary{}, fmt.Errorf("need at least 2 values for a confidence interval, got %d", len(values))
	}
	if !(confidenceLevel > 0 && confidenceLevel < 1) {
		return Summary{}, fmt.Errorf("confidence level must be in (0, 1), got %v", confidenceLevel)
	}

	n := float64(len(values))
	mean := stat.Mean(values, nil)
	std := stat.StdDev(values, nil)
	se := stat.StdErr(std, n)
	t := TCritical(confidenceLevel, n-1)

	return Summary{
		Count:           len(values),
		Mean:            mean,
		StdDev:          std,
		StdErr:          se,
		ConfidenceLevel: confidenceLevel,
		TValue:          t,
		Lower:           mean - t*se,
		Upper:           mean + t*se,
	}, nil
}

// TCritical returns the two-sided Student's t critical value for the given
// confidence level and degrees of freedom.
func TCritical(confidenceLevel, df float64) float64 {
	alpha := 1 - confidenceLevel
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return dist.Quantile(1 - alpha/2)
}

// ColumnMeans returns the mean and sample standard deviation of each column of
// rows. All rows must have the same length.
func ColumnMeans(rows [][]float64) (means, stdDevs []float64) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	means = make([]float64, width)
	stdDevs = make([]float64, width)
	column := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			column[i] = row[j]
		}
		means[j] = stat.Mean(column, nil)
		if len(rows) > 1 {
			stdDevs[j] = stat.StdDev(column, nil)
		}
	}
	return means, stdDevs
}
