// Package stats computes summary statistics over a set of scores.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the statistics of a set of scores.
// Average, StdDeviation and Median are rounded to 2 decimal places; Min and Max are returned as given.
type Summary struct {
	Average      float64 `json:"average"`
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min_marks"`
	Max          float64 `json:"max_marks"`
	Median       float64 `json:"median_marks"`
	Count        int     `json:"count"`
}

// Compute returns the Summary of scores. The population standard deviation is used (divisor N).
// An empty input yields a zero Summary. scores is not modified.
func Compute(scores []float64) Summary {
	n := len(scores)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	avg, std := stat.PopMeanStdDev(sorted, nil)

	return Summary{
		Average:      Round(avg),
		StdDeviation: Round(std),
		Min:          sorted[0],
		Max:          sorted[n-1],
		Median:       Round(median(sorted)),
		Count:        n,
	}
}

// median of an already sorted, non-empty slice.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Round rounds x to 2 decimal places.
func Round(x float64) float64 {
	return math.Round(x*100) / 100
}
