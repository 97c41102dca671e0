package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   Summary
	}{
		{name: "empty", scores: nil, want: Summary{}},
		{name: "single", scores: []float64{42.5}, want: Summary{Average: 42.5, Min: 42.5, Max: 42.5, Median: 42.5, Count: 1}},
		{name: "odd", scores: []float64{90, 70, 80}, want: Summary{Average: 80, StdDeviation: 8.16, Min: 70, Max: 90, Median: 80, Count: 3}},
		{name: "even", scores: []float64{10, 40, 20, 30}, want: Summary{Average: 25, StdDeviation: 11.18, Min: 10, Max: 40, Median: 25, Count: 4}},
		{name: "identical", scores: []float64{5, 5, 5}, want: Summary{Average: 5, Min: 5, Max: 5, Median: 5, Count: 3}},
		{name: "rounding", scores: []float64{1, 2, 2}, want: Summary{Average: 1.67, StdDeviation: 0.47, Min: 1, Max: 2, Median: 2, Count: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.scores))
		})
	}
}

func TestComputeMatchesDefinitions(t *testing.T) {
	scores := []float64{12, 3.5, 99, 47, 47, 0, 61.25}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	var sq float64
	for _, s := range scores {
		sq += (s - avg) * (s - avg)
	}

	got := Compute(scores)
	assert.Equal(t, Round(avg), got.Average)
	assert.Equal(t, Round(math.Sqrt(sq/float64(len(scores)))), got.StdDeviation, "population stddev")
	assert.Equal(t, 47.0, got.Median)
	assert.Equal(t, 0.0, got.Min)
	assert.Equal(t, 99.0, got.Max)
}

func TestComputeIsOrderIndependent(t *testing.T) {
	a := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	b := []float64{9, 6, 5, 4, 3, 2, 1, 1}
	assert.Equal(t, Compute(a), Compute(b))
	assert.Equal(t, []float64{3, 1, 4, 1, 5, 9, 2, 6}, a, "input must not be sorted in place")
}
