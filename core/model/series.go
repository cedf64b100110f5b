package model

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Series is a time-ordered sequence of samples.
type Series []Sample

// Span returns the instant range from the first sample start to the last
// sample end, gaps included. An empty series spans nothing.
func (s Series) Span() time.Duration {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].To.Sub(s[0].From)
}

// Coverage returns the summed duration of all samples.
func (s Series) Coverage() time.Duration {
	var total time.Duration
	for _, smp := range s {
		total += smp.Duration()
	}
	return total
}

// Start returns the start of the first sample.
func (s Series) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].From
}

// End returns the end of the last sample.
func (s Series) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].To
}

// TimeWeightedAverage returns the clean-energy average weighted by sample
// duration. It returns 0 for an empty series.
func (s Series) TimeWeightedAverage() float64 {
	if len(s) == 0 {
		return 0
	}
	values := make([]float64, len(s))
	weights := make([]float64, len(s))
	for i, smp := range s {
		values[i] = smp.CleanEnergy
		weights[i] = smp.Duration().Seconds()
	}
	return stat.Mean(values, weights)
}

// Gaps returns the number of adjacent sample pairs that are not contiguous.
func (s Series) Gaps() int {
	n := 0
	for i := 1; i < len(s); i++ {
		if !s[i].From.Equal(s[i-1].To) {
			n++
		}
	}
	return n
}
