package model

import (
	"math"
	"time"
)

// OptimalChargingWindow is a recommended interval for energy-intensive
// consumption together with its time-weighted clean-energy share.
type OptimalChargingWindow struct {
	StartTime             time.Time `json:"startTime" yaml:"startTime"`
	EndTime               time.Time `json:"endTime" yaml:"endTime"`
	CleanEnergyPercentage float64   `json:"cleanEnergyPercentage" yaml:"cleanEnergyPercentage"`
}

// Duration returns EndTime - StartTime.
func (w OptimalChargingWindow) Duration() time.Duration { return w.EndTime.Sub(w.StartTime) }

// Overlaps reports whether both windows share at least one instant.
func (w OptimalChargingWindow) Overlaps(o OptimalChargingWindow) bool {
	return w.StartTime.Before(o.EndTime) && o.StartTime.Before(w.EndTime)
}

const roundHalfEps = 1e-9

// Round1 rounds v half-up to one decimal place, the precision used by grid
// feeds for percentages. Results are clamped to [0,100].
func Round1(v float64) float64 {
	// roundHalfEps absorbs binary representation error so 1.15 rounds to 1.2.
	r := math.Floor(v*10+0.5+roundHalfEps) / 10
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
