package model

import (
	"fmt"
	"time"
)

// GenerationMix is one fuel's share of total generation during a sample.
type GenerationMix struct {
	Fuel string  `json:"fuel" yaml:"fuel"`
	Perc float64 `json:"perc" yaml:"perc"` // percentage in [0,100]
}

// Validate checks the fuel identifier and percentage range.
func (g GenerationMix) Validate() error {
	if g.Fuel == "" {
		return fmt.Errorf("empty fuel identifier")
	}
	if !inPercentRange(g.Perc) {
		return fmt.Errorf("fuel %s: perc %.2f outside [0,100]", g.Fuel, g.Perc)
	}
	return nil
}

// Sample is one reporting interval of the grid feed with its precomputed
// clean-energy share. The wire contract calls it AvgWithCleanEnergy.
type Sample struct {
	From          time.Time       `json:"from" yaml:"from"`
	To            time.Time       `json:"to" yaml:"to"`
	GenerationMix []GenerationMix `json:"generationmix" yaml:"generationmix"`
	// CleanEnergy is authoritative. It is never recomputed from GenerationMix.
	CleanEnergy float64 `json:"cleanenergy" yaml:"cleanenergy"`
}

// AvgWithCleanEnergy is the contract name of Sample.
type AvgWithCleanEnergy = Sample

// Duration returns the length of the reporting interval.
func (s Sample) Duration() time.Duration { return s.To.Sub(s.From) }

// Contains reports whether t lies in [From, To).
func (s Sample) Contains(t time.Time) bool {
	return !t.Before(s.From) && t.Before(s.To)
}

// MixTotal sums the generation mix percentages. Feeds round each entry so the
// total is only approximately 100.
func (s Sample) MixTotal() float64 {
	var total float64
	for _, g := range s.GenerationMix {
		total += g.Perc
	}
	return total
}

// Validate checks the interval bounds, the clean-energy range and each fuel entry.
func (s Sample) Validate() error {
	if !s.From.Before(s.To) {
		return fmt.Errorf("non-positive interval %s..%s", s.From.Format(time.RFC3339), s.To.Format(time.RFC3339))
	}
	if !inPercentRange(s.CleanEnergy) {
		return fmt.Errorf("cleanenergy %.2f outside [0,100]", s.CleanEnergy)
	}
	for _, g := range s.GenerationMix {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}
