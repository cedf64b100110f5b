package model

import "strings"

// FuelTaxonomy lists the fuels a data provider classifies as clean. It is only
// consulted by provider adapters whose upstream feed carries no precomputed
// clean-energy value.
type FuelTaxonomy struct {
	Clean []string `json:"clean" yaml:"clean"`
}

// DefaultFuelTaxonomy mirrors the low-carbon grouping published by the GB
// Carbon Intensity feed.
func DefaultFuelTaxonomy() FuelTaxonomy {
	return FuelTaxonomy{Clean: []string{"biomass", "nuclear", "hydro", "wind", "solar"}}
}

// IsClean reports whether fuel is part of the clean set. Matching ignores case.
func (t FuelTaxonomy) IsClean(fuel string) bool {
	for _, f := range t.Clean {
		if strings.EqualFold(f, fuel) {
			return true
		}
	}
	return false
}

// CleanPercentage sums the shares of clean fuels in mix, capped to [0,100].
func (t FuelTaxonomy) CleanPercentage(mix []GenerationMix) float64 {
	var sum float64
	for _, g := range mix {
		if t.IsClean(g.Fuel) {
			sum += g.Perc
		}
	}
	if sum > 100 {
		return 100
	}
	if sum < 0 {
		return 0
	}
	return sum
}
