package config

import (
	"fmt"
	"time"
)

// GridSimConfig configures the synthetic generation-mix feed.
type GridSimConfig struct {
	// Addr is the listen address of the mock feed server.
	Addr     string        `json:"addr"`
	Seed     int64         `json:"seed"`
	Interval time.Duration `json:"interval"`
	// SolarPeak is the midday solar share in percent.
	SolarPeak float64 `json:"solar_peak"`
	WindMean  float64 `json:"wind_mean"`
	WindNoise float64 `json:"wind_noise"`
	Nuclear   float64 `json:"nuclear"`
	// GapRate is the probability that a sample is dropped from the series.
	GapRate float64 `json:"gap_rate"`
}

// SetDefaults applies fallback values for optional fields.
func (c *GridSimConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":9090"
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Interval <= 0 {
		c.Interval = 30 * time.Minute
	}
	if c.SolarPeak == 0 {
		c.SolarPeak = 30
	}
	if c.WindMean == 0 {
		c.WindMean = 25
	}
	if c.WindNoise == 0 {
		c.WindNoise = 8
	}
	if c.Nuclear == 0 {
		c.Nuclear = 15
	}
}

// Validate checks the configuration ranges.
func (c GridSimConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("gridsim: interval must be positive")
	}
	for name, v := range map[string]float64{
		"solar_peak": c.SolarPeak,
		"wind_mean":  c.WindMean,
		"wind_noise": c.WindNoise,
		"nuclear":    c.Nuclear,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("gridsim: %s must be within [0,100]", name)
		}
	}
	if c.SolarPeak+c.WindMean+c.Nuclear > 100 {
		return fmt.Errorf("gridsim: solar_peak + wind_mean + nuclear exceeds 100")
	}
	if c.GapRate < 0 || c.GapRate >= 1 {
		return fmt.Errorf("gridsim: gap_rate must be within [0,1)")
	}
	return nil
}
