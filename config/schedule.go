package config

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleConfig drives periodic planning. Each run plans the next Horizon
// for every region and publishes the result. A zero Interval disables it.
type ScheduleConfig struct {
	Interval time.Duration `json:"interval"`
	Regions  []string      `json:"regions"`
	// Duration overrides selector.duration for scheduled runs.
	Duration time.Duration `json:"duration"`
}

// SetDefaults plans nationally when no region is listed.
func (c *ScheduleConfig) SetDefaults() {
	if c.Interval > 0 && len(c.Regions) == 0 {
		c.Regions = []string{"national"}
	}
}

// Validate checks the interval and region names.
func (c ScheduleConfig) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("schedule: interval must not be negative")
	}
	if c.Interval > 0 && c.Interval < time.Minute {
		return fmt.Errorf("schedule: interval %s below one minute", c.Interval)
	}
	if c.Duration < 0 {
		return fmt.Errorf("schedule: duration must not be negative")
	}
	for i, r := range c.Regions {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("schedule: regions[%d] is empty", i)
		}
	}
	return nil
}
