package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/core/window"
)

// SelectorConfig holds the default window search options. Requests may
// override each of them.
type SelectorConfig struct {
	// Duration is the default charging duration. Zero means requests must
	// carry one.
	Duration    time.Duration `json:"duration"`
	Granularity time.Duration `json:"granularity"`
	TieBreak    string        `json:"tie_break"`
	// PartialEdges allows windows to start or end inside a sample. Unset
	// means allowed.
	PartialEdges *bool   `json:"partial_edges"`
	Epsilon      float64 `json:"epsilon"`
	// Horizon bounds searches whose request has no end time.
	Horizon time.Duration `json:"horizon"`
}

// SetDefaults applies sane defaults.
func (c *SelectorConfig) SetDefaults() {
	if c.TieBreak == "" {
		c.TieBreak = window.TieBreakEarliest.String()
	}
	if c.Horizon == 0 {
		c.Horizon = 48 * time.Hour
	}
}

// Validate checks value ranges.
func (c SelectorConfig) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("selector: duration must not be negative")
	}
	if c.Horizon < 0 {
		return fmt.Errorf("selector: horizon must not be negative")
	}
	_, err := c.Options()
	return err
}

// Options converts the section into window.Options.
func (c SelectorConfig) Options() (window.Options, error) {
	tb, err := window.ParseTieBreak(c.TieBreak)
	if err != nil {
		return window.Options{}, fmt.Errorf("selector: %w", err)
	}
	opts := window.Options{
		Granularity: c.Granularity,
		TieBreak:    tb,
		Epsilon:     c.Epsilon,
	}
	if c.PartialEdges != nil {
		opts.PartialEdges = window.PartialEdgesFrom(*c.PartialEdges)
	}
	if err := opts.Validate(); err != nil {
		return window.Options{}, fmt.Errorf("selector: %w", err)
	}
	return opts, nil
}

// PlannerConfig returns the planner defaults described by the section.
func (c SelectorConfig) PlannerConfig() (planner.Config, error) {
	opts, err := c.Options()
	if err != nil {
		return planner.Config{}, err
	}
	return planner.Config{Options: opts, Horizon: c.Horizon}, nil
}
