package config

import (
	"fmt"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/grid"
)

// ProviderConfig selects the grid data source. Conf is decoded by the
// provider registered under Type.
type ProviderConfig struct {
	Type  string           `json:"type"`
	Conf  map[string]any   `json:"conf"`
	Retry grid.RetryConfig `json:"retry"`
}

// SetDefaults applies sane defaults.
func (c *ProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "carbonintensity"
	}
}

// Validate checks mandatory fields.
func (c ProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("provider: type is required")
	}
	if c.Retry.MaxAttempts < 0 || c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("provider.retry: values must not be negative")
	}
	return nil
}

// Module returns the registry entry for the provider.
func (c ProviderConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: c.Conf}
}
