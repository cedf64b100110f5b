package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/cleancharge/infra/cache"
)

// CacheConfig selects the series cache placed in front of the provider.
type CacheConfig struct {
	// Backend is "none", "memory" or "redis".
	Backend string            `json:"backend"`
	TTL     time.Duration     `json:"ttl"`
	Redis   cache.RedisConfig `json:"redis"`
}

// SetDefaults applies sane defaults.
func (c *CacheConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.TTL == 0 {
		c.TTL = 15 * time.Minute
	}
}

// Validate checks the backend settings.
func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "none", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("cache.redis: addr is required")
		}
	default:
		return fmt.Errorf("cache: unknown backend %s", c.Backend)
	}
	if c.TTL < 0 {
		return fmt.Errorf("cache: ttl must not be negative")
	}
	return nil
}
