package config

import (
	"fmt"
	"net/url"
	"time"
)

// SentryConfig enables error reporting to Sentry. An empty DSN leaves
// reporting off.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	// FlushTimeout bounds how long shutdown waits for buffered events.
	FlushTimeout time.Duration `json:"flush_timeout"`
}

// SetDefaults fills the environment and flush timeout.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.FlushTimeout == 0 {
		c.FlushTimeout = 2 * time.Second
	}
}

// Validate checks the DSN shape and the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate %.2f outside [0,1]", c.TracesSampleRate)
	}
	if c.FlushTimeout < 0 {
		return fmt.Errorf("sentry: flush_timeout must not be negative")
	}
	if c.DSN == "" {
		return nil
	}
	u, err := url.Parse(c.DSN)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("sentry: invalid dsn %q", c.DSN)
	}
	return nil
}
