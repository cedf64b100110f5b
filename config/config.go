package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/metrics"
)

type Config struct {
	Provider   ProviderConfig         `json:"provider"`
	Selector   SelectorConfig         `json:"selector"`
	Cache      CacheConfig            `json:"cache"`
	Metrics    metrics.Config         `json:"metrics"`
	Audit      AuditConfig            `json:"audit"`
	Publishers []factory.ModuleConfig `json:"publishers"`
	Schedule   ScheduleConfig         `json:"schedule"`
	Server     ServerConfig           `json:"server"`
	Sentry     SentryConfig           `json:"sentry"`
	Logging    LoggingConfig          `json:"logging"`
	GridSim    GridSimConfig          `json:"gridsim"`
}

// Default returns a configuration with every section defaulted, used when no
// file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides: K_SERVER__ADDR sets server.addr.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Provider.SetDefaults()
	c.Selector.SetDefaults()
	c.Cache.SetDefaults()
	c.Metrics.SetDefaults()
	c.Audit.SetDefaults()
	c.Schedule.SetDefaults()
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	c.GridSim.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return err
	}
	if err := c.Selector.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Audit.Validate(); err != nil {
		return err
	}
	for i, p := range c.Publishers {
		if p.Type == "" {
			return fmt.Errorf("publishers[%d]: type is required", i)
		}
	}
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	if c.Schedule.Interval > 0 && c.Schedule.Duration == 0 && c.Selector.Duration == 0 {
		return fmt.Errorf("schedule: duration or selector.duration is required")
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	return c.GridSim.Validate()
}
