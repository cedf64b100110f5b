package audit

import (
	"fmt"

	"github.com/kilianp07/cleancharge/config"
	coreaudit "github.com/kilianp07/cleancharge/core/audit"
)

// Open builds the store selected by cfg.Backend.
func Open(cfg config.AuditConfig) (coreaudit.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "none":
		return coreaudit.NopStore{}, nil
	case "memory":
		return coreaudit.NewMemoryStore(), nil
	case "jsonl":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	}
	return nil, fmt.Errorf("audit: unknown backend %s", cfg.Backend)
}
