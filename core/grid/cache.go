package grid

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// Cache stores fetched series by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]model.Sample, bool, error)
	Set(ctx context.Context, key string, samples []model.Sample, ttl time.Duration) error
}

type memoryEntry struct {
	samples []model.Sample
	expires time.Time
}

// MemoryCache is a process-local Cache. Expired entries are dropped lazily.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]model.Sample, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]model.Sample(nil), e.samples...), true, nil
}

// Set stores a copy of samples. A non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, samples []model.Sample, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{samples: append([]model.Sample(nil), samples...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
