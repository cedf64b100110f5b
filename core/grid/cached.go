package grid

import (
	"context"
	"time"

	"github.com/kilianp07/cleancharge/core/logger"
	"github.com/kilianp07/cleancharge/core/metrics"
	"github.com/kilianp07/cleancharge/core/model"
)

// CachedProvider is a read-through cache in front of another Provider. Cache
// failures are logged and never fail the fetch.
type CachedProvider struct {
	Inner   Provider
	Cache   Cache
	TTL     time.Duration
	Metrics metrics.Sink
	Logger  logger.Logger
}

// NewCachedProvider wraps inner with cache.
func NewCachedProvider(inner Provider, cache Cache, ttl time.Duration, sink metrics.Sink, log logger.Logger) *CachedProvider {
	return &CachedProvider{Inner: inner, Cache: cache, TTL: ttl, Metrics: metrics.OrNop(sink), Logger: logger.OrNop(log)}
}

func (p *CachedProvider) Name() string { return p.Inner.Name() }

func (p *CachedProvider) FetchSeries(ctx context.Context, q Query) ([]model.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	key := q.Key(p.Inner.Name())
	ev := metrics.FetchEvent{Provider: p.Inner.Name(), Region: q.RegionOrNational(), Time: start}

	if p.Cache != nil {
		samples, ok, err := p.Cache.Get(ctx, key)
		if err != nil {
			p.log().Warnf("cache get %s: %v", key, err)
		} else if ok {
			ev.CacheHit, ev.Samples, ev.Latency = true, len(samples), time.Since(start)
			p.record(ev)
			return samples, nil
		}
	}

	samples, err := p.Inner.FetchSeries(ctx, q)
	ev.Latency = time.Since(start)
	if err != nil {
		ev.Err = err.Error()
		p.record(ev)
		return nil, err
	}
	ev.Samples = len(samples)
	p.record(ev)

	if p.Cache != nil && len(samples) > 0 {
		if err := p.Cache.Set(ctx, key, samples, p.TTL); err != nil {
			p.log().Warnf("cache set %s: %v", key, err)
		}
	}
	return samples, nil
}

func (p *CachedProvider) record(ev metrics.FetchEvent) {
	if p.Metrics == nil {
		return
	}
	if err := p.Metrics.RecordFetch(ev); err != nil {
		p.log().Warnf("record fetch: %v", err)
	}
}

func (p *CachedProvider) log() logger.Logger { return logger.OrNop(p.Logger) }
