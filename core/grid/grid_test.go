package grid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/metrics"
	"github.com/kilianp07/cleancharge/core/model"
)

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func halfHourly(clean ...float64) []model.Sample {
	out := make([]model.Sample, len(clean))
	for i, c := range clean {
		from := t0.Add(time.Duration(i) * 30 * time.Minute)
		out[i] = model.Sample{From: from, To: from.Add(30 * time.Minute), CleanEnergy: c,
			GenerationMix: []model.GenerationMix{{Fuel: "wind", Perc: c}, {Fuel: "gas", Perc: 100 - c}}}
	}
	return out
}

type countingProvider struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	samples []model.Sample
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) FetchSeries(context.Context, Query) ([]model.Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return p.samples, nil
}

type fetchRecorder struct {
	metrics.NopSink
	events []metrics.FetchEvent
}

func (r *fetchRecorder) RecordFetch(ev metrics.FetchEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func TestQueryKeyAndValidate(t *testing.T) {
	q := Query{From: t0, To: t0.Add(time.Hour)}
	assert.NoError(t, q.Validate())
	assert.Equal(t, NationalRegion, q.RegionOrNational())
	assert.Equal(t, q.Key("ci"), Query{Region: " National ", From: t0, To: t0.Add(time.Hour)}.Key("ci"))
	assert.NotEqual(t, q.Key("ci"), Query{Region: "13", From: t0, To: t0.Add(time.Hour)}.Key("ci"))

	assert.ErrorIs(t, Query{From: t0, To: t0}.Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, Query{To: t0}.Validate(), ErrInvalidQuery)
}

func TestStaticProviderFiltersRange(t *testing.T) {
	samples := halfHourly(10, 20, 30, 40)
	p := NewStaticProvider("", []model.Sample{samples[2], samples[0], samples[3], samples[1]})
	assert.Equal(t, "static", p.Name())

	all, err := p.FetchSeries(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, t0, all[0].From)

	part, err := p.FetchSeries(context.Background(), Query{From: t0.Add(45 * time.Minute), To: t0.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, part, 2)
	assert.Equal(t, 20.0, part[0].CleanEnergy)
	assert.Equal(t, 30.0, part[1].CleanEnergy)
}

func TestProviderErrorKinds(t *testing.T) {
	err := NewProviderError(ErrorKindRateLimit, "ci", "13", 429, errors.New("slow down"))
	assert.True(t, IsKind(err, ErrorKindRateLimit))
	assert.False(t, IsKind(err, ErrorKindNetwork))
	assert.Contains(t, err.Error(), "status 429")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Retryable())
	assert.False(t, (&ProviderError{Kind: ErrorKindUpstream, StatusCode: 404}).Retryable())
	assert.True(t, (&ProviderError{Kind: ErrorKindUpstream, StatusCode: 503}).Retryable())
	assert.False(t, (&ProviderError{Kind: ErrorKindInvalidData}).Retryable())
	assert.Nil(t, NewProviderError(ErrorKindNetwork, "ci", "", 0, nil))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := t0
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", halfHourly(50), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 1)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Set(ctx, "forever", halfHourly(50), 0))
	now = now.Add(24 * time.Hour)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestCachedProviderReadThrough(t *testing.T) {
	inner := &countingProvider{samples: halfHourly(10, 20)}
	rec := &fetchRecorder{}
	p := NewCachedProvider(inner, NewMemoryCache(), time.Hour, rec, nil)
	q := Query{Region: "13", From: t0, To: t0.Add(time.Hour)}

	for i := 0; i < 3; i++ {
		got, err := p.FetchSeries(context.Background(), q)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}
	assert.Equal(t, 1, inner.calls)
	require.Len(t, rec.events, 3)
	assert.False(t, rec.events[0].CacheHit)
	assert.True(t, rec.events[1].CacheHit)
	assert.Equal(t, "13", rec.events[2].Region)

	_, err := p.FetchSeries(context.Background(), Query{Region: "14", From: t0, To: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	boom := NewProviderError(ErrorKindUpstream, "counting", "", 500, errors.New("down"))
	inner := &countingProvider{errs: []error{boom}, samples: halfHourly(10)}
	rec := &fetchRecorder{}
	p := NewCachedProvider(inner, NewMemoryCache(), time.Hour, rec, nil)
	q := Query{From: t0, To: t0.Add(time.Hour)}

	_, err := p.FetchSeries(context.Background(), q)
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, rec.events[0].Err)

	got, err := p.FetchSeries(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryProvider(t *testing.T) {
	transient := NewProviderError(ErrorKindNetwork, "counting", "", 0, errors.New("reset"))
	inner := &countingProvider{errs: []error{transient, transient}, samples: halfHourly(10)}
	p := WithRetry(inner, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond})
	got, err := p.FetchSeries(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, inner.calls)

	bad := NewProviderError(ErrorKindInvalidData, "counting", "", 0, errors.New("garbage"))
	inner = &countingProvider{errs: []error{bad}}
	_, err = WithRetry(inner, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}).FetchSeries(context.Background(), Query{})
	assert.True(t, IsKind(err, ErrorKindInvalidData))
	assert.Equal(t, 1, inner.calls)
}

func TestRetryProviderStopsOnCancel(t *testing.T) {
	transient := NewProviderError(ErrorKindNetwork, "counting", "", 0, errors.New("reset"))
	inner := &countingProvider{errs: []error{transient, transient, transient}}
	ctx, cancel := context.WithCancel(context.Background())
	p := WithRetry(inner, RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := p.FetchSeries(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderRegistry(t *testing.T) {
	require.NoError(t, RegisterProvider("test-static", func(conf map[string]any) (Provider, error) {
		var c struct {
			Name string `json:"name"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewStaticProvider(c.Name, halfHourly(1)), nil
	}))
	p, err := NewProvider(factory.ModuleConfig{Type: "test-static", Conf: map[string]any{"name": "fixture"}})
	require.NoError(t, err)
	assert.Equal(t, "fixture", p.Name())
	assert.Contains(t, ProviderTypes(), "test-static")

	_, err = NewProvider(factory.ModuleConfig{Type: "nope"})
	assert.Error(t, err)
}
