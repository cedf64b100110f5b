// Package grid retrieves generation-mix series from upstream feeds and
// caches them for the planner.
package grid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/model"
)

// NationalRegion selects the whole-grid series.
const NationalRegion = "national"

// ErrInvalidQuery wraps query validation failures, including regions a
// provider does not know.
var ErrInvalidQuery = errors.New("invalid query")

// Query selects the samples overlapping [From, To) for a region.
type Query struct {
	Region string
	From   time.Time
	To     time.Time
}

// Validate rejects empty or inverted ranges.
func (q Query) Validate() error {
	if q.From.IsZero() || q.To.IsZero() {
		return fmt.Errorf("%w: range requires from and to", ErrInvalidQuery)
	}
	if !q.To.After(q.From) {
		return fmt.Errorf("%w: range inverted: %s >= %s", ErrInvalidQuery, q.From.Format(time.RFC3339), q.To.Format(time.RFC3339))
	}
	return nil
}

// RegionOrNational returns the region, defaulting to NationalRegion.
func (q Query) RegionOrNational() string {
	r := strings.TrimSpace(strings.ToLower(q.Region))
	if r == "" {
		return NationalRegion
	}
	return r
}

// Key identifies the query result for a provider in a cache.
func (q Query) Key(provider string) string {
	return fmt.Sprintf("series:%s:%s:%d:%d", provider, q.RegionOrNational(), q.From.UTC().Unix(), q.To.UTC().Unix())
}

// Provider returns samples sorted by From.
type Provider interface {
	FetchSeries(ctx context.Context, q Query) ([]model.Sample, error)
	Name() string
}

var providerRegistry = factory.NewRegistry[Provider]()

// RegisterProvider adds a provider factory identified by name.
func RegisterProvider(name string, f factory.Factory[Provider]) error {
	return providerRegistry.Register(name, f)
}

// NewProvider creates a Provider from its module configuration.
func NewProvider(cfg factory.ModuleConfig) (Provider, error) {
	return providerRegistry.Create(cfg)
}

// ProviderTypes lists the registered provider types.
func ProviderTypes() []string { return providerRegistry.Names() }

// StaticProvider serves an in-memory series, for instance one loaded from a
// file. Region is ignored.
type StaticProvider struct {
	ProviderName string
	Samples      []model.Sample
}

// NewStaticProvider copies samples and sorts them by From.
func NewStaticProvider(name string, samples []model.Sample) *StaticProvider {
	cp := append([]model.Sample(nil), samples...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].From.Before(cp[j].From) })
	if name == "" {
		name = "static"
	}
	return &StaticProvider{ProviderName: name, Samples: cp}
}

func (p *StaticProvider) Name() string { return p.ProviderName }

// FetchSeries returns every sample overlapping the query range. A zero range
// returns the whole series.
func (p *StaticProvider) FetchSeries(ctx context.Context, q Query) ([]model.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.From.IsZero() && q.To.IsZero() {
		return append([]model.Sample(nil), p.Samples...), nil
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var out []model.Sample
	for _, s := range p.Samples {
		if s.To.After(q.From) && s.From.Before(q.To) {
			out = append(out, s)
		}
	}
	return out, nil
}
