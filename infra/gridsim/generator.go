// Package gridsim produces synthetic generation-mix series and serves them
// in the Carbon Intensity wire format.
package gridsim

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/cleancharge/config"
	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/model"
)

// ProviderName identifies the in-process synthetic provider.
const ProviderName = "mock"

// Generator derives a diurnal mix for every slot of cfg.Interval. A slot's
// value depends only on the seed, the region and the slot start, so
// overlapping ranges return identical samples.
type Generator struct {
	cfg      config.GridSimConfig
	taxonomy model.FuelTaxonomy
}

// NewGenerator returns a Generator for cfg with defaults applied.
func NewGenerator(cfg config.GridSimConfig) *Generator {
	cfg.SetDefaults()
	return &Generator{cfg: cfg, taxonomy: model.DefaultFuelTaxonomy()}
}

// Series returns the samples whose slot starts in [from, to), sorted by From.
func (g *Generator) Series(region string, from, to time.Time) []model.Sample {
	step := g.cfg.Interval
	var out []model.Sample
	for t := from.UTC().Truncate(step); t.Before(to); t = t.Add(step) {
		r := g.slotRand(region, t)
		if g.cfg.GapRate > 0 && r.Float64() < g.cfg.GapRate {
			continue
		}
		mix := g.mix(r, t)
		out = append(out, model.Sample{
			From:          t,
			To:            t.Add(step),
			GenerationMix: mix,
			CleanEnergy:   g.taxonomy.CleanPercentage(mix),
		})
	}
	return out
}

func (g *Generator) slotRand(region string, t time.Time) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(region))
	return rand.New(rand.NewSource(g.cfg.Seed ^ int64(h.Sum64()) ^ t.Unix()))
}

// mix shapes solar as a daylight bell, wind as a slow swell with noise and
// lets gas balance the remainder.
func (g *Generator) mix(r *rand.Rand, t time.Time) []model.GenerationMix {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	solar := 0.0
	if hour > 6 && hour < 18 {
		solar = g.cfg.SolarPeak * math.Sin(math.Pi*(hour-6)/12)
	}
	days := float64(t.Unix()) / 86400
	wind := g.cfg.WindMean + g.cfg.WindNoise*(math.Sin(2*math.Pi*days/3)+0.5*r.NormFloat64())
	wind = clamp(wind, 0, 100-g.cfg.Nuclear-solar)

	biomass := 4 + 2*r.Float64()
	hydro := 1 + r.Float64()
	imports := 5 + 5*r.Float64()
	fixed := solar + wind + g.cfg.Nuclear + biomass + hydro + imports
	if fixed > 100 {
		scale := 100 / fixed
		solar, wind, biomass, hydro, imports = solar*scale, wind*scale, biomass*scale, hydro*scale, imports*scale
		fixed = 100
	}
	gas := (100 - fixed) * 0.9
	coal := (100 - fixed) * 0.02
	other := 100 - fixed - gas - coal

	return []model.GenerationMix{
		{Fuel: "biomass", Perc: round1(biomass)},
		{Fuel: "coal", Perc: round1(coal)},
		{Fuel: "imports", Perc: round1(imports)},
		{Fuel: "gas", Perc: round1(gas)},
		{Fuel: "nuclear", Perc: round1(g.cfg.Nuclear)},
		{Fuel: "other", Perc: round1(other)},
		{Fuel: "hydro", Perc: round1(hydro)},
		{Fuel: "solar", Perc: round1(solar)},
		{Fuel: "wind", Perc: round1(wind)},
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// Provider serves Generator output through grid.Provider.
type Provider struct {
	gen *Generator
}

// NewProvider wraps gen.
func NewProvider(gen *Generator) *Provider { return &Provider{gen: gen} }

func (p *Provider) Name() string { return ProviderName }

// FetchSeries returns the synthetic samples for q.
func (p *Provider) FetchSeries(ctx context.Context, q grid.Query) ([]model.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return p.gen.Series(q.RegionOrNational(), q.From, q.To), nil
}

func init() {
	_ = grid.RegisterProvider(ProviderName, func(conf map[string]any) (grid.Provider, error) {
		var c config.GridSimConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.SetDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewProvider(NewGenerator(c)), nil
	})
}
