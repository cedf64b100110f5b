// Package planner turns a charging request into a recommendation by fetching
// the grid series and running the window selector over it.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/cleancharge/core/audit"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/logger"
	"github.com/kilianp07/cleancharge/core/metrics"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/core/monitoring"
	"github.com/kilianp07/cleancharge/core/window"
	"github.com/kilianp07/cleancharge/internal/eventbus"
)

// Request describes the charging need.
type Request struct {
	Region string
	// From and To bound the search. A zero From means now and a zero To
	// means From plus the planner horizon.
	From     time.Time
	To       time.Time
	Duration time.Duration
	// Options overrides the planner defaults when set.
	Options *window.Options
}

// Recommendation is the planner output.
type Recommendation struct {
	ID        string                        `json:"id"`
	CreatedAt time.Time                     `json:"created_at"`
	Mode      string                        `json:"mode"`
	Provider  string                        `json:"provider"`
	Region    string                        `json:"region"`
	From      time.Time                     `json:"from"`
	To        time.Time                     `json:"to"`
	Duration  time.Duration                 `json:"duration"`
	Threshold float64                       `json:"threshold,omitempty"`
	Samples   int                           `json:"samples"`
	Windows   []model.OptimalChargingWindow `json:"windows"`
}

// Best returns the first window, which is the optimum in optimal mode.
func (r Recommendation) Best() (model.OptimalChargingWindow, bool) {
	if len(r.Windows) == 0 {
		return model.OptimalChargingWindow{}, false
	}
	return r.Windows[0], true
}

// Config holds planner defaults.
type Config struct {
	Options window.Options
	// Horizon is the search range used when a request has no end.
	Horizon time.Duration
}

// Planner coordinates a Provider and the window selector. It is safe for
// concurrent use.
type Planner struct {
	provider grid.Provider
	cfg      Config
	metrics  metrics.Sink
	store    audit.Store
	bus      *eventbus.TypedBus[Recommendation]
	monitor  monitoring.Monitor
	log      logger.Logger
	now      func() time.Time
}

// Option customises a Planner.
type Option func(*Planner)

// WithMetrics records a SelectionEvent per request.
func WithMetrics(s metrics.Sink) Option {
	return func(p *Planner) { p.metrics = metrics.OrNop(s) }
}

// WithAudit appends every recommendation to s.
func WithAudit(s audit.Store) Option {
	return func(p *Planner) {
		if s != nil {
			p.store = s
		}
	}
}

// WithBus publishes every recommendation on b.
func WithBus(b *eventbus.TypedBus[Recommendation]) Option {
	return func(p *Planner) { p.bus = b }
}

func WithMonitor(m monitoring.Monitor) Option {
	return func(p *Planner) { p.monitor = monitoring.OrNop(m) }
}

func WithLogger(l logger.Logger) Option {
	return func(p *Planner) { p.log = logger.OrNop(l) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// New creates a Planner fetching from provider.
func New(provider grid.Provider, cfg Config, opts ...Option) *Planner {
	if cfg.Horizon <= 0 {
		cfg.Horizon = 48 * time.Hour
	}
	p := &Planner{
		provider: provider,
		cfg:      cfg,
		metrics:  metrics.NopSink{},
		store:    audit.NopStore{},
		monitor:  monitoring.NopMonitor{},
		log:      logger.Nop{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Bus returns the bus recommendations are published on, or nil.
func (p *Planner) Bus() *eventbus.TypedBus[Recommendation] { return p.bus }

// Plan returns the single best window for req.
func (p *Planner) Plan(ctx context.Context, req Request) (Recommendation, error) {
	return p.run(ctx, req, audit.ModeOptimal, 0, func(samples []model.Sample, opts window.Options) ([]model.OptimalChargingWindow, error) {
		w, err := window.SelectContext(ctx, samples, req.Duration, opts)
		if err != nil {
			return nil, err
		}
		return []model.OptimalChargingWindow{w}, nil
	})
}

// Above returns every non-overlapping window whose clean-energy share reaches
// threshold.
func (p *Planner) Above(ctx context.Context, req Request, threshold float64) (Recommendation, error) {
	return p.run(ctx, req, audit.ModeAbove, threshold, func(samples []model.Sample, opts window.Options) ([]model.OptimalChargingWindow, error) {
		return window.AboveThresholdContext(ctx, samples, req.Duration, threshold, opts)
	})
}

type selectFunc func([]model.Sample, window.Options) ([]model.OptimalChargingWindow, error)

func (p *Planner) run(ctx context.Context, req Request, mode string, threshold float64, sel selectFunc) (rec Recommendation, err error) {
	start := p.now()
	q := p.query(req)
	opts := p.cfg.Options
	if req.Options != nil {
		opts = *req.Options
	}
	ev := metrics.SelectionEvent{
		Provider:  p.provider.Name(),
		Region:    q.RegionOrNational(),
		Mode:      mode,
		Requested: req.Duration,
		Time:      start,
	}
	defer func() {
		if v := recover(); v != nil {
			p.monitor.CapturePanic(v, map[string]string{"mode": mode, "region": ev.Region})
			panic(v)
		}
		ev.Latency = p.now().Sub(start)
		ev.Outcome = outcome(err)
		if err := p.metrics.RecordSelection(ev); err != nil {
			p.log.Warnf("record selection: %v", err)
		}
	}()

	samples, err := p.provider.FetchSeries(ctx, q)
	if err != nil {
		p.capture(err, mode, ev.Region)
		return Recommendation{}, fmt.Errorf("fetch series: %w", err)
	}
	windows, err := sel(samples, opts)
	if err != nil {
		p.capture(err, mode, ev.Region)
		return Recommendation{}, err
	}
	if len(windows) > 0 {
		ev.Score = windows[0].CleanEnergyPercentage
	}
	ev.Windows = len(windows)

	rec = Recommendation{
		ID:        uuid.NewString(),
		CreatedAt: start.UTC(),
		Mode:      mode,
		Provider:  p.provider.Name(),
		Region:    ev.Region,
		From:      q.From,
		To:        q.To,
		Duration:  req.Duration,
		Threshold: threshold,
		Samples:   len(samples),
		Windows:   windows,
	}
	if err := p.store.Append(ctx, toRecord(rec, opts)); err != nil {
		p.log.Errorf("audit append %s: %v", rec.ID, err)
	}
	if p.bus != nil {
		p.bus.Publish(rec)
	}
	p.log.Debugw("recommendation", map[string]any{
		"id": rec.ID, "mode": mode, "region": rec.Region, "windows": len(windows), "score": ev.Score,
	})
	return rec, nil
}

func (p *Planner) query(req Request) grid.Query {
	from := req.From
	if from.IsZero() {
		from = p.now().UTC().Truncate(time.Minute)
	}
	to := req.To
	if to.IsZero() {
		to = from.Add(p.cfg.Horizon)
	}
	return grid.Query{Region: req.Region, From: from, To: to}
}

// capture reports failures other than caller mistakes to the monitor.
func (p *Planner) capture(err error, mode, region string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, window.ErrInsufficientData) || errors.Is(err, window.ErrInvalidOptions) {
		return
	}
	p.monitor.CaptureException(err, map[string]string{"mode": mode, "region": region, "provider": p.provider.Name()})
}

// History returns recorded recommendations matching q.
func (p *Planner) History(ctx context.Context, q audit.Query) ([]audit.Record, error) {
	return p.store.Query(ctx, q)
}

func outcome(err error) string {
	var pe *grid.ProviderError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, window.ErrInsufficientData):
		return metrics.OutcomeInsufficient
	case errors.Is(err, window.ErrMalformedInput):
		return metrics.OutcomeMalformed
	case errors.As(err, &pe):
		return metrics.OutcomeProvider
	default:
		return metrics.OutcomeError
	}
}

func toRecord(r Recommendation, opts window.Options) audit.Record {
	return audit.Record{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Mode:         r.Mode,
		Provider:     r.Provider,
		Region:       r.Region,
		From:         r.From,
		To:           r.To,
		Requested:    r.Duration,
		Threshold:    r.Threshold,
		TieBreak:     opts.TieBreak.String(),
		PartialEdges: opts.PartialEdges.Allowed(),
		Samples:      r.Samples,
		Windows:      r.Windows,
	}
}
