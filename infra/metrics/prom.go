// Package metrics provides the Prometheus and InfluxDB implementations of
// the planner metrics sink.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/cleancharge/core/metrics"
)

// PromSink records planner events in Prometheus metrics.
type PromSink struct {
	selections *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	score      *prometheus.GaugeVec
	fetches    *prometheus.CounterVec
	fetchErrs  *prometheus.CounterVec
	samples    *prometheus.GaugeVec
}

// NewPromSink registers planner metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.selections, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cleancharge_selections_total",
		Help: "Window searches by outcome",
	}, []string{"provider", "region", "mode", "outcome"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cleancharge_selection_duration_seconds",
		Help:    "Time spent fetching and scanning for a window",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "mode"})); err != nil {
		return nil, err
	}
	if s.score, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cleancharge_window_clean_energy_percent",
		Help: "Clean-energy share of the last recommended window",
	}, []string{"region", "mode"})); err != nil {
		return nil, err
	}
	if s.fetches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cleancharge_series_fetches_total",
		Help: "Series retrievals by cache result",
	}, []string{"provider", "region", "cache"})); err != nil {
		return nil, err
	}
	if s.fetchErrs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cleancharge_series_fetch_errors_total",
		Help: "Failed series retrievals",
	}, []string{"provider", "region"})); err != nil {
		return nil, err
	}
	if s.samples, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cleancharge_series_samples",
		Help: "Number of samples in the last fetched series",
	}, []string{"provider", "region"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSelection counts the search and tracks the recommended score.
func (s *PromSink) RecordSelection(ev coremetrics.SelectionEvent) error {
	s.selections.WithLabelValues(ev.Provider, ev.Region, ev.Mode, ev.Outcome).Inc()
	s.latency.WithLabelValues(ev.Provider, ev.Mode).Observe(ev.Latency.Seconds())
	if ev.Outcome == coremetrics.OutcomeOK && ev.Windows > 0 {
		s.score.WithLabelValues(ev.Region, ev.Mode).Set(ev.Score)
	}
	return nil
}

// RecordFetch counts the retrieval by cache result.
func (s *PromSink) RecordFetch(ev coremetrics.FetchEvent) error {
	if ev.Err != "" {
		s.fetchErrs.WithLabelValues(ev.Provider, ev.Region).Inc()
		return nil
	}
	cache := "miss"
	if ev.CacheHit {
		cache = "hit"
	}
	s.fetches.WithLabelValues(ev.Provider, ev.Region, cache).Inc()
	s.samples.WithLabelValues(ev.Provider, ev.Region).Set(float64(ev.Samples))
	return nil
}
