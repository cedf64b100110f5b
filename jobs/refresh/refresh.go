// Package refresh re-plans charging windows on a fixed interval so that
// publishers receive fresh recommendations without an API call.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/cleancharge/config"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/infra/logger"
)

// Planner is the part of planner.Planner the job needs.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (planner.Recommendation, error)
}

// Job plans every configured region once per interval.
type Job struct {
	cfg      config.ScheduleConfig
	duration time.Duration
	planner  Planner
	log      logger.Logger

	runs    *prometheus.CounterVec
	lastRun prometheus.Gauge
	latency prometheus.Histogram
}

// New creates a Job registering its metrics on reg, or on the default
// registerer when reg is nil. duration is used when cfg carries none.
func New(p Planner, cfg config.ScheduleConfig, duration time.Duration, reg prometheus.Registerer) *Job {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if cfg.Duration > 0 {
		duration = cfg.Duration
	}
	j := &Job{
		cfg:      cfg,
		duration: duration,
		planner:  p,
		log:      logger.New("refresh"),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cleancharge_refresh_runs_total",
			Help: "Scheduled planning runs per region and outcome",
		}, []string{"region", "outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cleancharge_refresh_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last scheduled planning run",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cleancharge_refresh_duration_seconds",
			Help:    "Duration of a scheduled planning run over all regions",
			Buckets: prometheus.DefBuckets,
		}),
	}
	j.runs = reuse(reg, j.runs, j.log)
	j.lastRun = reuse(reg, j.lastRun, j.log)
	j.latency = reuse(reg, j.latency, j.log)
	return j
}

func reuse[C prometheus.Collector](reg prometheus.Registerer, c C, log logger.Logger) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if exist, ok := are.ExistingCollector.(C); ok {
			return exist
		}
	}
	log.Errorf("register refresh metric: %v", err)
	return c
}

// Start runs one pass immediately, then one per interval until ctx is done.
func (j *Job) Start(ctx context.Context) {
	if j.cfg.Interval <= 0 {
		return
	}
	j.log.Infof("planning %v every %s", j.cfg.Regions, j.cfg.Interval)
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()
	for {
		if err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
			j.log.Warnf("scheduled run: %v", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce plans every region. A failing region does not stop the others.
func (j *Job) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		j.latency.Observe(time.Since(start).Seconds())
		j.lastRun.Set(float64(time.Now().Unix()))
	}()

	var errs []error
	for _, region := range j.cfg.Regions {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		rec, err := j.planner.Plan(ctx, planner.Request{Region: region, Duration: j.duration})
		if err != nil {
			j.runs.WithLabelValues(region, "error").Inc()
			errs = append(errs, fmt.Errorf("region %s: %w", region, err))
			continue
		}
		j.runs.WithLabelValues(region, "ok").Inc()
		if best, ok := rec.Best(); ok {
			j.log.Debugf("region %s: %s to %s at %.1f%%", region,
				best.StartTime.Format(time.RFC3339), best.EndTime.Format(time.RFC3339), best.CleanEnergyPercentage)
		}
	}
	return errors.Join(errs...)
}
