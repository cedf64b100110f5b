// Package app assembles the planner, its data sources and its outputs from
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kilianp07/cleancharge/api/windows"
	"github.com/kilianp07/cleancharge/config"
	"github.com/kilianp07/cleancharge/core/audit"
	"github.com/kilianp07/cleancharge/core/grid"
	coremetrics "github.com/kilianp07/cleancharge/core/metrics"
	coremon "github.com/kilianp07/cleancharge/core/monitoring"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/core/publish"
	infraaudit "github.com/kilianp07/cleancharge/infra/audit"
	"github.com/kilianp07/cleancharge/infra/cache"
	"github.com/kilianp07/cleancharge/infra/logger"
	"github.com/kilianp07/cleancharge/infra/metrics"
	"github.com/kilianp07/cleancharge/infra/monitoring"
	"github.com/kilianp07/cleancharge/internal/eventbus"
	"github.com/kilianp07/cleancharge/jobs/refresh"

	// Built-in providers, sinks and publishers.
	_ "github.com/kilianp07/cleancharge/app/plugins"
)

// Service owns the planner and everything it reports to.
type Service struct {
	Planner  *planner.Planner
	Provider grid.Provider

	cfg     *config.Config
	bus     *eventbus.TypedBus[planner.Recommendation]
	sink    coremetrics.Sink
	store   audit.Store
	monitor coremon.Monitor
	api     windows.Defaults
	closers []func() error
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	s := &Service{cfg: cfg, log: logger.New("service")}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	s.monitor = mon

	if s.sink, err = coremetrics.NewSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	if s.store, err = infraaudit.Open(cfg.Audit); err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	s.closers = append(s.closers, s.store.Close)

	if s.Provider, err = s.buildProvider(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	pcfg, err := cfg.Selector.PlannerConfig()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.api = windows.Defaults{Duration: cfg.Selector.Duration, Options: pcfg.Options}
	s.bus = eventbus.NewTyped[planner.Recommendation]()
	s.Planner = planner.New(s.Provider, pcfg,
		planner.WithMetrics(s.sink),
		planner.WithAudit(s.store),
		planner.WithBus(s.bus),
		planner.WithMonitor(s.monitor),
		planner.WithLogger(logger.New("planner")),
	)
	return s, nil
}

// buildProvider stacks retry and cache layers on the configured provider.
func (s *Service) buildProvider(ctx context.Context) (grid.Provider, error) {
	p, err := grid.NewProvider(s.cfg.Provider.Module())
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	if s.cfg.Provider.Retry.MaxAttempts > 1 {
		p = grid.WithRetry(p, s.cfg.Provider.Retry)
	}

	var c grid.Cache
	switch s.cfg.Cache.Backend {
	case "memory":
		c = grid.NewMemoryCache()
	case "redis":
		rc, err := cache.NewRedisCache(ctx, s.cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		s.closers = append(s.closers, rc.Close)
		c = rc
	default:
		return p, nil
	}
	return grid.NewCachedProvider(p, c, s.cfg.Cache.TTL, s.sink, logger.New("series-cache")), nil
}

// Handler returns the HTTP API of the service.
func (s *Service) Handler() http.Handler {
	h := windows.NewHandler(s.Planner, s.api, logger.New("api"))
	return windows.NewRouter(h)
}

// Run serves the API, the metrics endpoint and the publishers until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	pubs, err := publish.NewPublishers(s.cfg.Publishers)
	if err != nil {
		return fmt.Errorf("publishers: %w", err)
	}
	dispatcher := publish.NewDispatcher(s.bus, pubs, logger.New("publisher"), s.monitor)
	go func() {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorf("dispatcher: %v", err)
		}
	}()

	if s.cfg.Schedule.Interval > 0 {
		job := refresh.New(s.Planner, s.cfg.Schedule, s.cfg.Selector.Duration, nil)
		go job.Start(ctx)
	}

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, logger.New("prom-server")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("serving API on %s (provider %s)", s.cfg.Server.Addr, s.Provider.Name())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.bus != nil {
		s.bus.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if s.monitor != nil {
		s.monitor.Flush(s.cfg.Sentry.FlushTimeout)
	}
	return errors.Join(errs...)
}
