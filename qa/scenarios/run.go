package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/cleancharge/core/audit"
	"github.com/kilianp07/cleancharge/core/grid"
	coremetrics "github.com/kilianp07/cleancharge/core/metrics"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/infra/logger"
	"github.com/kilianp07/cleancharge/infra/metrics"
	"github.com/kilianp07/cleancharge/internal/eventbus"
)

// RunScenario plans sc through a planner backed by a static provider and
// checks the windows, the published recommendation and the metrics outcome.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	opts, err := sc.Request.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	samples := sc.Series.Samples()
	provider := grid.NewStaticProvider("scenario", samples)
	bus := eventbus.NewTyped[planner.Recommendation]()
	defer bus.Close()
	sub := bus.Subscribe()

	p := planner.New(provider, planner.Config{Options: opts},
		planner.WithMetrics(sink),
		planner.WithBus(bus),
		planner.WithLogger(logger.NopLogger{}),
	)

	req := planner.Request{Duration: sc.Request.Duration}
	if len(samples) > 0 {
		req.From = samples[0].From
		req.To = samples[len(samples)-1].To
	}
	var rec planner.Recommendation
	mode := audit.ModeOptimal
	if sc.Request.Threshold != nil {
		mode = audit.ModeAbove
		rec, err = p.Above(context.Background(), req, *sc.Request.Threshold)
	} else {
		rec, err = p.Plan(context.Background(), req)
	}

	outcome := coremetrics.OutcomeOK
	if sc.Expected.Error != "" {
		outcome = sc.Expected.Error
		if err == nil {
			t.Fatalf("expected %s, got windows %v", sc.Expected.Error, rec.Windows)
		}
	} else if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if got := selections(t, reg, mode, outcome); got != 1 {
		t.Errorf("selection counter for %s/%s = %v", mode, outcome, got)
	}
	if sc.Expected.Error != "" {
		return
	}

	if len(rec.Windows) != len(sc.Expected.Windows) {
		t.Fatalf("windows: got %d want %d (%v)", len(rec.Windows), len(sc.Expected.Windows), rec.Windows)
	}
	for i, want := range sc.Expected.Windows {
		got := rec.Windows[i]
		if !got.StartTime.Equal(want.Start) || !got.EndTime.Equal(want.End) {
			t.Errorf("window %d: got %s-%s want %s-%s", i, got.StartTime, got.EndTime, want.Start, want.End)
		}
		if got.CleanEnergyPercentage != want.Score {
			t.Errorf("window %d score: got %v want %v", i, got.CleanEnergyPercentage, want.Score)
		}
	}

	select {
	case pub := <-sub:
		if pub.ID != rec.ID {
			t.Errorf("published %s, planned %s", pub.ID, rec.ID)
		}
	default:
		t.Errorf("recommendation not published")
	}
}

func selections(t *testing.T, reg *prometheus.Registry, mode, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "cleancharge_selections_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["mode"] == mode && labels["outcome"] == outcome && labels["provider"] == "scenario" {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
