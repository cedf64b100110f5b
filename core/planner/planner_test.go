package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cleancharge/core/audit"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/metrics"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/core/monitoring"
	"github.com/kilianp07/cleancharge/core/window"
	"github.com/kilianp07/cleancharge/internal/eventbus"
)

var t0 = time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

func mix(clean ...float64) []model.Sample {
	out := make([]model.Sample, len(clean))
	for i, c := range clean {
		from := t0.Add(time.Duration(i) * 30 * time.Minute)
		out[i] = model.Sample{From: from, To: from.Add(30 * time.Minute), CleanEnergy: c,
			GenerationMix: []model.GenerationMix{{Fuel: "solar", Perc: c}, {Fuel: "gas", Perc: 100 - c}}}
	}
	return out
}

type selectionRecorder struct {
	metrics.NopSink
	mu     sync.Mutex
	events []metrics.SelectionEvent
}

func (r *selectionRecorder) RecordSelection(ev metrics.SelectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type failingProvider struct{ err error }

func (failingProvider) Name() string { return "failing" }
func (f failingProvider) FetchSeries(context.Context, grid.Query) ([]model.Sample, error) {
	return nil, f.err
}

func fixedClock() func() time.Time { return func() time.Time { return t0 } }

func TestPlanSelectsBestWindow(t *testing.T) {
	sink := &selectionRecorder{}
	store := audit.NewMemoryStore()
	bus := eventbus.NewTyped[Recommendation]()
	sub := bus.Subscribe()
	p := New(grid.NewStaticProvider("fixture", mix(20, 80, 90, 30)), Config{},
		WithMetrics(sink), WithAudit(store), WithBus(bus), WithClock(fixedClock()))

	rec, err := p.Plan(context.Background(), Request{Region: "13", Duration: time.Hour})
	require.NoError(t, err)
	best, ok := rec.Best()
	require.True(t, ok)
	assert.Equal(t, t0.Add(30*time.Minute), best.StartTime)
	assert.Equal(t, 85.0, best.CleanEnergyPercentage)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, audit.ModeOptimal, rec.Mode)
	assert.Equal(t, "13", rec.Region)
	assert.Equal(t, t0.Add(48*time.Hour), rec.To, "default horizon")
	assert.Equal(t, 4, rec.Samples)

	got := <-sub
	assert.Equal(t, rec.ID, got.ID)

	hist, err := p.History(context.Background(), audit.Query{Region: "13"})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, rec.ID, hist[0].ID)
	assert.Equal(t, "earliest", hist[0].TieBreak)
	assert.True(t, hist[0].PartialEdges)

	require.Len(t, sink.events, 1)
	assert.Equal(t, metrics.OutcomeOK, sink.events[0].Outcome)
	assert.Equal(t, 85.0, sink.events[0].Score)
	assert.Equal(t, "fixture", sink.events[0].Provider)
}

func TestPlanRequestOptionsOverrideDefaults(t *testing.T) {
	p := New(grid.NewStaticProvider("", mix(50, 50, 50)), Config{}, WithClock(fixedClock()))
	opts := window.Options{TieBreak: window.TieBreakLatest}
	rec, err := p.Plan(context.Background(), Request{Duration: 30 * time.Minute, Options: &opts})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), rec.Windows[0].StartTime)
}

func TestAboveReturnsAllQualifyingWindows(t *testing.T) {
	p := New(grid.NewStaticProvider("", mix(90, 10, 95, 10, 20)), Config{}, WithClock(fixedClock()))
	rec, err := p.Above(context.Background(), Request{Duration: 30 * time.Minute}, 80)
	require.NoError(t, err)
	assert.Equal(t, audit.ModeAbove, rec.Mode)
	assert.Equal(t, 80.0, rec.Threshold)
	require.Len(t, rec.Windows, 2)
	assert.Equal(t, t0, rec.Windows[0].StartTime)
}

func TestPlanInsufficientDataIsNotReported(t *testing.T) {
	sink := &selectionRecorder{}
	mon := &monitoring.Recorder{}
	p := New(grid.NewStaticProvider("", mix(10, 20)), Config{},
		WithMetrics(sink), WithMonitor(mon), WithClock(fixedClock()))
	_, err := p.Plan(context.Background(), Request{Duration: 3 * time.Hour})
	assert.ErrorIs(t, err, window.ErrInsufficientData)
	assert.Empty(t, mon.Events())
	assert.Equal(t, metrics.OutcomeInsufficient, sink.events[0].Outcome)
}

func TestPlanProviderErrorIsCaptured(t *testing.T) {
	sink := &selectionRecorder{}
	mon := &monitoring.Recorder{}
	perr := grid.NewProviderError(grid.ErrorKindUpstream, "failing", "", 503, errors.New("down"))
	p := New(failingProvider{err: perr}, Config{}, WithMetrics(sink), WithMonitor(mon), WithClock(fixedClock()))

	_, err := p.Plan(context.Background(), Request{Region: "7", Duration: time.Hour})
	assert.True(t, grid.IsKind(err, grid.ErrorKindUpstream))
	events := mon.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "7", events[0].Tags["region"])
	assert.Equal(t, metrics.OutcomeProvider, sink.events[0].Outcome)
}

func TestPlanMalformedSeries(t *testing.T) {
	samples := mix(10, 20)
	samples[0], samples[1] = samples[1], samples[0]
	p := New(&unsortedProvider{samples: samples}, Config{}, WithClock(fixedClock()))
	_, err := p.Plan(context.Background(), Request{Duration: 30 * time.Minute})
	var mErr *window.MalformedInputError
	assert.ErrorAs(t, err, &mErr)
}

type unsortedProvider struct{ samples []model.Sample }

func (*unsortedProvider) Name() string { return "unsorted" }
func (u *unsortedProvider) FetchSeries(context.Context, grid.Query) ([]model.Sample, error) {
	return u.samples, nil
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, outcome(nil))
	assert.Equal(t, metrics.OutcomeError, outcome(errors.New("x")))
	assert.Equal(t, metrics.OutcomeMalformed, outcome(&window.MalformedInputError{Index: 1, Reason: "x"}))
}
