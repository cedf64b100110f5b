package windows

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cleancharge/core/audit"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/core/planner"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func hourly(values ...float64) []model.Sample {
	out := make([]model.Sample, len(values))
	for i, v := range values {
		out[i] = model.Sample{
			From:        base.Add(time.Duration(i) * time.Hour),
			To:          base.Add(time.Duration(i+1) * time.Hour),
			CleanEnergy: v,
		}
	}
	return out
}

type failingProvider struct{ err error }

func (f failingProvider) Name() string { return "failing" }
func (f failingProvider) FetchSeries(context.Context, grid.Query) ([]model.Sample, error) {
	return nil, f.err
}

// rawProvider returns its samples as given, without sorting.
type rawProvider struct{ samples []model.Sample }

func (r rawProvider) Name() string { return "raw" }
func (r rawProvider) FetchSeries(context.Context, grid.Query) ([]model.Sample, error) {
	return r.samples, nil
}

func newServer(t *testing.T, provider grid.Provider, d Defaults) *httptest.Server {
	t.Helper()
	p := planner.New(provider, planner.Config{}, planner.WithAudit(audit.NewMemoryStore()))
	srv := httptest.NewServer(NewRouter(NewHandler(p, d, nil)))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

const span = "from=2024-03-01T00:00:00Z&to=2024-03-01T05:00:00Z"

func TestOptimal(t *testing.T) {
	srv := newServer(t, grid.NewStaticProvider("static", hourly(20, 80, 90, 30, 10)), Defaults{})

	var out optimalResponse
	status := get(t, srv.URL+"/api/windows/optimal?"+span+"&duration=2h", &out)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "national", out.Region)
	assert.True(t, out.Window.StartTime.Equal(base.Add(time.Hour)))
	assert.True(t, out.Window.EndTime.Equal(base.Add(3*time.Hour)))
	assert.Equal(t, 85.0, out.Window.CleanEnergyPercentage)

	// Bare minutes and a partial-edge override.
	status = get(t, srv.URL+"/api/windows/optimal?"+span+"&duration=120&partial_edges=false", &out)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2*time.Hour, out.Window.Duration())

	var failed errorResponse
	status = get(t, srv.URL+"/api/windows/optimal?"+span+"&duration=90&partial_edges=false", &failed)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestOptimalDefaultsDuration(t *testing.T) {
	srv := newServer(t, grid.NewStaticProvider("static", hourly(20, 80, 90, 30, 10)), Defaults{Duration: time.Hour})
	var out optimalResponse
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/windows/optimal?"+span, &out))
	assert.Equal(t, 90.0, out.Window.CleanEnergyPercentage)
}

func TestAbove(t *testing.T) {
	srv := newServer(t, grid.NewStaticProvider("static", hourly(70, 75, 20, 90, 85)), Defaults{})

	var out aboveResponse
	status := get(t, srv.URL+"/api/windows/above?"+span+"&duration=1h&threshold=70", &out)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, out.Windows, 4)
	assert.Equal(t, 70.0, out.Threshold)
	for i := 1; i < len(out.Windows); i++ {
		assert.True(t, out.Windows[i-1].StartTime.Before(out.Windows[i].StartTime))
	}

	status = get(t, srv.URL+"/api/windows/above?"+span+"&duration=1h&threshold=99", &out)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, out.Windows)
	assert.Empty(t, out.Windows)
}

func TestErrorMapping(t *testing.T) {
	gapped := append(hourly(50, 60), model.Sample{From: base.Add(3 * time.Hour), To: base.Add(4 * time.Hour), CleanEnergy: 70})
	unsorted := []model.Sample{hourly(10, 20)[1], hourly(10, 20)[0]}

	cases := []struct {
		name     string
		provider grid.Provider
		query    string
		status   int
		kind     string
	}{
		{"missing duration", grid.NewStaticProvider("s", hourly(1, 2)), span, http.StatusBadRequest, "bad_request"},
		{"bad from", grid.NewStaticProvider("s", hourly(1, 2)), "from=yesterday&duration=1h", http.StatusBadRequest, "bad_request"},
		{"bad tie break", grid.NewStaticProvider("s", hourly(1, 2)), span + "&duration=1h&tie_break=middle", http.StatusBadRequest, "bad_request"},
		{"negative granularity", grid.NewStaticProvider("s", hourly(1, 2)), span + "&duration=1h&granularity=-5m", http.StatusBadRequest, "bad_request"},
		{"sub-second granularity", grid.NewStaticProvider("s", hourly(1, 2)), span + "&duration=1h&granularity=1ns", http.StatusBadRequest, "bad_request"},
		{"nan epsilon", grid.NewStaticProvider("s", hourly(1, 2)), span + "&duration=1h&epsilon=NaN", http.StatusBadRequest, "bad_request"},
		{"inverted range", grid.NewStaticProvider("s", hourly(1, 2)), "from=2024-03-01T05:00:00Z&to=2024-03-01T00:00:00Z&duration=1h", http.StatusBadRequest, "bad_request"},
		{"gap", grid.NewStaticProvider("s", gapped), span + "&duration=3h", http.StatusUnprocessableEntity, "insufficient_data"},
		{"too long", grid.NewStaticProvider("s", hourly(1, 2)), span + "&duration=5h", http.StatusUnprocessableEntity, "insufficient_data"},
		{"unsorted", rawProvider{samples: unsorted}, span + "&duration=1h", http.StatusUnprocessableEntity, "malformed_input"},
		{"rate limited", failingProvider{grid.NewProviderError(grid.ErrorKindRateLimit, "ci", "national", 429, errors.New("slow down"))}, span + "&duration=1h", http.StatusBadGateway, "provider_rate_limit"},
		{"internal", failingProvider{errors.New("boom")}, span + "&duration=1h", http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.provider, Defaults{})
			var out errorResponse
			status := get(t, srv.URL+"/api/windows/optimal?"+tc.query, &out)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, out.Kind)
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestInsufficientDetails(t *testing.T) {
	gapped := append(hourly(50, 60), model.Sample{From: base.Add(3 * time.Hour), To: base.Add(4 * time.Hour), CleanEnergy: 70})
	srv := newServer(t, grid.NewStaticProvider("s", gapped), Defaults{})
	var out errorResponse
	require.Equal(t, http.StatusUnprocessableEntity, get(t, srv.URL+"/api/windows/optimal?"+span+"&duration=3h", &out))
	assert.Equal(t, "3h0m0s", out.Details["requested"])
	assert.Equal(t, "2h0m0s", out.Details["largest_contiguous"])
}

func TestAboveRequiresThreshold(t *testing.T) {
	srv := newServer(t, grid.NewStaticProvider("s", hourly(1, 2)), Defaults{})
	var out errorResponse
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/windows/above?"+span+"&duration=1h", &out))
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/windows/above?"+span+"&duration=1h&threshold=150", &out))
}

func TestRecommendationsAndHealth(t *testing.T) {
	srv := newServer(t, grid.NewStaticProvider("static", hourly(20, 80, 90, 30, 10)), Defaults{Duration: time.Hour})
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/windows/optimal?"+span, nil))
	}
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/windows/above?"+span+"&threshold=50", nil))

	var recs []audit.Record
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/recommendations?region=National&mode=optimal&limit=2", &recs))
	assert.Len(t, recs, 2)

	require.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/recommendations?limit=-1", nil))

	var health map[string]string
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/healthz", &health))
	assert.Equal(t, "ok", health["status"])
}
