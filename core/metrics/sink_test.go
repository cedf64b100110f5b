package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cleancharge/core/factory"
	metrics "github.com/kilianp07/cleancharge/core/metrics"
	_ "github.com/kilianp07/cleancharge/infra/metrics"
)

func TestNewSinkFromYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: prometheus
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	cfg.SetDefaults()
	assert.Equal(t, ":2112", cfg.PrometheusAddr)

	s, err := metrics.NewSink(cfg.Sinks)
	require.NoError(t, err)
	multi, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "got %T", s)
	assert.Len(t, multi.Sinks, 2)
	assert.NoError(t, s.RecordSelection(metrics.SelectionEvent{Provider: "mock", Region: "national", Mode: "optimal", Outcome: metrics.OutcomeOK}))
}

func TestNewSinkFromJSONUnknownType(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"statsd"}]}`), &cfg))
	_, err := metrics.NewSink(cfg.Sinks)
	assert.Error(t, err)
}

func TestNewSinkCardinality(t *testing.T) {
	s, err := metrics.NewSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s, "a single sink is not wrapped")

	assert.Subset(t, metrics.SinkTypes(), []string{"nop", "prometheus", "influx"})
}
