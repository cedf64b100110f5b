package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/cleancharge/core/metrics"
	"github.com/kilianp07/cleancharge/infra/logger"
)

// InfluxSink writes planner events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSelection writes one window_selection point.
func (s *InfluxSink) RecordSelection(ev coremetrics.SelectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("window_selection").
		AddTag("provider", ev.Provider).
		AddTag("region", ev.Region).
		AddTag("mode", ev.Mode).
		AddTag("outcome", ev.Outcome).
		AddField("requested_minutes", round3(ev.Requested.Minutes())).
		AddField("clean_energy_percent", round3(ev.Score)).
		AddField("windows", ev.Windows).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(eventTime(ev.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFetch writes one series_fetch point.
func (s *InfluxSink) RecordFetch(ev coremetrics.FetchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("series_fetch").
		AddTag("provider", ev.Provider).
		AddTag("region", ev.Region)
	if ev.CacheHit {
		p = p.AddTag("cache", "hit")
	} else {
		p = p.AddTag("cache", "miss")
	}
	p = p.AddField("samples", ev.Samples).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Err != "" {
		p = p.AddField("error", ev.Err)
	}
	p = p.SetTime(eventTime(ev.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
