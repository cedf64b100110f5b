// Package metrics defines the events emitted while planning charging windows
// and the Sink interface that records them. Implementations such as the
// Prometheus and InfluxDB sinks live in infra/metrics and register themselves
// with the factory helpers; several configured sinks are combined with
// NewMultiSink automatically.
package metrics
