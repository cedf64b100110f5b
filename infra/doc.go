// Package infra groups the adapters behind the core interfaces: the Carbon
// Intensity client, the synthetic feed, series caches, audit stores, metrics
// sinks, publishers and Sentry monitoring. Adapters register themselves with
// the core factories and depend on core, never the reverse.
package infra
