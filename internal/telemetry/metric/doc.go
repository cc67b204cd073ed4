// Package metric provides Prometheus metrics for vedis.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry with command, connection and shutdown metrics
//   - collector.go: StoreCollector reporting key and shard counts at scrape time
//
// Registry satisfies the dispatcher's Observer and the Redis server's
// ConnObserver, so wiring it in is enough to populate every series.
// Metrics are exposed at /metrics in Prometheus format.
package metric
