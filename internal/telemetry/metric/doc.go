// Package metric provides Prometheus metrics for the ledger daemon.
//
//   - prometheus.go: registry, operation counters and the /metrics handler
//   - collector.go: a collector that reads supply and shard occupancy from
//     the live ledger on every scrape
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
