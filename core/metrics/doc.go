// Package metrics exposes Prometheus counters for cache decisions, collection
// reads and writes.
package metrics
