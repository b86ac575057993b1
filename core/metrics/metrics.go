package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog_console"

// Recorder collects synchronization and mutation statistics on its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheChecks   *prometheus.CounterVec
	mutations     *prometheus.CounterVec
}

// New creates a recorder with a fresh registry that also carries the Go and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Collection reads by source, key and outcome.",
		}, []string{"source", "key", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of collection reads that hit the network.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "key"}),
		cacheChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_checks_total",
			Help:      "Freshness checks by key and result.",
		}, []string{"key", "fresh"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Writes by key, method and outcome.",
		}, []string{"key", "method", "outcome"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.fetches, r.fetchDuration, r.cacheChecks, r.mutations,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one settled source read.
func (r *Recorder) ObserveFetch(source, key, outcome string, took time.Duration) {
	r.fetches.WithLabelValues(source, key, outcome).Inc()
	if took > 0 {
		r.fetchDuration.WithLabelValues(source, key).Observe(took.Seconds())
	}
}

// ObserveCacheCheck records one freshness decision.
func (r *Recorder) ObserveCacheCheck(key string, fresh bool) {
	r.cacheChecks.WithLabelValues(key, strconv.FormatBool(fresh)).Inc()
}

// ObserveMutation records one write attempt.
func (r *Recorder) ObserveMutation(key, method, outcome string) {
	r.mutations.WithLabelValues(key, method, outcome).Inc()
}
