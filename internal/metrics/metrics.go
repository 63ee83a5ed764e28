// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stattrack"

// Metrics holds the service collectors on a private registry so the scrape
// endpoint carries only what this service emits.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	RoundsComputed     prometheus.Counter
	ReportsBuilt       prometheus.Counter
	ReportBuildSeconds prometheus.Histogram

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RoundsComputed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_computed_total",
			Help:      "Rounds materialized across all list requests.",
		}),
		ReportsBuilt: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "round_reports_built_total",
			Help:      "Replay reports reconstructed from raw telemetry.",
		}),
		ReportBuildSeconds: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_report_build_seconds",
			Help:      "Time spent refining and snapshotting one report.",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheHits: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by payload kind.",
		}, []string{"kind"}),
		CacheMisses: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses, including degraded lookups, by payload kind.",
		}, []string{"kind"}),
	}
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
