package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	ResolverRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "resolver_requests_total",
		Help:      "Total requests to metadata resolvers by resolver name and result status.",
	}, []string{"resolver", "status"})

	ResolverRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalog",
		Name:      "resolver_request_duration_seconds",
		Help:      "Metadata resolver request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"resolver"})

	ResolverAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "catalog",
		Name:      "resolver_available",
		Help:      "Whether a resolver is available (1) or blocked by circuit breaker (0).",
	}, []string{"resolver"})

	EnrichCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "enrich_cache_hits_total",
		Help:      "Total number of enrichment cache hits.",
	})

	EnrichCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "enrich_cache_misses_total",
		Help:      "Total number of enrichment cache misses.",
	})

	EnrichedItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog",
		Name:      "enriched_items_total",
		Help:      "Total enriched catalog items by data source.",
	}, []string{"source"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ResolverRequestsTotal,
		ResolverRequestDuration,
		ResolverAvailable,
		EnrichCacheHitsTotal,
		EnrichCacheMissesTotal,
		EnrichedItemsTotal,
	)
}
