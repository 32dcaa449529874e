// Package monitoring exposes the harvester's Prometheus metrics:
// counters and histograms over the harvest pipeline, served on
// --metrics-addr when configured.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServiceName identifies this process in metrics.
const ServiceName = "storeharvester"

var (
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_records_emitted_total",
			Help: "Total number of canonical records emitted by a harvest",
		},
		[]string{"brand"},
	)

	RecordsExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_records_excluded_total",
			Help: "Total number of raw records excluded during normalization",
		},
		[]string{"brand", "reason"},
	)

	PagesWalked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_pages_walked_total",
			Help: "Total number of pagination pages fetched",
		},
		[]string{"brand", "pattern"},
	)

	CellsVisited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_cells_visited_total",
			Help: "Total number of viewport grid cells visited",
		},
		[]string{"brand"},
	)

	DedupRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_dedup_rejected_total",
			Help: "Total number of raw records rejected by the executor's source-identity dedup",
		},
		[]string{"brand"},
	)

	GeocodeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_geocode_calls_total",
			Help: "Total number of forward-geocode calls issued, by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "cache_hit"
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_fetch_retries_total",
			Help: "Total number of HTTP fetch retries",
		},
		[]string{"host"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeharvester_fetch_duration_seconds",
			Help:    "HTTP fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"host"},
	)

	HarvestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeharvester_harvest_duration_seconds",
			Help:    "End-to-end harvest duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"brand", "pattern"},
	)

	RateLimitWaitTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeharvester_rate_limit_wait_seconds",
			Help:    "Time spent waiting on a per-host rate limiter",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"host"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeharvester_errors_total",
			Help: "Total number of errors by component and code",
		},
		[]string{"component", "code"},
	)
)

// RecordHarvest records one harvest run's top-line outcome.
func RecordHarvest(brand, pattern string, duration time.Duration, records, excluded int) {
	HarvestDuration.WithLabelValues(brand, pattern).Observe(duration.Seconds())
	RecordsEmitted.WithLabelValues(brand).Add(float64(records))
	_ = excluded // recorded per-exclusion via RecordExclusion instead of in aggregate
}

// RecordExclusion increments the excluded-record counter for reason.
func RecordExclusion(brand, reason string) {
	RecordsExcluded.WithLabelValues(brand, reason).Inc()
}

// RecordFetchRetry increments the retry counter for host.
func RecordFetchRetry(host string) {
	FetchRetries.WithLabelValues(host).Inc()
}

// RecordGeocodeCall increments the geocode outcome counter.
func RecordGeocodeCall(outcome string) {
	GeocodeCalls.WithLabelValues(outcome).Inc()
}

// RecordError increments the error counter for component/code.
func RecordError(component, code string) {
	ErrorsTotal.WithLabelValues(component, code).Inc()
}
