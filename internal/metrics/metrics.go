package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tablesBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitgo_tables_built_total",
			Help: "Total number of orbit tables built.",
		},
	)

	tableBuildFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitgo_table_build_failures_total",
			Help: "Total number of orbit table builds that returned an error.",
		},
	)

	tableBuildDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitgo_table_build_duration_seconds",
			Help:    "Orbit table build duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitgo_cache_hits_total",
			Help: "Total number of table cache hits.",
		},
	)

	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitgo_cache_misses_total",
			Help: "Total number of table cache misses.",
		},
	)

	cacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitgo_cache_evictions_total",
			Help: "Total number of tables evicted from the cache.",
		},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitgo_cache_entries",
			Help: "Number of tables currently cached.",
		},
	)

	cacheSizeBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitgo_cache_size_bytes",
			Help: "Estimated memory held by cached tables.",
		},
	)

	propagationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitgo_propagation_duration_seconds",
			Help:    "Duration of batch evaluations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	propagationSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitgo_propagation_samples_total",
			Help: "Total number of time samples evaluated.",
		},
		[]string{"query"},
	)

	derivativeSetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitgo_derivative_sets_total",
			Help: "Total number of derivative coefficient sets computed.",
		},
	)
)

func init() {
	prometheus.MustRegister(tablesBuiltTotal)
	prometheus.MustRegister(tableBuildFailuresTotal)
	prometheus.MustRegister(tableBuildDurationSeconds)
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
	prometheus.MustRegister(cacheEvictionsTotal)
	prometheus.MustRegister(cacheEntries)
	prometheus.MustRegister(cacheSizeBytes)
	prometheus.MustRegister(propagationDurationSeconds)
	prometheus.MustRegister(propagationSamplesTotal)
	prometheus.MustRegister(derivativeSetsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTableBuild records a successful table build.
func RecordTableBuild(d time.Duration) {
	tablesBuiltTotal.Inc()
	tableBuildDurationSeconds.Observe(d.Seconds())
}

// IncTableBuildFailures counts a failed table build.
func IncTableBuildFailures() {
	tableBuildFailuresTotal.Inc()
}

func IncCacheHits() {
	cacheHitsTotal.Inc()
}

func IncCacheMisses() {
	cacheMissesTotal.Inc()
}

func AddCacheEvictions(n int) {
	cacheEvictionsTotal.Add(float64(n))
}

// SetCacheEntries publishes the number of cached tables.
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// SetCacheSizeBytes publishes the estimated cache footprint.
func SetCacheSizeBytes(n int64) {
	cacheSizeBytes.Set(float64(n))
}

// RecordPropagation records one batch evaluation of the named query.
func RecordPropagation(query string, d time.Duration, samples int) {
	propagationDurationSeconds.WithLabelValues(query).Observe(d.Seconds())
	propagationSamplesTotal.WithLabelValues(query).Add(float64(samples))
}

// IncDerivativeSets counts a computed derivative coefficient set.
func IncDerivativeSets() {
	derivativeSetsTotal.Inc()
}
