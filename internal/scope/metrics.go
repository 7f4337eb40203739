package scope

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricResolutions          = "scope_resolutions_total"
	MetricFailClosed           = "scope_fail_closed_total"
	MetricAmbiguousNameMatches = "scope_ambiguous_name_matches_total"
	MetricSetCacheHits         = "scope_set_cache_hits_total"
	MetricSetCacheMisses       = "scope_set_cache_misses_total"
	MetricSetCacheErrors       = "scope_set_cache_errors_total"
)

// Metrics contains Prometheus metrics for scope resolution.
// All operations are thread-safe.
type Metrics struct {
	resolutions          *prometheus.CounterVec
	failClosed           *prometheus.CounterVec
	ambiguousNameMatches *prometheus.CounterVec
	setCacheHits         prometheus.Counter
	setCacheMisses       prometheus.Counter
	setCacheErrors       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a
// registry.
func NewMetrics() *Metrics {
	return &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricResolutions,
				Help: "Total number of scope resolutions by role and target level",
			},
			[]string{"role", "level"},
		),
		failClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFailClosed,
				Help: "Total number of resolutions that produced the fail-closed empty predicate",
			},
			[]string{"role", "reason"},
		),
		ambiguousNameMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricAmbiguousNameMatches,
				Help: "Total number of location-set resolutions that matched more than one node",
			},
			[]string{"level"},
		),
		setCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSetCacheHits,
				Help: "Total number of location-set cache hits",
			},
		),
		setCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSetCacheMisses,
				Help: "Total number of location-set cache misses",
			},
		),
		setCacheErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSetCacheErrors,
				Help: "Total number of Redis errors during location-set caching (fail-open events)",
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.resolutions,
		m.failClosed,
		m.ambiguousNameMatches,
		m.setCacheHits,
		m.setCacheMisses,
		m.setCacheErrors,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Resolution records one scope resolution.
func (m *Metrics) Resolution(role, level string) {
	m.resolutions.WithLabelValues(role, level).Inc()
}

// FailClosed records one fail-closed resolution.
func (m *Metrics) FailClosed(role, reason string) {
	m.failClosed.WithLabelValues(role, reason).Inc()
}

// AmbiguousNameMatch records one multi-node name match.
func (m *Metrics) AmbiguousNameMatch(level string) {
	m.ambiguousNameMatches.WithLabelValues(level).Inc()
}

// CacheHit records one set-cache hit.
func (m *Metrics) CacheHit() { m.setCacheHits.Inc() }

// CacheMiss records one set-cache miss.
func (m *Metrics) CacheMiss() { m.setCacheMisses.Inc() }

// CacheError records one set-cache Redis error.
func (m *Metrics) CacheError() { m.setCacheErrors.Inc() }
