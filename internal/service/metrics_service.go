package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/lesson-engine/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the host and the engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	conflictGroups  *prometheus.GaugeVec
	detectDuration  prometheus.Observer
	transitions     *prometheus.CounterVec
	staleApprovals  prometheus.Counter
	sweepRuns       *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	conflictGroups := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_conflict_groups",
		Help: "Conflict groups found by the latest detection run, per dimension",
	}, []string{"source", "dimension"})

	detectDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_conflict_detection_seconds",
		Help:    "Time spent detecting conflicts over a snapshot",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "substitution_transitions_total",
		Help: "Substitution requests moved into each status",
	}, []string{"status"})

	staleApprovals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "substitution_stale_approvals_total",
		Help: "Approvals rejected because the substitute became busy",
	})

	sweepRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_sweep_runs_total",
		Help: "Scheduled conflict sweeps by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration, conflictGroups, detectDuration, transitions, staleApprovals, sweepRuns, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		conflictGroups:  conflictGroups,
		detectDuration:  detectDuration,
		transitions:     transitions,
		staleApprovals:  staleApprovals,
		sweepRuns:       sweepRuns,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveConflictReport publishes per-dimension group counts for a detection
// run. source distinguishes on-demand requests from the scheduled sweep.
func (m *MetricsService) ObserveConflictReport(source string, report models.ConflictReport, duration time.Duration) {
	if m == nil {
		return
	}
	m.detectDuration.Observe(duration.Seconds())
	for _, dim := range models.AllDimensions {
		m.conflictGroups.WithLabelValues(source, string(dim)).Set(float64(len(report[dim])))
	}
}

// RecordSubstitutionTransition counts a request reaching status.
func (m *MetricsService) RecordSubstitutionTransition(status models.SubstitutionStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(status)).Inc()
}

// RecordStaleApproval counts an approval rejected by re-validation.
func (m *MetricsService) RecordStaleApproval() {
	if m == nil {
		return
	}
	m.staleApprovals.Inc()
}

// RecordSweep counts a sweep run by outcome ("ok" or "error").
func (m *MetricsService) RecordSweep(outcome string) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
}
