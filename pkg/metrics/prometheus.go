// Package metrics provides Prometheus metrics for the pooldraft curation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsActive   prometheus.Gauge
	sessionsOpened   prometheus.Counter
	hydrations       *prometheus.CounterVec
	hydrationLatency prometheus.Histogram

	// Curation operations
	operations       *prometheus.CounterVec
	candidatesStaged prometheus.Gauge

	// Commit protocol
	commits           *prometheus.CounterVec
	commitLatency     prometheus.Histogram
	validationRejects *prometheus.CounterVec
	commitsInFlight   prometheus.Gauge

	// Roster feed
	rosterUpdates      prometheus.Counter
	rosterCandidates   prometheus.Gauge
	rosterQueueSize    prometheus.Gauge
	rosterQueueDropped prometheus.Counter
	rosterSubscribers  prometheus.Gauge

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage   prometheus.Gauge
	systemGoroutines    prometheus.Gauge
	systemGCPauseTimeMs prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pooldraft",
		subsystem:        "curation",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.sessionsActive = m.gauge("sessions_active", "Number of open curation sessions")
	m.sessionsOpened = m.counter("sessions_opened_total", "Total number of sessions opened")
	m.hydrations = m.counterVec("hydrations_total", "Session hydrations by outcome", "outcome")
	m.hydrationLatency = m.histogram("hydration_latency_milliseconds", "Hydration latency in milliseconds")

	m.operations = m.counterVec("operations_total", "Curation operations by name and outcome", "operation", "outcome")
	m.candidatesStaged = m.gauge("candidates_staged", "Candidates staged in the most recently touched session")

	m.commits = m.counterVec("commits_total", "Setup commits by outcome", "outcome")
	m.commitLatency = m.histogram("commit_latency_milliseconds", "Replace-all commit latency in milliseconds")
	m.validationRejects = m.counterVec("validation_rejects_total", "Commit validation violations by kind", "kind")
	m.commitsInFlight = m.gauge("commits_in_flight", "Commits currently holding the in-flight guard")

	m.rosterUpdates = m.counter("roster_updates_total", "Roster snapshots delivered to subscribers")
	m.rosterCandidates = m.gauge("roster_candidates", "Candidates in the latest roster snapshot")
	m.rosterQueueSize = m.gauge("roster_queue_size", "Roster snapshots waiting for dispatch")
	m.rosterQueueDropped = m.counter("roster_queue_dropped_total", "Roster snapshots dropped on a full queue")
	m.rosterSubscribers = m.gauge("roster_subscribers", "Active roster subscriptions")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Event store call latency", "call")
	m.storeErrors = m.counterVec("store_errors_total", "Event store errors by call", "call")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint and type",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTimeMs = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Session lifecycle.

func SessionOpened() {
	if globalManager.enabled {
		globalManager.sessionsOpened.Inc()
		globalManager.sessionsActive.Inc()
	}
}

func SessionClosed() {
	if globalManager.enabled {
		globalManager.sessionsActive.Dec()
	}
}

func UpdateSessionsActive(n int) {
	if globalManager.enabled {
		globalManager.sessionsActive.Set(float64(n))
	}
}

func RecordHydration(outcome string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.hydrations.WithLabelValues(outcome).Inc()
		globalManager.hydrationLatency.Observe(latencyMs)
	}
}

// Curation operations.

func RecordOperation(operation, outcome string) {
	if globalManager.enabled {
		globalManager.operations.WithLabelValues(operation, outcome).Inc()
	}
}

func UpdateCandidatesStaged(n int) {
	if globalManager.enabled {
		globalManager.candidatesStaged.Set(float64(n))
	}
}

// Commit protocol.

func RecordCommit(outcome string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.commits.WithLabelValues(outcome).Inc()
		if latencyMs >= 0 {
			globalManager.commitLatency.Observe(latencyMs)
		}
	}
}

func RecordValidationReject(kind string) {
	if globalManager.enabled {
		globalManager.validationRejects.WithLabelValues(kind).Inc()
	}
}

func UpdateCommitsInFlight(n int64) {
	if globalManager.enabled {
		globalManager.commitsInFlight.Set(float64(n))
	}
}

// Roster feed.

func RecordRosterUpdate(candidates int) {
	if globalManager.enabled {
		globalManager.rosterUpdates.Inc()
		globalManager.rosterCandidates.Set(float64(candidates))
	}
}

func UpdateRosterQueueSize(n int) {
	if globalManager.enabled {
		globalManager.rosterQueueSize.Set(float64(n))
	}
}

func RecordRosterQueueDropped() {
	if globalManager.enabled {
		globalManager.rosterQueueDropped.Inc()
	}
}

func UpdateRosterSubscribers(n int) {
	if globalManager.enabled {
		globalManager.rosterSubscribers.Set(float64(n))
	}
}

// Store.

func RecordStoreLatency(call string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeLatency.WithLabelValues(call).Observe(latencyMs)
	}
}

func RecordStoreError(call string) {
	if globalManager.enabled {
		globalManager.storeErrors.WithLabelValues(call).Inc()
	}
}

// HTTP.

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System.

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	if globalManager.enabled {
		globalManager.systemGoroutines.Set(float64(n))
	}
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTimeMs.Observe(ms)
	}
}

// GetRegistry returns the custom registry that backs the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// SinceMs returns the milliseconds elapsed since start as a float.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
