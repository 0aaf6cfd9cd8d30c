// Package metrics provides Prometheus metrics for the scorestream services.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the scorestream services.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Write path
	recordsPublished prometheus.Counter
	publishErrors    prometheus.Counter
	publishLatency   prometheus.Histogram

	// Chain RPC
	rpcCalls   *prometheus.CounterVec
	rpcLatency *prometheus.HistogramVec

	// Read path
	recordsFetched        prometheus.Counter
	malformedRecords      prometheus.Counter
	observationsNew       prometheus.Counter
	observationsDuplicate prometheus.Counter
	seenSetSize           prometheus.Gauge
	leaderboardPlayers    prometheus.Gauge
	sinkEmits             *prometheus.CounterVec

	// Observation delivery
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueDrops        *prometheus.CounterVec
	workerActiveCount prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scorestream",
		subsystem:        "streams",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.recordsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_published_total",
		Help:      "Total number of records sent to the streams contract",
	})

	m.publishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_errors_total",
		Help:      "Total number of failed publish attempts",
	})

	m.publishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_latency_milliseconds",
		Help:      "Time from building a publish transaction to its hash being returned",
		Buckets:   m.histogramBuckets,
	})

	m.rpcCalls = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rpc_calls_total",
			Help:      "Total number of JSON-RPC calls by method and status",
		},
		[]string{"method", "status"},
	)

	m.rpcLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rpc_latency_milliseconds",
			Help:      "JSON-RPC call latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"method"},
	)

	m.recordsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_fetched_total",
		Help:      "Total number of records read from the streams contract",
	})

	m.malformedRecords = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_records_total",
		Help:      "Total number of field lists rejected by normalization",
	})

	m.observationsNew = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_new_total",
		Help:      "Total number of records observed for the first time",
	})

	m.observationsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_duplicate_total",
		Help:      "Total number of records suppressed as already seen",
	})

	m.seenSetSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "seen_set_size",
		Help:      "Number of distinct observations tracked by the subscriber",
	})

	m.leaderboardPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_players",
		Help:      "Number of players on the most recently computed leaderboard",
	})

	m.sinkEmits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sink_emits_total",
			Help:      "Total number of observations handed to a sink by sink and status",
		},
		[]string{"sink", "status"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Observations waiting for sink delivery",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum number of buffered observations",
	})

	m.queueDrops = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_drops_total",
			Help:      "Observations not queued for delivery by reason",
		},
		[]string{"reason"},
	)

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of running sink workers",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap memory in use in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordRecordsPublished adds n to the published records counter.
func RecordRecordsPublished(n int) {
	globalManager.recordsPublished.Add(float64(n))
}

// RecordPublishError increments the publish errors counter.
func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

// RecordPublishLatency records publish latency in milliseconds.
func RecordPublishLatency(latencyMs float64) {
	globalManager.publishLatency.Observe(latencyMs)
}

// RecordRPCCall records one JSON-RPC round trip.
func RecordRPCCall(method, status string, latencyMs float64) {
	globalManager.rpcCalls.WithLabelValues(method, status).Inc()
	globalManager.rpcLatency.WithLabelValues(method).Observe(latencyMs)
}

// RecordRecordsFetched adds n to the fetched records counter.
func RecordRecordsFetched(n int) {
	globalManager.recordsFetched.Add(float64(n))
}

// RecordMalformedRecord increments the malformed records counter.
func RecordMalformedRecord() {
	globalManager.malformedRecords.Inc()
}

// RecordObservationNew increments the new observations counter.
func RecordObservationNew() {
	globalManager.observationsNew.Inc()
}

// RecordObservationDuplicate increments the duplicate observations counter.
func RecordObservationDuplicate() {
	globalManager.observationsDuplicate.Inc()
}

// UpdateSeenSetSize sets the number of tracked observations.
func UpdateSeenSetSize(size int) {
	globalManager.seenSetSize.Set(float64(size))
}

// UpdateLeaderboardPlayers sets the leaderboard size.
func UpdateLeaderboardPlayers(count int) {
	globalManager.leaderboardPlayers.Set(float64(count))
}

// RecordSinkEmit records one observation delivery attempt.
func RecordSinkEmit(sink, status string) {
	globalManager.sinkEmits.WithLabelValues(sink, status).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueDrop counts an observation that could not be queued.
func RecordQueueDrop(reason string) {
	globalManager.queueDrops.WithLabelValues(reason).Inc()
}

// RecordQueueDrops counts n observations discarded at once, such as the
// backlog left when shutdown times out.
func RecordQueueDrops(reason string, n int) {
	globalManager.queueDrops.WithLabelValues(reason).Add(float64(n))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// CollectSystemMetrics samples the runtime once.
func CollectSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapInuse)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// RunSystemCollector samples the runtime every refresh interval until ctx ends.
func RunSystemCollector(ctx context.Context) {
	t := time.NewTicker(globalManager.refreshInterval)
	defer t.Stop()
	CollectSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			CollectSystemMetrics()
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
