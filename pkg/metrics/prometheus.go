// Package metrics provides Prometheus metrics for the tubesense analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tubesense service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Aggregation metrics
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	videosTotal      *prometheus.CounterVec
	videoLatency     prometheus.Histogram
	commentsWeighted prometheus.Counter
	unknownLabels    *prometheus.CounterVec
	inflightRuns     prometheus.Gauge

	// Queue and worker metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter
	queueWaitLatency prometheus.Histogram
	workerActive     prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	// System metrics
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
		namespace:        "tubesense",
		subsystem:        "analytics",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(m.counterOpts("runs_total", "Aggregation runs by mode and final status"), []string{"mode", "status"})
	m.runDuration = auto.NewHistogramVec(m.histogramOpts("run_duration_milliseconds", "Aggregation run duration in milliseconds"), []string{"mode"})
	m.videosTotal = auto.NewCounterVec(m.counterOpts("videos_total", "Video records examined by outcome"), []string{"outcome"})
	m.videoLatency = auto.NewHistogram(m.histogramOpts("video_processing_latency_milliseconds", "Time to read, derive and write one video record"))
	m.commentsWeighted = auto.NewCounter(m.counterOpts("comments_weighted_total", "Comments that received an engagement weight"))
	m.unknownLabels = auto.NewCounterVec(m.counterOpts("unknown_labels_total", "Model labels outside the configured taxonomy"), []string{"kind"})
	m.inflightRuns = auto.NewGauge(m.gaugeOpts("inflight_runs", "Channels currently being aggregated"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued runs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queued runs"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of runs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of runs dequeued"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Runs refused because the queue was full"))
	m.queueWaitLatency = auto.NewHistogram(m.histogramOpts("queue_wait_milliseconds", "Time a run spent queued before a worker picked it up"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently executing a run"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = auto.NewCounter(m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"))

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Total number of errors by component"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordRun counts a finished run and observes its duration.
func RecordRun(mode, status string, durationMs float64) {
	globalManager.runsTotal.WithLabelValues(mode, status).Inc()
	globalManager.runDuration.WithLabelValues(mode).Observe(durationMs)
}

// RecordVideo counts one examined video record by outcome
// (included, excluded, failed).
func RecordVideo(outcome string) {
	globalManager.videosTotal.WithLabelValues(outcome).Inc()
}

// RecordVideoLatency records the processing time of one video in milliseconds.
func RecordVideoLatency(latencyMs float64) {
	globalManager.videoLatency.Observe(latencyMs)
}

// RecordCommentsWeighted adds n weighted comments.
func RecordCommentsWeighted(n int) {
	globalManager.commentsWeighted.Add(float64(n))
}

// RecordUnknownLabel counts a label outside the taxonomy; kind is sentiment or topic.
func RecordUnknownLabel(kind string) {
	globalManager.unknownLabels.WithLabelValues(kind).Inc()
}

// UpdateInflightRuns sets the number of channels being aggregated.
func UpdateInflightRuns(count int) {
	globalManager.inflightRuns.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected increments the backpressure counter.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordQueueWait records how long a run waited in the queue.
func RecordQueueWait(latencyMs float64) {
	globalManager.queueWaitLatency.Observe(latencyMs)
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rate limiter rejection counter.
func RecordRateLimited() {
	globalManager.httpRateLimited.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RefreshInterval returns how often gauge updaters should sample.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
