// Package metrics provides Prometheus metrics for the campaign dashboards.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Dataset loading
	datasetLoads        *prometheus.CounterVec
	datasetLoadLatency  *prometheus.HistogramVec
	datasetRows         *prometheus.GaugeVec
	datasetMissingCells *prometheus.GaugeVec

	// Dataset store
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations *prometheus.CounterVec
	cacheEntries       prometheus.Gauge

	// Warm-up queue
	warmEnqueues   *prometheus.CounterVec
	warmQueueSize  prometheus.Gauge
	warmJobs       *prometheus.CounterVec
	warmJobLatency *prometheus.HistogramVec

	// Charts
	chartBuilds        *prometheus.CounterVec
	chartBuildLatency  *prometheus.HistogramVec
	chartRenderLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "campaignboard",
		subsystem:        "dashboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
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
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.datasetLoads = auto.NewCounterVec(
		m.counterOpts("dataset_loads_total", "Dataset loads from source files by result"),
		[]string{"dataset", "result"},
	)
	m.datasetLoadLatency = auto.NewHistogramVec(
		m.histogramOpts("dataset_load_duration_milliseconds", "Time spent reading and cleaning a source file"),
		[]string{"dataset"},
	)
	m.datasetRows = auto.NewGaugeVec(
		m.gaugeOpts("dataset_rows", "Rows in the most recently loaded dataset"),
		[]string{"dataset"},
	)
	m.datasetMissingCells = auto.NewGaugeVec(
		m.gaugeOpts("dataset_missing_cells", "Cells coerced to missing while cleaning the most recent load"),
		[]string{"dataset"},
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Dataset store lookups served from memory"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Dataset store lookups that read the source file"))
	m.cacheInvalidations = auto.NewCounterVec(
		m.counterOpts("cache_invalidations_total", "Dataset store entries dropped, by reason"),
		[]string{"reason"},
	)
	m.cacheEntries = auto.NewGauge(m.gaugeOpts("cache_entries", "Datasets currently held in memory"))

	m.chartBuilds = auto.NewCounterVec(
		m.counterOpts("chart_builds_total", "Chart specs built, by page and result"),
		[]string{"page", "result"},
	)
	m.chartBuildLatency = auto.NewHistogramVec(
		m.histogramOpts("chart_build_duration_milliseconds", "Time spent filtering and grouping rows into a chart spec"),
		[]string{"page"},
	)
	m.chartRenderLatency = auto.NewHistogramVec(
		m.histogramOpts("chart_render_duration_milliseconds", "Time spent rasterising a chart spec"),
		[]string{"format"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)

	m.warmEnqueues = auto.NewCounterVec(
		m.counterOpts("warm_enqueues_total", "Total number of warm-up enqueue attempts"),
		[]string{"reason", "result"},
	)
	m.warmQueueSize = auto.NewGauge(m.gaugeOpts("warm_queue_size", "Number of queued warm-up jobs"))
	m.warmJobs = auto.NewCounterVec(
		m.counterOpts("warm_jobs_total", "Total number of finished warm-up jobs"),
		[]string{"reason", "result"},
	)
	m.warmJobLatency = auto.NewHistogramVec(
		m.histogramOpts("warm_job_duration_milliseconds", "Warm-up job duration in milliseconds"),
		[]string{"reason"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordDatasetLoad counts a load attempt and its latency.
func RecordDatasetLoad(dataset, result string, durationMs float64) {
	globalManager.datasetLoads.WithLabelValues(dataset, result).Inc()
	globalManager.datasetLoadLatency.WithLabelValues(dataset).Observe(durationMs)
}

// UpdateDatasetShape publishes the row and missing-cell counts of a fresh load.
func UpdateDatasetShape(dataset string, rows, missingCells int) {
	globalManager.datasetRows.WithLabelValues(dataset).Set(float64(rows))
	globalManager.datasetMissingCells.WithLabelValues(dataset).Set(float64(missingCells))
}

// RecordCacheHit increments the store hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the store miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidation counts a dropped store entry.
func RecordCacheInvalidation(reason string) {
	globalManager.cacheInvalidations.WithLabelValues(reason).Inc()
}

// UpdateCacheEntries sets the number of datasets held in memory.
func UpdateCacheEntries(n int) {
	globalManager.cacheEntries.Set(float64(n))
}

// RecordWarmEnqueue counts an attempt to queue a warm-up job.
func RecordWarmEnqueue(reason, result string) {
	globalManager.warmEnqueues.WithLabelValues(reason, result).Inc()
}

// UpdateWarmQueueSize sets the number of queued warm-up jobs.
func UpdateWarmQueueSize(n int) {
	globalManager.warmQueueSize.Set(float64(n))
}

// RecordWarm counts a finished warm-up job and its latency.
func RecordWarm(reason, result string, durationMs float64) {
	globalManager.warmJobs.WithLabelValues(reason, result).Inc()
	globalManager.warmJobLatency.WithLabelValues(reason).Observe(durationMs)
}

// RecordChartBuild counts a chart build and its latency.
func RecordChartBuild(page, result string, durationMs float64) {
	globalManager.chartBuilds.WithLabelValues(page, result).Inc()
	globalManager.chartBuildLatency.WithLabelValues(page).Observe(durationMs)
}

// RecordChartRender records rendering latency for an output format.
func RecordChartRender(format string, durationMs float64) {
	globalManager.chartRenderLatency.WithLabelValues(format).Observe(durationMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint increments the error counter for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType increments the error counter for an error type.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry that holds every collector.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
