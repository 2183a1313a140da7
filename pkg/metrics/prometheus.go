// Package metrics provides Prometheus metrics for the attreval service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the attreval service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring
	recordsScored *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	lastScore     *prometheus.GaugeVec
	scoringRuns   *prometheus.CounterVec

	// Prediction pipeline
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	imageFetches      *prometheus.CounterVec
	sanityViolations  *prometheus.CounterVec

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
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
		namespace:        "attreval",
		subsystem:        "eval",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// NewMetricsManager is an alias of NewManager.
func NewMetricsManager(opts ...Option) *Manager {
	return NewManager(opts...)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.recordsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_scored_total",
		Help:      "Total number of records passed through a scorer",
	}, []string{"variant"})

	m.outcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outcomes_total",
		Help:      "Record-level outcomes of the binary scorer",
	}, []string{"outcome"})

	m.lastScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_f1_score",
		Help:      "F1 score of the most recent scoring run",
	}, []string{"variant"})

	m.scoringRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_runs_total",
		Help:      "Total number of scoring runs by source",
	}, []string{"source"})

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of predictions by status",
	}, []string{"status"})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_latency_milliseconds",
		Help:      "Histogram of predictor latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.imageFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "image_fetches_total",
		Help:      "Image fetch attempts by result",
	}, []string{"result"})

	m.sanityViolations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sanity_violations_total",
		Help:      "Output sanity check findings by kind",
	}, []string{"kind"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of prediction jobs waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum queue capacity",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of prediction workers",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordRecordsScored adds n records to the counter of the given scorer variant.
func RecordRecordsScored(variant string, n int) {
	globalManager.recordsScored.WithLabelValues(variant).Add(float64(n))
}

// RecordOutcomes adds the four binary outcome counters.
func RecordOutcomes(tp, fp, fn, tn int) {
	globalManager.outcomes.WithLabelValues("true_positive").Add(float64(tp))
	globalManager.outcomes.WithLabelValues("false_positive").Add(float64(fp))
	globalManager.outcomes.WithLabelValues("false_negative").Add(float64(fn))
	globalManager.outcomes.WithLabelValues("true_negative").Add(float64(tn))
}

// UpdateLastScore sets the last F1 score for a variant.
func UpdateLastScore(variant string, score float64) {
	globalManager.lastScore.WithLabelValues(variant).Set(score)
}

// RecordScoringRun counts a scoring run from the given source (cli, http, predict).
func RecordScoringRun(source string) {
	globalManager.scoringRuns.WithLabelValues(source).Inc()
}

// RecordPrediction counts a prediction by status (ok, empty, error).
func RecordPrediction(status string) {
	globalManager.predictions.WithLabelValues(status).Inc()
}

// RecordPredictionLatency records predictor latency.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordImageFetch counts an image fetch by result (fetched, skipped, failed).
func RecordImageFetch(result string) {
	globalManager.imageFetches.WithLabelValues(result).Inc()
}

// RecordSanityViolation counts a sanity check finding (missing, extra, invalid).
func RecordSanityViolation(kind string, n int) {
	globalManager.sanityViolations.WithLabelValues(kind).Add(float64(n))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
