package metrics

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Model roles for the MAE gauge.
const (
	RoleChallenger = "challenger"
	RoleIncumbent  = "incumbent"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction
	predictionBatches   prometheus.Counter
	predictionRows      prometheus.Counter
	predictionBatchSize prometheus.Histogram
	predictionLatency   prometheus.Histogram
	predictionErrors    *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// History
	historyWriteErrors prometheus.Counter
	historyRecords     prometheus.Gauge
	storeOperation     *prometheus.HistogramVec

	// Feedback and retraining
	feedbackSubmissions *prometheus.CounterVec
	retrainRuns         *prometheus.CounterVec
	retrainDuration     prometheus.Histogram
	modelPromotions     prometheus.Counter
	modelMAE            *prometheus.GaugeVec
	modelLoaded         prometheus.Gauge
	retrainTriggers     *prometheus.CounterVec
	retrainQueueDepth   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "salaryd",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
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

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.predictionBatches = m.counter("prediction_batches_total", "Prediction batches served")
	m.predictionRows = m.counter("predictions_total", "Individual salary predictions served")
	m.predictionBatchSize = m.histogram("prediction_batch_size", "Rows per prediction batch",
		[]float64{1, 2, 5, 10, 20, 50, 100})
	m.predictionLatency = m.histogram("prediction_latency_seconds", "Time spent estimating one batch", m.histogramBuckets)
	m.predictionErrors = m.counterVec("prediction_errors_total", "Rejected or failed prediction requests", "reason")
	m.rateLimited = m.counterVec("rate_limited_total", "Requests rejected by the rate limiter", "endpoint")

	m.historyWriteErrors = m.counter("history_write_errors_total", "Predictions served without a history record")
	m.historyRecords = m.gauge("history_records", "History records held by the in-memory store")
	m.storeOperation = m.histogramVec("store_operation_duration_seconds", "History store operation latency",
		m.histogramBuckets, "store", "operation")

	m.feedbackSubmissions = m.counterVec("feedback_submissions_total", "Feedback submissions by result", "result")
	m.retrainRuns = m.counterVec("retrain_runs_total", "Retraining runs by status", "status")
	m.retrainDuration = m.histogram("retrain_duration_seconds", "Retraining run duration",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60})
	m.modelPromotions = m.counter("model_promotions_total", "Challenger models promoted to serving")
	m.modelMAE = m.gaugeVec("model_mae", "Mean absolute error from the latest retraining run", "role")
	m.modelLoaded = m.gauge("model_loaded", "1 when a model is serving, 0 otherwise")
	m.retrainTriggers = m.counterVec("retrain_triggers_total", "Retraining triggers by reason and result", "reason", "result")
	m.retrainQueueDepth = m.gauge("retrain_queue_depth", "Retraining triggers waiting for the worker")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds", "HTTP request latency",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

// RecordPrediction records a served batch of size rows that took seconds.
func RecordPrediction(rows int, seconds float64) {
	globalManager.predictionBatches.Inc()
	globalManager.predictionRows.Add(float64(rows))
	globalManager.predictionBatchSize.Observe(float64(rows))
	globalManager.predictionLatency.Observe(seconds)
}

// RecordPredictionError counts a rejected or failed prediction.
func RecordPredictionError(reason string) {
	globalManager.predictionErrors.WithLabelValues(reason).Inc()
}

// RecordRateLimited counts a request refused by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordHistoryWriteError counts a prediction that could not be recorded.
func RecordHistoryWriteError() {
	globalManager.historyWriteErrors.Inc()
}

// UpdateHistoryRecordsTotal sets the number of stored history records.
func UpdateHistoryRecordsTotal(count int) {
	globalManager.historyRecords.Set(float64(count))
}

// RecordStoreOperation observes a history store call.
func RecordStoreOperation(store, operation string, seconds float64) {
	globalManager.storeOperation.WithLabelValues(store, operation).Observe(seconds)
}

// RecordFeedback counts a feedback submission by result.
func RecordFeedback(result string) {
	globalManager.feedbackSubmissions.WithLabelValues(result).Inc()
}

// RecordRetrainRun counts a retraining run and observes its duration.
func RecordRetrainRun(status string, seconds float64) {
	globalManager.retrainRuns.WithLabelValues(status).Inc()
	globalManager.retrainDuration.Observe(seconds)
}

// RecordPromotion counts a promoted model.
func RecordPromotion() {
	globalManager.modelPromotions.Inc()
}

// UpdateModelMAE sets the MAE gauge for role.
func UpdateModelMAE(role string, mae float64) error {
	if role != RoleChallenger && role != RoleIncumbent {
		return fmt.Errorf("%w: %q", ErrUnknownModelRole, role)
	}
	globalManager.modelMAE.WithLabelValues(role).Set(mae)
	return nil
}

// UpdateModelLoaded flags whether a model is serving.
func UpdateModelLoaded(loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	globalManager.modelLoaded.Set(v)
}

// RecordRetrainTrigger counts a retraining trigger; result is queued,
// coalesced, cancelled or closed.
func RecordRetrainTrigger(reason, result string) {
	globalManager.retrainTriggers.WithLabelValues(reason, result).Inc()
}

// UpdateRetrainQueueDepth sets the number of pending retraining triggers.
func UpdateRetrainQueueDepth(n int) {
	globalManager.retrainQueueDepth.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// CollectSystemMetrics samples runtime memory and goroutine counts.
func CollectSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.HeapInuse))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
