// Package metrics provides Prometheus metrics for the rocauc evaluator.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcomes used as the "outcome" label.
const (
	OutcomeOK           = "ok"
	OutcomeFileError    = "file_error"
	OutcomeParseError   = "parse_error"
	OutcomeInvalidInput = "invalid_input"
	OutcomeCanceled     = "canceled"
)

// Manager owns the evaluator's Prometheus collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         *prometheus.Registry

	// Evaluation
	evaluations       *prometheus.CounterVec
	samplesRead       prometheus.Counter
	evaluationLatency prometheus.Histogram
	auc               *prometheus.GaugeVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerBusy              prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	reportsStored prometheus.Gauge
}

// Defaults for NewManager.
const (
	DefaultNamespace = "rocauc"
	subsystem        = "evaluator"
)

var latencyBuckets = []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000} //nolint:gochecknoglobals // shared by both histograms

// current backs the package-level recorders.
var current atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton used by package-level recorders

func init() { //nolint:gochecknoinits // recorders work before Configure is called
	current.Store(NewManager())
}

// Configure replaces the global manager with one built from opts.
// Without WithPrometheusRegistry it starts from an empty registry, so
// earlier recordings are dropped.
func Configure(opts ...Option) *Manager {
	m := NewManager(opts...)
	current.Store(m)
	return m
}

func global() *Manager {
	return current.Load()
}

// NewManager creates a metrics manager and registers its collectors.
// Collectors go to a private registry, keeping Go runtime metrics out of the dump.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        DefaultNamespace,
		subsystem:        subsystem,
		histogramBuckets: latencyBuckets,
		constLabels:      prometheus.Labels{},
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)

	m.evaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluations_total",
		Help:        "Number of evaluated sources by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.samplesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "samples_read_total",
		Help:        "Number of (label, score) samples parsed",
		ConstLabels: m.constLabels,
	})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "evaluation_latency_milliseconds",
		Help:        "Time to read and rank one source",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.auc = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "auc",
		Help:        "Area under the ROC curve of the last evaluation of a source",
		ConstLabels: m.constLabels,
	}, []string{"source"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_size",
		Help:        "Jobs waiting in the evaluation queue",
		ConstLabels: m.constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Maximum number of queued jobs",
		ConstLabels: m.constLabels,
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_enqueued_total",
		Help:        "Jobs accepted by the queue",
		ConstLabels: m.constLabels,
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_dequeued_total",
		Help:        "Jobs handed to workers",
		ConstLabels: m.constLabels,
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_enqueue_errors_total",
		Help:        "Jobs rejected by the queue by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_count",
		Help:        "Workers in the evaluation pool",
		ConstLabels: m.constLabels,
	})

	m.workerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_busy",
		Help:        "Workers currently evaluating a job",
		ConstLabels: m.constLabels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_processing_latency_milliseconds",
		Help:        "Time a worker spends on one job, including storage",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_errors_total",
		Help:        "Jobs that ended with an error",
		ConstLabels: m.constLabels,
	})

	m.reportsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reports_stored",
		Help:        "Reports held by the in-memory repository",
		ConstLabels: m.constLabels,
	})
}

// RecordEvaluation counts one evaluated source by outcome.
func RecordEvaluation(outcome string) {
	global().evaluations.WithLabelValues(outcome).Inc()
}

// RecordSamplesRead adds n parsed samples.
func RecordSamplesRead(n int) {
	global().samplesRead.Add(float64(n))
}

// RecordEvaluationLatency records the time spent on one source in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	global().evaluationLatency.Observe(latencyMs)
}

// SetAUC publishes the AUC computed for source.
func SetAUC(source string, value float64) {
	global().auc.WithLabelValues(source).Set(value)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	global().queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	global().queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	global().queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	global().queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError(reason string) {
	global().queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the pool size.
func UpdateWorkerCount(count int) {
	global().workerCount.Set(float64(count))
}

// WorkerBusy marks one more worker as busy.
func WorkerBusy() {
	global().workerBusy.Inc()
}

// WorkerIdle marks one busy worker as idle again.
func WorkerIdle() {
	global().workerBusy.Dec()
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	global().workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	global().workerErrors.Inc()
}

// UpdateReportsStored sets the number of stored reports.
func UpdateReportsStored(count int) {
	global().reportsStored.Set(float64(count))
}

// GetRegistry returns the registry holding the evaluator metrics.
func GetRegistry() *prometheus.Registry {
	return global().registry
}

// WriteTextfile dumps the registry to path in the text exposition format
// read by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, GetRegistry()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, path, err)
	}
	return nil
}
