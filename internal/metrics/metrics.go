// Package metrics defines the Prometheus collectors for one pipeline run and
// exports them in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Worker label values.
const (
	WorkerProducer = "producer"
	WorkerConsumer = "consumer"
)

// Metrics holds the collectors for a run. Each instance owns its registry so
// that runs and tests never share global state. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ItemsSent       prometheus.Counter
	ItemsReceived   prometheus.Counter
	ItemsOversized  prometheus.Counter
	EntriesFiltered prometheus.Counter
	ReadFailures    prometheus.Counter
	Matches         prometheus.Counter
	FilesMatched    prometheus.Counter
	WorkerFailures  *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	RunDuration     prometheus.Histogram
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ItemsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treegrep_items_sent_total",
			Help: "Paths sent by the producer.",
		}),
		ItemsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treegrep_items_received_total",
			Help: "Paths received and processed by the consumer.",
		}),
		ItemsOversized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treegrep_items_oversized_total",
			Help: "Paths skipped because they exceed the max item size.",
		}),
		EntriesFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treegrep_entries_filtered_total",
			Help: "Walked entries that matched no mask.",
		}),
		ReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treegrep_read_failures_total",
			Help: "Files the consumer failed to read.",
		}),
		Matches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treegrep_matches_total",
			Help: "Text occurrences found.",
		}),
		FilesMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treegrep_files_matched_total",
			Help: "Files with at least one occurrence.",
		}),
		WorkerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treegrep_worker_failures_total",
			Help: "Worker failures by worker and error kind.",
		}, []string{"worker", "kind"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treegrep_queue_depth",
			Help: "Items buffered in the queue at the last observation.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "treegrep_run_duration_seconds",
			Help:    "Wall time of a pipeline run.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}

	m.registry.MustRegister(
		m.ItemsSent,
		m.ItemsReceived,
		m.ItemsOversized,
		m.EntriesFiltered,
		m.ReadFailures,
		m.Matches,
		m.FilesMatched,
		m.WorkerFailures,
		m.QueueDepth,
		m.RunDuration,
	)

	return m
}

// Registry returns the registry holding this run's collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Sent records one path handed to the queue and the resulting depth.
func (m *Metrics) Sent(depth int) {
	if m == nil {
		return
	}
	m.ItemsSent.Inc()
	m.QueueDepth.Set(float64(depth))
}

// Received records one processed path, its hit count and the remaining depth.
func (m *Metrics) Received(hits, depth int) {
	if m == nil {
		return
	}
	m.ItemsReceived.Inc()
	m.QueueDepth.Set(float64(depth))
	if hits > 0 {
		m.Matches.Add(float64(hits))
		m.FilesMatched.Inc()
	}
}

// Oversized records a path rejected by the queue size limit.
func (m *Metrics) Oversized() {
	if m == nil {
		return
	}
	m.ItemsOversized.Inc()
}

// Filtered records a walked entry that no mask accepted.
func (m *Metrics) Filtered() {
	if m == nil {
		return
	}
	m.EntriesFiltered.Inc()
}

// ReadFailed records a file the consumer could not read.
func (m *Metrics) ReadFailed() {
	if m == nil {
		return
	}
	m.ReadFailures.Inc()
}

// WorkerFailed records a failure captured in a worker's future.
func (m *Metrics) WorkerFailed(worker, kind string) {
	if m == nil {
		return
	}
	m.WorkerFailures.WithLabelValues(worker, kind).Inc()
}

// ObserveRun records the duration of a finished run.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}

// WriteTextfile writes all collectors to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
