package core

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "datacleaner"

// Metrics records pipeline activity in its own Prometheus registry. All
// methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	files             *prometheus.CounterVec
	stepDuration      *prometheus.HistogramVec
	duplicatesRemoved prometheus.Counter
	cellsFilled       prometheus.Counter
	exports           *prometheus.CounterVec
	bytesIngested     prometheus.Counter
	heldUploads       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_processed_total",
			Help:      "Files run through the pipeline, by input format and outcome.",
		}, []string{"format", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each pipeline step.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"step"}),
		duplicatesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "duplicate_rows_removed_total",
			Help:      "Rows dropped as duplicates.",
		}),
		cellsFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "missing_cells_filled_total",
			Help:      "Missing numeric cells replaced by the column mean.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exports_total",
			Help:      "Artifacts produced, by output format.",
		}, []string{"format"}),
		bytesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ingested_bytes_total",
			Help:      "Bytes of uploaded file content parsed.",
		}),
		heldUploads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "held_uploads",
			Help:      "Uploads currently held in memory for re-processing.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.files,
		m.stepDuration,
		m.duplicatesRemoved,
		m.cellsFilled,
		m.exports,
		m.bytesIngested,
		m.heldUploads,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeStep(step Step, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(string(step)).Observe(d.Seconds())
}

func (m *Metrics) fileProcessed(format Format, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.files.WithLabelValues(string(format), outcome).Inc()
}

func (m *Metrics) ingested(n int) {
	if m == nil {
		return
	}
	m.bytesIngested.Add(float64(n))
}

func (m *Metrics) duplicates(n int) {
	if m == nil {
		return
	}
	m.duplicatesRemoved.Add(float64(n))
}

func (m *Metrics) filled(n int) {
	if m == nil {
		return
	}
	m.cellsFilled.Add(float64(n))
}

func (m *Metrics) exported(format Format) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(string(format)).Inc()
}

func (m *Metrics) setHeld(n int) {
	if m == nil {
		return
	}
	m.heldUploads.Set(float64(n))
}
