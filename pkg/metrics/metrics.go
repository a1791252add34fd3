// Package metrics provides Prometheus collectors for spatial processing and
// backend switching.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teslashibe/go-spatialaudio/pkg/backend"
)

const namespace = "spatialaudio"

// Process outcome label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics contains the Prometheus metrics for the backend registry.
// It implements backend.Recorder.
type Metrics struct {
	ProcessTotal    *prometheus.CounterVec
	ProcessDuration *prometheus.HistogramVec
	SwitchTotal     *prometheus.CounterVec
	ActiveBackend   *prometheus.GaugeVec
}

// New creates the metrics and registers them with registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := newMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register spatialaudio metrics: %w", err)
	}
	return m, nil
}

func newMetrics() *Metrics {
	return &Metrics{
		ProcessTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_total",
			Help:      "Total spatial processing requests by backend and outcome",
		}, []string{"backend", "status"}),

		ProcessDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time spent computing spatial parameters",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"backend"}),

		SwitchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_switch_total",
			Help:      "Backend switch attempts by requested backend and result",
		}, []string{"backend", "result"}),

		ActiveBackend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_backend",
			Help:      "1 for the currently active backend, 0 otherwise",
		}, []string{"backend"}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.ProcessTotal.Describe(ch)
	m.ProcessDuration.Describe(ch)
	m.SwitchTotal.Describe(ch)
	m.ActiveBackend.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.ProcessTotal.Collect(ch)
	m.ProcessDuration.Collect(ch)
	m.SwitchTotal.Collect(ch)
	m.ActiveBackend.Collect(ch)
}

// RecordProcess counts one processing call and observes its duration.
func (m *Metrics) RecordProcess(kind backend.Kind, success bool, elapsed time.Duration) {
	status := StatusSuccess
	if !success {
		status = StatusFailure
	}
	m.ProcessTotal.WithLabelValues(kind.String(), status).Inc()
	m.ProcessDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// RecordSwitch counts one switch attempt.
func (m *Metrics) RecordSwitch(kind backend.Kind, result string) {
	m.SwitchTotal.WithLabelValues(kind.String(), result).Inc()
}

// SetActive marks kind as the active backend.
func (m *Metrics) SetActive(kind backend.Kind) {
	for _, k := range backend.Kinds() {
		m.ActiveBackend.WithLabelValues(k.String()).Set(0)
	}
	m.ActiveBackend.WithLabelValues(kind.String()).Set(1)
}

// Verify Metrics implements the registry recorder at compile time.
var _ backend.Recorder = (*Metrics)(nil)
