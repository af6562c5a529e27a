package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for test generation runs.
type Metrics struct {
	registry    *prometheus.Registry
	Attempts    *prometheus.CounterVec
	Generations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics constructs a metrics registry with generator collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "testgen_completion_attempts_total",
		Help: "Completion attempts by role (primary/fallback), model and outcome",
	}, []string{"role", "model", "outcome"})

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "testgen_generations_total",
		Help: "Generation runs by terminal outcome",
	}, []string{"outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "testgen_generation_duration_seconds",
		Help:    "Generation run duration in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
	}, []string{"outcome"})

	reg.MustRegister(attempts, generations, durs)

	return &Metrics{
		registry:    reg,
		Attempts:    attempts,
		Generations: generations,
		Duration:    durs,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt counts a single completion attempt.
func (m *Metrics) RecordAttempt(role, model string, err error) {
	if m == nil {
		return
	}
	if role == "" {
		role = "unknown"
	}
	if model == "" {
		model = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Attempts.WithLabelValues(role, model, outcome).Inc()
}

// RecordGeneration records the terminal outcome and duration of a run.
func (m *Metrics) RecordGeneration(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.Generations.WithLabelValues(outcome).Inc()
	m.Duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
