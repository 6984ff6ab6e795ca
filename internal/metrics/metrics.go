// Package metrics holds the Prometheus collectors for the generation
// pipelines and their model calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "compass"

// Metrics exposes Prometheus collectors that report pipeline activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	outcomes     *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	traceErrors  *prometheus.CounterVec
}

// MustNew constructs a Metrics instance using the provided registerer.
// Tests should pass a fresh prometheus.NewRegistry(). Registration errors
// panic, mirroring promauto.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "results_total",
				Help:      "Pipeline results by flavor and outcome (structured, degraded, failed, config_error).",
			},
			[]string{"pipeline", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "call_duration_seconds",
				Help:      "Duration of model provider calls.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"provider", "model", "outcome"},
		),
		traceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "trace",
				Name:      "write_errors_total",
				Help:      "Prompt trace records that could not be written.",
			},
			[]string{"sink"},
		),
	}
	reg.MustRegister(m.outcomes, m.callDuration, m.traceErrors)
	return m
}

// IncOutcome counts one pipeline result.
func (m *Metrics) IncOutcome(pipeline, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(pipeline, outcome).Inc()
}

// ObserveCall records one model call. It satisfies llm.CallObserver.
func (m *Metrics) ObserveCall(provider, model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.callDuration.WithLabelValues(provider, model, outcome).Observe(d.Seconds())
}

// IncTraceError counts a failed trace write for sink.
func (m *Metrics) IncTraceError(sink string) {
	if m == nil {
		return
	}
	m.traceErrors.WithLabelValues(sink).Inc()
}
