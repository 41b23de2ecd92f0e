// Package metrics counts generator calls, fallbacks and score distributions of the evaluation
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "interview_coach"

type Metrics struct {
	registry *prometheus.Registry

	generationRequests *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	fallbacks          *prometheus.CounterVec
	records            *prometheus.CounterVec
	scores             *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generationRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_requests_total",
				Help:      "Generator calls by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Generator call duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Deterministic fallbacks by pipeline step and reason",
			},
			[]string{"step", "reason"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feedback_records_total",
				Help:      "Feedback records by the path that produced them",
			},
			[]string{"source"},
		),
		scores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feedback_score",
				Help:      "Distribution of returned scores",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
			[]string{"dimension"},
		),
	}

	m.registry.MustRegister(m.generationRequests, m.generationDuration, m.fallbacks, m.records, m.scores)
	return m
}

// Registry exposes the collectors for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveGeneration(kind, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.generationRequests.WithLabelValues(kind, outcome).Inc()
	m.generationDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func (m *Metrics) ObserveFallback(step, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(step, reason).Inc()
}

func (m *Metrics) ObserveRecord(source string, proficiency, confidence int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(source).Inc()
	m.scores.WithLabelValues("proficiency").Observe(float64(proficiency))
	m.scores.WithLabelValues("confidence").Observe(float64(confidence))
}

// WriteTextfile dumps the current values in the text exposition format, suitable for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %q: %w", path, err)
	}
	return nil
}
