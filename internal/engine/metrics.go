package engine

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors the engine reports to.
type Metrics struct {
	Outcomes              *prometheus.CounterVec
	PipelineSeconds       prometheus.Histogram
	ClassifierUnavailable prometheus.Counter
	InsufficientData      prometheus.Counter
}

// NewMetrics creates the engine collectors and registers them on reg.
// Collectors that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sketchcoach",
				Subsystem: "engine",
				Name:      "outcomes_total",
				Help:      "Analyze calls by outcome kind",
			},
			[]string{"kind"},
		),
		PipelineSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sketchcoach",
				Subsystem: "engine",
				Name:      "pipeline_duration_seconds",
				Help:      "Duration of a full analysis pipeline run",
				Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		ClassifierUnavailable: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sketchcoach",
				Subsystem: "engine",
				Name:      "classifier_unavailable_total",
				Help:      "Analyses scored without a classifier result",
			},
		),
		InsufficientData: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sketchcoach",
				Subsystem: "engine",
				Name:      "insufficient_data_total",
				Help:      "Strokes rejected for having fewer than two points",
			},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	m.Outcomes, err = register(reg, m.Outcomes)
	if err != nil {
		return nil, err
	}
	m.PipelineSeconds, err = register(reg, m.PipelineSeconds)
	if err != nil {
		return nil, err
	}
	m.ClassifierUnavailable, err = register(reg, m.ClassifierUnavailable)
	if err != nil {
		return nil, err
	}
	m.InsufficientData, err = register(reg, m.InsufficientData)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register engine metrics: %w", err)
	}
	return c, nil
}

func (m *Metrics) observe(kind OutcomeKind) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(kind.String()).Inc()
}
