// Package metrics exposes evolution progress as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"evonet/internal/genetic"
)

// Metrics is safe to use as a nil pointer, in which case every observation is
// dropped.
type Metrics struct {
	generations       *prometheus.CounterVec
	evaluations       *prometheus.CounterVec
	bestFitness       *prometheus.GaugeVec
	meanFitness       *prometheus.GaugeVec
	evaluationSeconds prometheus.Histogram
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evonet_generations_total",
			Help: "Generations completed per run.",
		}, []string{"run_id"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evonet_evaluations_total",
			Help: "Individuals evaluated per run.",
		}, []string{"run_id"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evonet_best_fitness",
			Help: "Best fitness of the latest evaluated generation.",
		}, []string{"run_id"}),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evonet_mean_fitness",
			Help: "Mean fitness of the latest evaluated generation.",
		}, []string{"run_id"}),
		evaluationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evonet_evaluation_seconds",
			Help:    "Wall time spent evaluating one individual.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.generations, m.evaluations, m.bestFitness, m.meanFitness, m.evaluationSeconds} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register collector")
		}
	}
	return m, nil
}

func (m *Metrics) ObserveGeneration(runID string, stats genetic.Statistics) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(runID).Inc()
	m.evaluations.WithLabelValues(runID).Add(float64(stats.Size))
	m.bestFitness.WithLabelValues(runID).Set(stats.Max)
	m.meanFitness.WithLabelValues(runID).Set(stats.Mean)
}

func (m *Metrics) ObserveEvaluation(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluationSeconds.Observe(elapsed.Seconds())
}
