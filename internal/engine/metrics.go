package engine

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "covercut"

// Metrics records optimizer progress. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Generations        prometheus.Counter
	Evaluations        prometheus.Counter
	BestFitness        prometheus.Gauge
	BestSheets         prometheus.Gauge
	GenerationDuration prometheus.Histogram
}

// NewMetrics creates the optimizer metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Generations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generations_total",
			Help:      "Number of completed generations.",
		}),
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evaluations_total",
			Help:      "Number of candidate layouts packed and scored.",
		}),
		BestFitness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "best_fitness",
			Help:      "Fitness of the best layout found so far (lower is better, +Inf when no layout is feasible).",
		}),
		BestSheets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "best_sheets",
			Help:      "Sheets used by the best layout found so far.",
		}),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent evaluating and reproducing one generation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
}

func (m *Metrics) observeEvaluations(n int) {
	if m == nil {
		return
	}
	m.Evaluations.Add(float64(n))
}

func (m *Metrics) observeGeneration(stat GenerationStat, best Candidate) {
	if m == nil {
		return
	}
	m.Generations.Inc()
	m.GenerationDuration.Observe(stat.Duration.Seconds())
	if best.Fitness.Feasible {
		m.BestFitness.Set(best.Fitness.Score)
	} else {
		m.BestFitness.Set(math.Inf(1))
	}
	m.BestSheets.Set(float64(best.Layout.SheetCount()))
}
