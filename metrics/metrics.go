package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for phishing evaluations.
type Metrics struct {
	// Check latencies by check name
	CheckLatency *prometheus.HistogramVec

	// Check outcomes by check name and status
	CheckOutcome *prometheus.CounterVec

	// Verdicts by classification
	Verdicts *prometheus.CounterVec

	// Overall evaluation latency
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance registered on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CheckLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phishcheck_check_duration_seconds",
			Help:    "Duration of individual checks by check name",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"check"}), // check: "spf", "dmarc", "url", "tls", "classifier"

		CheckOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phishcheck_check_outcomes_total",
			Help: "Total check outcomes by check name and status",
		}, []string{"check", "status"}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phishcheck_verdicts_total",
			Help: "Total verdicts by classification",
		}, []string{"classification"}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "phishcheck_evaluate_duration_seconds",
			Help:    "Duration of full evaluation including all checks",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveCheck records the duration and status of one check.
func (m *Metrics) ObserveCheck(check, status string, d time.Duration) {
	if m != nil {
		m.CheckLatency.WithLabelValues(check).Observe(d.Seconds())
		m.CheckOutcome.WithLabelValues(check, status).Inc()
	}
}

// IncrementVerdict records a verdict.
func (m *Metrics) IncrementVerdict(classification string) {
	if m != nil {
		m.Verdicts.WithLabelValues(classification).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
