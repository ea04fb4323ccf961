package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	PolicyTransitions   *prometheus.CounterVec
	ClaimTransitions    *prometheus.CounterVec
	AllocationsCreated  prometheus.Counter
	AllocationsNoCede   prometheus.Counter
	ValidationVerdicts  *prometheus.CounterVec
	ExposureComputed    prometheus.Counter
	RequestLatencySecs  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PolicyTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cedent_policy_transitions_total",
			Help: "Policy lifecycle transitions by target status",
		}, []string{"target"}),
		ClaimTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cedent_claim_transitions_total",
			Help: "Claim lifecycle transitions by target status",
		}, []string{"target"}),
		AllocationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cedent_allocations_created_total",
			Help: "Risk allocations persisted by the reinsurance engine",
		}),
		AllocationsNoCede: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cedent_allocations_no_cession_total",
			Help: "Allocation runs that ended with no risk ceded",
		}),
		ValidationVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cedent_validation_verdicts_total",
			Help: "Allocation validator verdicts",
		}, []string{"verdict"}),
		ExposureComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cedent_exposure_computed_total",
			Help: "Exposure summaries computed",
		}),
		RequestLatencySecs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cedent_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),
	}
}
