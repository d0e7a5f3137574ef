package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for the prediction pipeline
type Metrics struct {
	PredictionCount   *prometheus.CounterVec
	ModelFailureCount *prometheus.CounterVec
	HaltCount         *prometheus.CounterVec
	FallbackCount     *prometheus.CounterVec
	ConflictCount     prometheus.Counter
	PipelineDuration  *prometheus.HistogramVec
}

// PredictionCount counts completed prediction requests by outcome and tier
func PredictionCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linecast_predictions_total",
			Help: "Total number of prediction requests by outcome",
		},
		[]string{"outcome", "recommendation"},
	)
}

// ModelFailureCount counts individual model failures by model and error kind
func ModelFailureCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linecast_model_failures_total",
			Help: "Total number of individual model execution failures",
		},
		[]string{"model", "kind"},
	)
}

// HaltCount counts pipeline halts by cause
func HaltCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linecast_pipeline_halts_total",
			Help: "Total number of pipeline halts",
		},
		[]string{"cause"},
	)
}

// FallbackCount counts collaborator fetch failures absorbed with default data
func FallbackCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linecast_fetch_fallbacks_total",
			Help: "Total number of fetch failures covered by fallback data",
		},
		[]string{"source"},
	)
}

// ConflictCount counts duplicate in-flight requests rejected
func ConflictCount() prometheus.Counter {
	return prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linecast_request_conflicts_total",
			Help: "Total number of duplicate in-flight requests rejected",
		},
	)
}

// PipelineDuration observes end-to-end prediction latency
func PipelineDuration() *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linecast_pipeline_duration_seconds",
			Help:    "End-to-end prediction pipeline duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
}

// New builds the metric set and registers it with the given registerer
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PredictionCount:   PredictionCount(),
		ModelFailureCount: ModelFailureCount(),
		HaltCount:         HaltCount(),
		FallbackCount:     FallbackCount(),
		ConflictCount:     ConflictCount(),
		PipelineDuration:  PipelineDuration(),
	}
	if reg != nil {
		reg.MustRegister(
			m.PredictionCount,
			m.ModelFailureCount,
			m.HaltCount,
			m.FallbackCount,
			m.ConflictCount,
			m.PipelineDuration,
		)
	}
	return m
}
