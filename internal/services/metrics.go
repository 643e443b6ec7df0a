package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Journal lifecycle metrics
	JournalCompletions prometheus.Counter
	XPGranted          *prometheus.CounterVec

	// LLM gateway metrics
	LLMCalls       *prometheus.CounterVec
	LLMCallLatency prometheus.Histogram
	LLMErrors      *prometheus.CounterVec
}

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	return &Metrics{
		JournalCompletions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "questlog_journal_completions_total",
			Help: "Total number of journals transitioned to complete",
		}),

		XPGranted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "questlog_xp_granted_total",
			Help: "Total XP granted by entity type",
		}, []string{"entity_type"}),

		LLMCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "questlog_llm_calls_total",
			Help: "Total number of model calls by purpose",
		}, []string{"purpose"}),

		LLMCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "questlog_llm_call_duration_seconds",
			Help:    "Model call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120}, // slow local models included
		}),

		LLMErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "questlog_llm_errors_total",
			Help: "Total number of model call errors by type",
		}, []string{"error_type"}),
	}
}
