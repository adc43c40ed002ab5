package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "verify_api_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "verify_api_active_connections",
			Help: "Number of active connections",
		},
	)

	// VerificationSubmissions tracks verification submissions by type
	VerificationSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_api_verification_submissions_total",
			Help: "Number of verification requests submitted",
		},
		[]string{"type"},
	)

	// VerificationOutcomes tracks terminal request statuses
	VerificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_api_verification_outcomes_total",
			Help: "Number of verification requests reaching a terminal status",
		},
		[]string{"type", "status"},
	)

	// StepTransitions tracks step status transitions
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_api_step_transitions_total",
			Help: "Number of verification step status transitions",
		},
		[]string{"step", "status"},
	)

	// ProviderCalls tracks external verifier calls
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_api_provider_calls_total",
			Help: "Number of external verifier calls",
		},
		[]string{"provider", "status"},
	)

	// ProviderLatency tracks external verifier latency
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "verify_api_provider_latency_seconds",
			Help: "Latency of external verifier calls in seconds",
		},
		[]string{"provider"},
	)

	// QueueDepth tracks the verification queue depth
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "verify_api_queue_depth",
			Help: "Number of verification jobs waiting in the queue",
		},
	)

	// CacheHits tracks cache hits/misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_api_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"operation"},
	)

	// CreditDeductions tracks credit ledger deductions
	CreditDeductions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_api_credit_deductions_total",
			Help: "Number of credit deductions",
		},
		[]string{"status"},
	)
)
