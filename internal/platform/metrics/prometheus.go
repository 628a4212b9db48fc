package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds custom Prometheus metrics for the admin service.
type MetricsManager struct {
	Registry             *prometheus.Registry
	PassesVerifiedTotal  prometheus.Counter
	PassesRejectedTotal  prometheus.Counter
	GateCompletionsTotal prometheus.Counter
	CollegeMergesTotal   prometheus.Counter
	OnspotRegistrations  prometheus.Counter
	APIErrorsTotal       *prometheus.CounterVec
	APILatency           *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers custom Prometheus metrics on
// a dedicated registry.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	passesVerifiedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "passes_verified_total",
		Help:      "Total number of passes marked verified.",
	})
	passesRejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "passes_rejected_total",
		Help:      "Total number of passes rejected.",
	})
	gateCompletionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "gate_completions_total",
		Help:      "Total number of successful gate completions.",
	})
	collegeMergesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "college_merges_total",
		Help:      "Total number of bulk college merge operations.",
	})
	onspotRegistrations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "onspot_registrations_total",
		Help:      "Total number of on-spot registrations.",
	})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by route and status.",
	}, []string{"route", "status"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	registry.MustRegister(
		passesVerifiedTotal,
		passesRejectedTotal,
		gateCompletionsTotal,
		collegeMergesTotal,
		onspotRegistrations,
		apiErrorsTotal,
		apiLatency,
	)

	return &MetricsManager{
		Registry:             registry,
		PassesVerifiedTotal:  passesVerifiedTotal,
		PassesRejectedTotal:  passesRejectedTotal,
		GateCompletionsTotal: gateCompletionsTotal,
		CollegeMergesTotal:   collegeMergesTotal,
		OnspotRegistrations:  onspotRegistrations,
		APIErrorsTotal:       apiErrorsTotal,
		APILatency:           apiLatency,
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
