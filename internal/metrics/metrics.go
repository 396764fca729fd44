package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the Prometheus metrics for the scene validator.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration prometheus.Histogram

	AnalyzerRequestsTotal   *prometheus.CounterVec
	CallbackDeliveriesTotal *prometheus.CounterVec
}

// NewRegistry registers all metrics against reg. Passing a fresh
// prometheus.NewRegistry keeps test processes from colliding on the default
// registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scene_validator_http_requests_total",
				Help: "Total HTTP requests by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scene_validator_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scene_validator_validations_total",
				Help: "Completed validations by terminal status",
			},
			[]string{"status"},
		),
		ValidationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scene_validator_validation_duration_seconds",
				Help:    "End-to-end validation pipeline duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		AnalyzerRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scene_validator_analyzer_requests_total",
				Help: "Content analyzer calls by outcome",
			},
			[]string{"outcome"},
		),
		CallbackDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scene_validator_callback_deliveries_total",
				Help: "Outbound callback delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}
