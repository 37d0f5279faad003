package gateways

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors on reg. A nil registerer
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slime",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Backend operations by outcome.",
		}, []string{"op", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slime",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Backend operation latency including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slime",
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Retried backend requests.",
		}, []string{"op"}),
	}
}
