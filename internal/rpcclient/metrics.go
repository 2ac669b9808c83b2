package rpcclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	outcomeOK             = "ok"
	outcomeRPCError       = "rpc_error"
	outcomeTransportError = "transport_error"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	Requests *prometheus.CounterVec   // method, outcome
	Duration *prometheus.HistogramVec // method
}

// NewMetrics registers the client collectors with registry, or with the
// default registerer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rooch_rpc_client_requests_total",
				Help: "JSON-RPC requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rooch_rpc_client_request_duration_seconds",
				Help:    "JSON-RPC request latency by method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}
