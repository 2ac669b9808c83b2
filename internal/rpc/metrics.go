package rpc

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics holds the server's Prometheus collectors.
type ServerMetrics struct {
	Requests *prometheus.CounterVec // method, code
}

// NewServerMetrics registers the server collectors with registry, or
// with the default registerer when registry is nil.
func NewServerMetrics(registry prometheus.Registerer) *ServerMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &ServerMetrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rooch_rpc_server_requests_total",
				Help: "JSON-RPC requests served by method and error code (0 = success)",
			},
			[]string{"method", "code"},
		),
	}
}

// SetMetrics enables request metrics.
func (s *Server) SetMetrics(m *ServerMetrics) { s.metrics = m }

func (s *Server) observe(method string, rpcErr *Error) {
	if s.metrics == nil {
		return
	}
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		if code == CodeMethodNotFound {
			// Keep label cardinality bounded.
			method = "unknown"
		}
	}
	s.metrics.Requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
