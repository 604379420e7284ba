package jsonrpc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK          = "ok"
	outcomeRPCError    = "rpc_error"
	outcomeCorrelation = "correlation_error"
	outcomeTransport   = "transport_error"
	outcomeTimeout     = "timeout"
	outcomeOther       = "error"
)

// Metrics records outcall counts, latencies and response sizes. A nil
// *Metrics records nothing.
type Metrics struct {
	Outcalls      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	ResponseBytes *prometheus.HistogramVec
}

// NewMetrics registers the transport metrics with registry, or with the
// default registerer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Outcalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghost_rpc_outcalls_total",
			Help: "The total number of JSON-RPC outcalls by method and outcome",
		}, []string{"method", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ghost_rpc_outcall_duration_seconds",
			Help:    "JSON-RPC outcall latency by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		ResponseBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ghost_rpc_response_bytes",
			Help:    "JSON-RPC response body size by method",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"method"}),
	}
}

func (m *Metrics) observe(method, outcome string, took time.Duration, size int) {
	if m == nil {
		return
	}
	m.Outcalls.WithLabelValues(method, outcome).Inc()
	m.Duration.WithLabelValues(method).Observe(took.Seconds())
	if size > 0 {
		m.ResponseBytes.WithLabelValues(method).Observe(float64(size))
	}
}

func outcomeOf(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrRPC):
		return outcomeRPCError
	case errors.Is(err, ErrCorrelation):
		return outcomeCorrelation
	case errors.As(err, &te) && te.Timeout:
		return outcomeTimeout
	case errors.Is(err, ErrTransport):
		return outcomeTransport
	}
	return outcomeOther
}
