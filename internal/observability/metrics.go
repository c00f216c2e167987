package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transport and outcome label values used by the chat instruments.
const (
	TransportSync = "sync"
	TransportSSE  = "sse"
	TransportWS   = "ws"

	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeUpstream    = "upstream_error"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ChatRequests    *prometheus.CounterVec
	UpstreamLatency prometheus.Histogram
	ActiveStreams   prometheus.Gauge
	ActiveSessions  prometheus.Gauge
}

// NewMetrics registers the instruments on reg. Tests pass a fresh registry
// so repeated construction does not collide.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by transport and outcome.",
		}, []string{"transport", "outcome"}),
		UpstreamLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_latency_seconds",
			Help:      "Latency of upstream completion calls in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of in-flight streaming responses.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live in-memory sessions.",
		}),
	}
}

// ObserveUpstreamLatency records one completed upstream call.
func (m *Metrics) ObserveUpstreamLatency(d time.Duration) {
	m.UpstreamLatency.Observe(d.Seconds())
}

// MetricsHandler serves the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
