package portalapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks upstream request outcomes and the breaker state.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	BreakerOpen     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_portal_requests_total",
			Help: "Requests to the portal service, by resource and outcome",
		}, []string{"resource", "outcome"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agora_portal_request_duration_seconds",
			Help:    "Latency of requests to the portal service",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "agora_portal_circuit_open",
			Help: "1 while the portal circuit breaker is open",
		}),
	}
}

func (m *Metrics) observe(resource string, outcome ErrorCategory, start time.Time) {
	if m == nil {
		return
	}
	label := string(outcome)
	if outcome == "" {
		label = "ok"
	}
	m.Requests.WithLabelValues(resource, label).Inc()
	m.RequestDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
}

func (m *Metrics) breaker(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
