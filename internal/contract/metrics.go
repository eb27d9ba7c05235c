package contract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics builds the bridge collectors and registers them on reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_calls_total",
			Help: "Contract calls by method and outcome.",
		}, []string{"method", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bridge_call_seconds",
			Help:    "Contract call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.latency)
	}
	return m
}

func (m *Metrics) observe(method string, kind Kind, start time.Time) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(method, kind.String()).Inc()
	m.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
