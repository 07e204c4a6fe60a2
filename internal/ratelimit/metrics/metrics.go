package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are observability hooks only; nothing in the limiter reads them back.
type Metrics struct {
	ChecksTotal    *prometheus.CounterVec
	RejectedTotal  *prometheus.CounterVec
	FallbacksTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldbook_ratelimit_checks_total",
			Help: "Total number of rate limit checks by scope",
		}, []string{"scope"}),
		RejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldbook_ratelimit_rejected_total",
			Help: "Total number of requests rejected by the rate limiter by scope",
		}, []string{"scope"}),
		FallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldbook_ratelimit_store_fallbacks_total",
			Help: "Total number of checks served by the in-process fallback store",
		}),
	}
}

func (m *Metrics) RecordCheck(scope string)  { m.ChecksTotal.WithLabelValues(scope).Inc() }
func (m *Metrics) RecordReject(scope string) { m.RejectedTotal.WithLabelValues(scope).Inc() }
func (m *Metrics) RecordFallback()           { m.FallbacksTotal.Inc() }
