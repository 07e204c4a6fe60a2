package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit sink health.
type Metrics struct {
	DroppedTotal  prometheus.Counter
	FailuresTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		DroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldbook_audit_dropped_total",
			Help: "Audit entries dropped because the inbox was full.",
		}),
		FailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldbook_audit_failures_total",
			Help: "Audit entries that failed to persist.",
		}),
	}
}
