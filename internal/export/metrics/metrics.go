package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts export activity by domain and format.
type Metrics struct {
	ExportsTotal *prometheus.CounterVec
	RowsTotal    *prometheus.CounterVec
	SkippedTotal *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldbook_exports_total",
			Help: "Completed export requests by domain and format.",
		}, []string{"domain", "format"}),
		RowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldbook_export_rows_total",
			Help: "Rows emitted across all exports by domain.",
		}, []string{"domain"}),
		SkippedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldbook_export_rows_skipped_total",
			Help: "Rows that failed normalization and were emitted blank.",
		}, []string{"domain"}),
	}
}
