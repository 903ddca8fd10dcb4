package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit writer.
type Metrics struct {
	RecordsWritten  prometheus.Counter
	WritesSkipped   prometheus.Counter
	PersistFailures prometheus.Counter
}

// NewMetrics registers audit writer metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		RecordsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrcore_audit_records_written_total",
			Help: "Total number of audit records appended",
		}),
		WritesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrcore_audit_writes_skipped_total",
			Help: "Total number of signals that produced no change entries and were not persisted",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrcore_audit_persist_failures_total",
			Help: "Total number of audit record inserts that failed",
		}),
	}
}
