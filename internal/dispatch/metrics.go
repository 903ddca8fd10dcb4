package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the dispatcher.
type Metrics struct {
	Published       *prometheus.CounterVec
	Dropped         *prometheus.CounterVec
	HandlerFailures *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
}

// NewMetrics registers dispatcher metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_dispatch_published_total",
			Help: "Total number of events accepted onto the dispatch queue",
		}, []string{"signal"}),
		Dropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_dispatch_dropped_total",
			Help: "Total number of events dropped because the queue was full",
		}, []string{"signal"}),
		HandlerFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_dispatch_handler_failures_total",
			Help: "Total number of handler invocations that returned an error or panicked",
		}, []string{"signal"}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hrcore_dispatch_queue_depth",
			Help: "Current number of events waiting on the dispatch queue",
		}),
	}
}
