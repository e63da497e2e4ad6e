// Package metrics exposes local, operational Prometheus metrics for
// the agent. These are a side channel alongside the Queue's and
// Heartbeat's shared-store reporting, which remains the authoritative
// cross-process channel.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainsAdmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudharvestagent_chains_admitted_total",
			Help: "Total number of task chains admitted by the queue",
		},
	)

	ChainsReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudharvestagent_chains_reaped_total",
			Help: "Total number of task chains reaped by the queue",
		},
	)

	ReportFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudharvestagent_report_failures_total",
			Help: "Total number of failed progress-report writes to the shared store",
		},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cloudharvestagent_queue_depth",
			Help: "Number of live chains tracked by the queue",
		},
		[]string{"node"},
	)

	HeartbeatCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudharvestagent_heartbeat_cycles_total",
			Help: "Total number of heartbeat publish cycles completed",
		},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudharvestagent_api_request_duration_seconds",
			Help:    "Coordinator API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status_code"},
	)
)

func init() {
	prometheus.MustRegister(
		ChainsAdmittedTotal,
		ChainsReapedTotal,
		ReportFailuresTotal,
		QueueDepth,
		HeartbeatCyclesTotal,
		APIRequestDuration,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDurationVec records elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
