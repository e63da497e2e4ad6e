package metrics

// QueueAdapter implements queue.Metrics over this package's
// package-level collectors, so internal/queue has no direct
// prometheus dependency of its own.
type QueueAdapter struct {
	node string
}

// NewQueueAdapter builds a QueueAdapter labeling QueueDepth by node.
func NewQueueAdapter(node string) *QueueAdapter {
	return &QueueAdapter{node: node}
}

func (a *QueueAdapter) OnAdmitted() {
	ChainsAdmittedTotal.Inc()
	QueueDepth.WithLabelValues(a.node).Inc()
}

func (a *QueueAdapter) OnReaped() {
	ChainsReapedTotal.Inc()
	QueueDepth.WithLabelValues(a.node).Dec()
}

func (a *QueueAdapter) OnReportFailure() {
	ReportFailuresTotal.Inc()
}
