package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(queueDepth, queueTasksTotal, ledgerRows)
}

var (
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Number of tasks currently waiting in the dispatch queue.",
		},
	)

	queueTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_queue_tasks_total",
			Help: "Tasks drained from the dispatch queue, labeled by outcome.",
		},
		[]string{"outcome"}, // 'completed', 'failed', 'panicked'
	)

	ledgerRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbound_ledger_rows",
			Help: "Current number of rows in the outbound message ledger.",
		},
	)
)

func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

func IncQueueTask(outcome string) {
	queueTasksTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetLedgerRows(n int) {
	ledgerRows.Set(float64(n))
}
