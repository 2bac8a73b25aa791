package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		telegramCallsTotal,
		telegramCallLatencyMs,
		telegramRetriesTotal,
		dispatchActionsTotal,
	)
}

var (
	telegramCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_calls_total",
			Help: "Outbound Telegram Bot API calls, labeled by method and outcome.",
		},
		[]string{"method", "outcome"}, // outcome: 'ok', 'error', 'rate_limited'
	)

	telegramCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegram_call_latency_ms",
			Help:    "Telegram Bot API call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"method"},
	)

	telegramRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_retries_total",
			Help: "Total number of 429 retries performed by the dispatch client.",
		},
	)

	dispatchActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_actions_total",
			Help: "Per-destination orchestrator outcomes, labeled by action and result.",
		},
		[]string{"action", "result"}, // action: create/edit_text/..., result: 'ok', 'failed'
	)
)

func ObserveTelegramCall(method, outcome string, elapsed time.Duration) {
	telegramCallsTotal.WithLabelValues(norm(method), norm(outcome)).Inc()
	telegramCallLatencyMs.WithLabelValues(norm(method)).Observe(float64(elapsed.Milliseconds()))
}

func IncTelegramRetry() {
	telegramRetriesTotal.Inc()
}

func IncDispatchAction(action string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	dispatchActionsTotal.WithLabelValues(norm(action), result).Inc()
}
