package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/domain/ports/repository"
	"telegram-classifieds-notify/internal/infra/metrics"
	"telegram-classifieds-notify/internal/infra/queue"
)

// StatsWorker periodically publishes ledger size and queue depth gauges so
// operators can watch dispatch health without touching the database.
type StatsWorker struct {
	interval time.Duration
	ledger   repository.OutboundMessageRepository
	tasks    *queue.TaskQueue
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, ledger repository.OutboundMessageRepository, tasks *queue.TaskQueue, logger *zerolog.Logger) *StatsWorker {
	compLog := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		ledger:   ledger,
		tasks:    tasks,
		log:      &compLog,
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	// Run once on startup, then on every tick
	w.collect(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.collect(ctx)
		}
	}
}

func (w *StatsWorker) collect(ctx context.Context) {
	depth := w.tasks.Depth()
	metrics.SetQueueDepth(depth)

	n, err := w.ledger.CountRows(ctx, repository.NoTX)
	if err != nil {
		w.log.Error().Err(err).Msg("ledger count failed")
		return
	}
	metrics.SetLedgerRows(n)
	w.log.Debug().Int("ledger_rows", n).Int("queue_depth", depth).Msg("stats collected")
}
