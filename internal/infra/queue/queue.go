// Package queue provides the in-process FIFO that decouples "an event
// happened" from "notification work executes". A single drain goroutine
// runs one task to full completion (network calls and delays included)
// before starting the next, which preserves submission order end to end.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/infra/metrics"
)

// Task is a deferred unit of work. Failures are logged at the queue
// boundary and never propagated to the enqueuing request.
type Task func(ctx context.Context) error

// TaskQueue is owned by the composition root; no module-level state.
type TaskQueue struct {
	tasks chan Task
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
	log   *zerolog.Logger
}

func New(size int, logger *zerolog.Logger) *TaskQueue {
	if size <= 0 {
		size = 256
	}
	compLog := logger.With().Str("component", "TaskQueue").Logger()
	return &TaskQueue{
		tasks: make(chan Task, size),
		quit:  make(chan struct{}),
		log:   &compLog,
	}
}

// Start launches the drain loop. Exactly one goroutine consumes tasks, so
// tasks from different entities interleave only in submission order.
func (q *TaskQueue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.quit:
				return
			case task := <-q.tasks:
				if task == nil {
					continue
				}
				q.run(ctx, task)
				metrics.SetQueueDepth(len(q.tasks))
			}
		}
	}()
}

// run executes one task, isolating errors and panics so a bad task never
// stalls the queue.
func (q *TaskQueue) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncQueueTask("panicked")
			q.log.Error().Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		metrics.IncQueueTask("failed")
		q.log.Error().Err(err).Msg("task failed")
		return
	}
	metrics.IncQueueTask("completed")
}

// Enqueue submits a task. It never blocks: when the buffer is full the task
// is rejected and the caller decides whether to drop or retry.
func (q *TaskQueue) Enqueue(task Task) error {
	if task == nil {
		return fmt.Errorf("enqueue: %w", domain.ErrInvalidArgument)
	}
	select {
	case <-q.quit:
		return domain.ErrQueueStopped
	default:
	}
	select {
	case q.tasks <- task:
		metrics.SetQueueDepth(len(q.tasks))
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Stop shuts the drain loop down after the in-flight task finishes.
// Queued-but-unstarted tasks are dropped.
func (q *TaskQueue) Stop() {
	q.once.Do(func() { close(q.quit) })
	q.wg.Wait()
}

// Depth reports how many tasks are waiting.
func (q *TaskQueue) Depth() int {
	return len(q.tasks)
}
