//go:build !integration

package queue_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/infra/queue"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func TestTaskQueue(t *testing.T) {
	t.Run("should run tasks in submission order", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.New(16, newTestLogger())
		q.Start(ctx)
		defer q.Stop()

		var mu sync.Mutex
		var order []int
		var wg sync.WaitGroup
		wg.Add(5)

		for i := 0; i < 5; i++ {
			i := i
			err := q.Enqueue(func(ctx context.Context) error {
				defer wg.Done()
				// uneven work must not reorder completion
				time.Sleep(time.Duration(5-i) * time.Millisecond)
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("Enqueue(%d) failed: %v", i, err)
			}
		}

		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}

		mu.Lock()
		defer mu.Unlock()
		for i, got := range order {
			if got != i {
				t.Fatalf("tasks ran out of order: %v", order)
			}
		}
	})

	t.Run("should survive failing and panicking tasks", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.New(16, newTestLogger())
		q.Start(ctx)
		defer q.Stop()

		_ = q.Enqueue(func(ctx context.Context) error { return errors.New("task error") })
		_ = q.Enqueue(func(ctx context.Context) error { panic("task panic") })

		ran := make(chan struct{})
		if err := q.Enqueue(func(ctx context.Context) error { close(ran); return nil }); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}

		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatal("queue stalled after a failing or panicking task")
		}
	})

	t.Run("should reject tasks when the buffer is full", func(t *testing.T) {
		// never started: tasks stay queued
		q := queue.New(2, newTestLogger())

		noop := func(ctx context.Context) error { return nil }
		if err := q.Enqueue(noop); err != nil {
			t.Fatalf("first enqueue failed: %v", err)
		}
		if err := q.Enqueue(noop); err != nil {
			t.Fatalf("second enqueue failed: %v", err)
		}
		if err := q.Enqueue(noop); !errors.Is(err, domain.ErrQueueFull) {
			t.Errorf("got %v, want ErrQueueFull", err)
		}
		if q.Depth() != 2 {
			t.Errorf("depth = %d, want 2", q.Depth())
		}
	})

	t.Run("should reject tasks after stop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.New(2, newTestLogger())
		q.Start(ctx)
		q.Stop()

		err := q.Enqueue(func(ctx context.Context) error { return nil })
		if !errors.Is(err, domain.ErrQueueStopped) {
			t.Errorf("got %v, want ErrQueueStopped", err)
		}
	})

	t.Run("should reject nil tasks", func(t *testing.T) {
		q := queue.New(2, newTestLogger())
		if err := q.Enqueue(nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})
}
