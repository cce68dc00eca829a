// Package dispatcher manages worker fan-out over the connection queue.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/metrics"
	"github.com/JakeFAU/articles-service/internal/queue/memory"
)

// Queue is the queue surface the dispatcher drains.
type Queue[T any] interface {
	Enqueue(ctx context.Context, item T) error
	Dequeue(ctx context.Context) (T, error)
}

// HandleFunc processes one dequeued item.
type HandleFunc[T any] func(ctx context.Context, item T)

// Dispatcher fans out queue work to a fixed pool of workers.
type Dispatcher[T any] struct {
	queue   Queue[T]
	workers int
	handle  HandleFunc[T]
	logger  *zap.Logger
}

// New creates a Dispatcher. A worker count below one is raised to one.
func New[T any](queue Queue[T], workers int, handle HandleFunc[T], logger *zap.Logger) *Dispatcher[T] {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher[T]{
		queue:   queue,
		workers: workers,
		handle:  handle,
		logger:  logger,
	}
}

// Run starts all workers and blocks until every worker has stopped. Workers stop
// when ctx ends or the queue reports it is closed and drained.
func (d *Dispatcher[T]) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.work(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (d *Dispatcher[T]) work(ctx context.Context, id int) {
	for {
		item, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, memory.ErrClosed) {
				d.logger.Debug("worker stopping", zap.Int("worker", id))
				return
			}
			d.logger.Error("queue dequeue failed", zap.Int("worker", id), zap.Error(err))
			continue
		}
		metrics.IncActiveWorkers()
		d.handle(ctx, item)
		metrics.DecActiveWorkers()
	}
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher[T]) Enqueue(ctx context.Context, item T) error {
	if err := d.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}
