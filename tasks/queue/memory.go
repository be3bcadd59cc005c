package queue

import (
	"context"
	"sync"

	"converteasy/tasks"
)

// DefaultSize is used when a non-positive capacity is requested.
const DefaultSize = 100

// MemoryQueue is a bounded FIFO backed by a buffered channel.
type MemoryQueue struct {
	tasks     chan *tasks.ConversionTask
	done      chan struct{}
	closeOnce sync.Once
}

var _ TaskQueue = (*MemoryQueue)(nil)

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = DefaultSize
	}
	return &MemoryQueue{
		tasks: make(chan *tasks.ConversionTask, size),
		done:  make(chan struct{}),
	}
}

// Enqueue stores a copy of the task. A full queue is reported right away
// instead of blocking the submitter.
func (q *MemoryQueue) Enqueue(ctx context.Context, task *tasks.ConversionTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.tasks <- task.Clone():
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*tasks.ConversionTask, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) GetQueueDepth(_ context.Context) (int64, error) {
	return int64(len(q.tasks)), nil
}

// Close wakes every blocked Dequeue. Tasks still buffered may never be
// handed out.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}
