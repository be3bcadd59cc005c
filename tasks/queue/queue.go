package queue

import (
	"context"
	"errors"

	"converteasy/tasks"
)

var (
	// ErrQueueFull is returned by Enqueue when the queue has no free slot.
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed is returned once Close has been called.
	ErrQueueClosed = errors.New("queue is closed")
)

// TaskQueue interface for background task processing
type TaskQueue interface {
	// Enqueue adds a task to the queue without blocking
	Enqueue(ctx context.Context, task *tasks.ConversionTask) error

	// Dequeue blocks until a task is available, the queue is closed or ctx is done
	Dequeue(ctx context.Context) (*tasks.ConversionTask, error)

	// GetQueueDepth returns the number of tasks waiting in queue
	GetQueueDepth(ctx context.Context) (int64, error)

	// Close stops handing out tasks
	Close() error
}
