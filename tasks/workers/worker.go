package workers

import (
	"context"
	"errors"
	"sync"

	"converteasy/logger"
	"converteasy/tasks/orchestrator/execution"
	"converteasy/tasks/queue"
)

// Worker pulls tasks off the queue and converts them one at a time.
type Worker struct {
	id       int
	queue    queue.TaskQueue
	workflow execution.ExecutionWorkflow
	logger   *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewWorker(id int, queue queue.TaskQueue, workflow execution.ExecutionWorkflow, logger *logger.Logger) *Worker {
	return &Worker{
		id:       id,
		queue:    queue,
		workflow: workflow,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the processing loop until ctx is done, Stop is called or the
// queue is closed.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("worker starting", map[string]any{
		"worker_id": w.id,
	})

	defer w.logger.Info("worker stopped", map[string]any{
		"worker_id": w.id,
	})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping due to context cancellation", map[string]any{
				"worker_id": w.id,
			})
			return

		case <-w.stopCh:
			w.logger.Info("worker stopping", map[string]any{
				"worker_id": w.id,
			})
			return

		default:
			if !w.processNextTask(ctx) {
				return
			}
		}
	}
}

// Stop signals the worker to stop gracefully
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// processNextTask converts one task. It reports false once the queue is
// closed and no further task will arrive.
func (w *Worker) processNextTask(ctx context.Context) bool {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			// normal shutdown
		case errors.Is(err, queue.ErrQueueClosed):
			return false
		default:
			w.logger.Error("failed to dequeue task", map[string]any{
				"worker_id": w.id,
				"error":     err.Error(),
			})
		}
		return true
	}

	w.logger.Task(task.ID, "worker processing task", map[string]any{
		"worker_id": w.id,
		"direction": task.Direction.String(),
	})

	if err := w.workflow.Execute(ctx, task); err != nil {
		w.logger.Task(task.ID, "task ended with error", map[string]any{
			"worker_id": w.id,
			"error":     err.Error(),
		})
	}
	return true
}
