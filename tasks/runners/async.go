package runners

import (
	"context"

	"converteasy/errors"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator/execution"
	"converteasy/tasks/queue"
)

// AsynchronousRunner validates tasks and enqueues them for the worker pool.
type AsynchronousRunner struct {
	queue  queue.TaskQueue
	chains execution.ChainSource
}

var _ Runner = (*AsynchronousRunner)(nil)

func NewAsynchronousRunner(queue queue.TaskQueue, chains execution.ChainSource) *AsynchronousRunner {
	return &AsynchronousRunner{queue: queue, chains: chains}
}

func (r *AsynchronousRunner) Run(ctx context.Context, task *tasks.ConversionTask) error {
	if err := checkChain(r.chains, task); err != nil {
		return err
	}

	if err := r.queue.Enqueue(ctx, task); err != nil {
		if _, ok := errors.IsTaskError(err); ok {
			return err
		}
		return errors.NewExecutionError("failed to enqueue task", map[string]any{
			"task_id":   task.ID,
			"direction": task.Direction.String(),
			"error":     err.Error(),
		}).Wrap(err)
	}

	return nil
}
