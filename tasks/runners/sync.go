package runners

import (
	"context"

	"converteasy/errors"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator/execution"
)

var _ Runner = (*SynchronousRunner)(nil)

// SynchronousRunner converts the task in the caller's goroutine and returns
// once it reached a terminal state. The CLI uses it.
type SynchronousRunner struct {
	chains   execution.ChainSource
	workflow execution.ExecutionWorkflow
}

func NewSynchronousRunner(chains execution.ChainSource, workflow execution.ExecutionWorkflow) *SynchronousRunner {
	return &SynchronousRunner{chains: chains, workflow: workflow}
}

func (r *SynchronousRunner) Run(ctx context.Context, task *tasks.ConversionTask) error {
	if err := checkChain(r.chains, task); err != nil {
		return err
	}

	if err := r.workflow.Execute(ctx, task); err != nil {
		// Preserve structured errors, wrap others as execution errors
		if _, ok := errors.IsTaskError(err); ok {
			return err
		}
		return errors.NewExecutionError("conversion failed", map[string]any{
			"task_id":   task.ID,
			"direction": task.Direction.String(),
			"error":     err.Error(),
		}).Wrap(err)
	}

	return nil
}
