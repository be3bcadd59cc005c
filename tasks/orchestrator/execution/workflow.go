package execution

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"

	"converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/backends"
	"converteasy/tasks/fallback"
)

// ExecutionWorkflow runs one queued task to a terminal state.
type ExecutionWorkflow interface {
	Execute(ctx context.Context, task *tasks.ConversionTask) error
}

// ChainSource resolves the backend chain of a direction.
type ChainSource interface {
	Chain(direction tasks.Direction) ([]backends.ConversionBackend, bool)
}

// Converter runs a backend chain; *fallback.Converter is the production one.
type Converter interface {
	Run(ctx context.Context, src, dst string, chain []backends.ConversionBackend) (fallback.Result, error)
}

// DefaultExecutionWorkflow claims the task, runs its direction's chain and
// records the outcome.
type DefaultExecutionWorkflow struct {
	chains        ChainSource
	converter     Converter
	stateManager  StateManager
	resultHandler ResultHandler
	logger        *logger.Logger
}

func NewDefaultExecutionWorkflow(
	chains ChainSource,
	converter Converter,
	stateManager StateManager,
	resultHandler ResultHandler,
	logger *logger.Logger,
) *DefaultExecutionWorkflow {
	return &DefaultExecutionWorkflow{
		chains:        chains,
		converter:     converter,
		stateManager:  stateManager,
		resultHandler: resultHandler,
		logger:        logger,
	}
}

// Execute converts the task. Once the task is PROCESSING every exit path,
// panics included, ends in FINISHED or ERROR. A task deleted before it was
// claimed is skipped without error.
func (w *DefaultExecutionWorkflow) Execute(ctx context.Context, task *tasks.ConversionTask) (err error) {
	execCtx := NewExecutionContext(task)

	if err := w.stateManager.TransitionToProcessing(ctx, execCtx); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			w.logger.Task(task.ID, "task removed before conversion started, skipping")
			return nil
		}
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversion panicked: %v", r)
			w.fail(ctx, execCtx, err)
		}
	}()

	if err := w.convert(ctx, execCtx); err != nil {
		w.fail(ctx, execCtx, err)
		return err
	}

	w.resultHandler.HandleSuccess(execCtx)
	if err := w.stateManager.TransitionToFinished(ctx, execCtx); err != nil {
		w.logger.Error("failed to transition task to finished state after successful conversion", map[string]any{
			"task_id": task.ID,
			"error":   err.Error(),
		})
	}

	w.logOutcome(execCtx)
	return nil
}

func (w *DefaultExecutionWorkflow) convert(ctx context.Context, execCtx *ExecutionContext) error {
	task := execCtx.Task

	chain, ok := w.chains.Chain(task.Direction)
	if !ok {
		return errors.NewExecutionError(
			fmt.Sprintf("no backends registered for direction %s", task.Direction),
			map[string]any{"direction": task.Direction.String()},
		)
	}

	result, err := w.converter.Run(ctx, task.InputRef, task.OutputRef, chain)
	execCtx.Result = result
	return err
}

func (w *DefaultExecutionWorkflow) fail(ctx context.Context, execCtx *ExecutionContext, err error) {
	execCtx.SetError(err)
	w.resultHandler.HandleFailure(execCtx)

	if transitionErr := w.stateManager.TransitionToError(ctx, execCtx); transitionErr != nil {
		w.logger.Error("failed to transition task to error state", map[string]any{
			"task_id":          execCtx.Task.ID,
			"transition_error": transitionErr.Error(),
			"original_error":   err.Error(),
		})
	}

	w.logOutcome(execCtx)
}

// logOutcome writes the one line summarizing a run, carrying whatever the
// run recorded in its metadata.
func (w *DefaultExecutionWorkflow) logOutcome(execCtx *ExecutionContext) {
	fields := map[string]any{
		"state":       execCtx.Task.State.String(),
		"direction":   execCtx.Task.Direction.String(),
		"attempts":    len(execCtx.Result.Attempts),
		"duration_ms": execCtx.Duration().Milliseconds(),
	}
	maps.Copy(fields, execCtx.Metadata)

	if execCtx.IsSuccess() {
		w.logger.Task(execCtx.Task.ID, "task completed", fields)
		return
	}
	fields["error"] = execCtx.Error.Error()
	w.logger.Task(execCtx.Task.ID, "conversion failed", fields)
}
