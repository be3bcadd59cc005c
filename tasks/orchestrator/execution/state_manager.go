package execution

import (
	"context"
	stderrors "errors"

	"converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/store"
)

// StateManager moves a task along its lifecycle and persists each step.
type StateManager interface {
	TransitionToProcessing(ctx context.Context, execCtx *ExecutionContext) error
	TransitionToFinished(ctx context.Context, execCtx *ExecutionContext) error
	TransitionToError(ctx context.Context, execCtx *ExecutionContext) error
}

// DefaultStateManager writes transitions to the task store and notifies the
// listener after every committed update. A task that disappeared from the
// store while converting was evicted or deleted; its terminal update is
// dropped quietly.
type DefaultStateManager struct {
	store    store.TaskStore
	listener tasks.Listener
	logger   *logger.Logger
}

// NewDefaultStateManager creates a state manager. listener may be nil.
func NewDefaultStateManager(store store.TaskStore, listener tasks.Listener, logger *logger.Logger) *DefaultStateManager {
	if listener == nil {
		listener = tasks.Listeners{}
	}
	return &DefaultStateManager{
		store:    store,
		listener: listener,
		logger:   logger,
	}
}

// TransitionToProcessing claims the task for conversion. It returns
// errors.ErrNotFound when the task was removed while it waited in the queue.
func (sm *DefaultStateManager) TransitionToProcessing(_ context.Context, execCtx *ExecutionContext) error {
	if err := execCtx.Task.SetState(tasks.StateProcessing); err != nil {
		return err
	}

	if err := sm.store.Update(execCtx.Task); err != nil {
		return err
	}

	sm.listener.TaskChanged(execCtx.Task)
	return nil
}

// TransitionToFinished records a successful conversion.
func (sm *DefaultStateManager) TransitionToFinished(_ context.Context, execCtx *ExecutionContext) error {
	if err := execCtx.Task.SetState(tasks.StateFinished); err != nil {
		return err
	}

	sm.commitTerminal(execCtx)
	return nil
}

// TransitionToError records a failed conversion. A task that already reached
// a terminal state keeps it.
func (sm *DefaultStateManager) TransitionToError(_ context.Context, execCtx *ExecutionContext) error {
	if err := execCtx.Task.SetState(tasks.StateError); err != nil {
		return err
	}

	sm.commitTerminal(execCtx)
	return nil
}

func (sm *DefaultStateManager) commitTerminal(execCtx *ExecutionContext) {
	err := sm.store.Update(execCtx.Task)
	switch {
	case err == nil:
		sm.listener.TaskChanged(execCtx.Task)
	case stderrors.Is(err, errors.ErrNotFound):
		sm.logger.Debug("task removed while converting, dropping final state", map[string]any{
			"task_id": execCtx.Task.ID,
			"state":   execCtx.Task.State.String(),
		})
	default:
		sm.logger.Error("failed to update final task state", map[string]any{
			"task_id": execCtx.Task.ID,
			"state":   execCtx.Task.State.String(),
			"error":   err.Error(),
		})
	}
}
