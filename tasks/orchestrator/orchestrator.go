package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/runners"
	"converteasy/tasks/store"
	"converteasy/validation"
)

// SubmitRequest describes one conversion. Output may be empty, in which case
// it is derived from the input name.
type SubmitRequest struct {
	Input     string          `json:"input" validate:"required"`
	Output    string          `json:"output"`
	Direction tasks.Direction `json:"direction" validate:"required"`
}

// Orchestrator defines the contract for conversion task services.
type Orchestrator interface {
	// Submit validates the request, records a QUEUED task and hands it to
	// the runner. The id is returned whenever the task was recorded, even if
	// its conversion then failed.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// GetStatus returns a snapshot of the task.
	GetStatus(ctx context.Context, id string) (*tasks.ConversionTask, error)

	// Stats returns task counts per state.
	Stats(ctx context.Context) store.Stats

	// Delete forgets a task. A running conversion is not interrupted; its
	// final update is dropped.
	Delete(ctx context.Context, id string) error

	// Directions lists the directions that have backends.
	Directions() []tasks.Direction
}

// Catalog lists the directions with a registered backend chain.
type Catalog interface {
	Directions() []tasks.Direction
}

// orchestrator is the single implementation; sync or async behaviour comes
// from the injected runner.
type orchestrator struct {
	store     store.TaskStore
	runner    runners.Runner
	catalog   Catalog
	listener  tasks.Listener
	logger    *logger.Logger
	outputDir string
}

var _ Orchestrator = (*orchestrator)(nil)

// Option configures the orchestrator.
type Option func(*orchestrator)

// WithListener registers the lifecycle listener notified on submit and delete.
func WithListener(l tasks.Listener) Option {
	return func(o *orchestrator) {
		if l != nil {
			o.listener = l
		}
	}
}

// WithOutputDir sets where derived output files go. By default they are
// written next to the input.
func WithOutputDir(dir string) Option {
	return func(o *orchestrator) {
		o.outputDir = dir
	}
}

func NewOrchestrator(store store.TaskStore, runner runners.Runner, catalog Catalog, lg *logger.Logger, opts ...Option) Orchestrator {
	o := &orchestrator{
		store:    store,
		runner:   runner,
		catalog:  catalog,
		listener: tasks.Listeners{},
		logger:   lg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *orchestrator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	direction, err := tasks.ParseDirection(string(req.Direction))
	if err != nil {
		return "", errors.NewValidationError(err.Error(), map[string]any{
			"direction": string(req.Direction),
		}).Wrap(err)
	}

	if err := validation.CheckInput(req.Input, direction); err != nil {
		return "", errors.NewValidationError(err.Error(), map[string]any{
			"input": req.Input,
		}).Wrap(err)
	}

	output := req.Output
	if output == "" {
		output = o.deriveOutput(req.Input, direction)
	}

	task := tasks.NewConversionTask(direction, req.Input, output)
	if err := o.store.Create(task); err != nil {
		o.logger.Task(task.ID, "failed to save task", map[string]any{
			"error": err.Error(),
		})
		return "", errors.NewInternalError("failed to save task").Wrap(err)
	}
	o.listener.TaskChanged(task)

	o.logger.Task(task.ID, "task submitted", map[string]any{
		"direction":   direction.String(),
		"input":       task.InputRef,
		"output":      task.OutputRef,
		"runner_type": fmt.Sprintf("%T", o.runner),
	})

	if err := o.runner.Run(ctx, task.Clone()); err != nil {
		return o.handleRunError(task, err)
	}
	return task.ID, nil
}

// handleRunError tells a task the runner refused from one whose conversion
// ran and failed. The former is rolled back.
func (o *orchestrator) handleRunError(task *tasks.ConversionTask, err error) (string, error) {
	current, getErr := o.store.Get(task.ID)
	if getErr == nil && current.State == tasks.StateQueued {
		o.store.Delete(task.ID)
		o.listener.TaskRemoved(current)
		o.logger.Task(task.ID, "task not scheduled, removed", map[string]any{
			"error":       err.Error(),
			"runner_type": fmt.Sprintf("%T", o.runner),
		})
		return "", err
	}

	o.logger.Task(task.ID, "task execution failed", map[string]any{
		"error":       err.Error(),
		"runner_type": fmt.Sprintf("%T", o.runner),
	})
	return task.ID, err
}

func (o *orchestrator) deriveOutput(input string, direction tasks.Direction) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + direction.OutputExt()
	dir := o.outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

func (o *orchestrator) GetStatus(_ context.Context, id string) (*tasks.ConversionTask, error) {
	task, err := o.store.Get(id)
	if err != nil {
		return nil, notFound(id, err)
	}
	return task, nil
}

func (o *orchestrator) Stats(_ context.Context) store.Stats {
	return o.store.Stats()
}

func (o *orchestrator) Delete(_ context.Context, id string) error {
	task, err := o.store.Get(id)
	if err != nil {
		return notFound(id, err)
	}

	o.store.Delete(id)
	o.listener.TaskRemoved(task)
	o.logger.Task(id, "task deleted", map[string]any{
		"state": task.State.String(),
	})
	return nil
}

func (o *orchestrator) Directions() []tasks.Direction {
	return o.catalog.Directions()
}

func notFound(id string, err error) error {
	if stderrors.Is(err, errors.ErrNotFound) {
		return errors.NewNotFoundError(fmt.Sprintf("task %s not found", id)).Wrap(err)
	}
	return errors.NewInternalError(fmt.Sprintf("failed to load task %s", id)).Wrap(err)
}
