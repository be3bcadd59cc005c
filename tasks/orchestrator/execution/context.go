package execution

import (
	"fmt"
	"time"

	"converteasy/tasks"
	"converteasy/tasks/fallback"
)

// ExecutionContext tracks one conversion run: the task being converted, the
// chain outcome and timing.
type ExecutionContext struct {
	Task      *tasks.ConversionTask
	Result    fallback.Result
	Error     error
	StartTime time.Time
	EndTime   time.Time
	Metadata  map[string]any
}

// NewExecutionContext initializes tracking for a new execution attempt.
func NewExecutionContext(task *tasks.ConversionTask) *ExecutionContext {
	return &ExecutionContext{
		Task:      task,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// SetError records the failure that ends the run.
func (ctx *ExecutionContext) SetError(err error) {
	ctx.Error = err
	ctx.EndTime = time.Now()
	ctx.Metadata["has_error"] = true
	ctx.Metadata["error_type"] = fmt.Sprintf("%T", err)
}

// SetSuccess marks successful completion.
func (ctx *ExecutionContext) SetSuccess() {
	ctx.EndTime = time.Now()
	ctx.Metadata["has_error"] = false
	ctx.Metadata["backend"] = ctx.Result.Backend
}

func (ctx *ExecutionContext) IsSuccess() bool {
	return ctx.Error == nil
}

// Duration returns the elapsed time, still growing while the run is in
// progress.
func (ctx *ExecutionContext) Duration() time.Duration {
	if ctx.EndTime.IsZero() {
		return time.Since(ctx.StartTime)
	}
	return ctx.EndTime.Sub(ctx.StartTime)
}
