package execution

import (
	stderrors "errors"
	"fmt"

	"converteasy/errors"
)

// ResultHandler copies the outcome of a run onto the task before it is
// persisted.
type ResultHandler interface {
	HandleSuccess(ctx *ExecutionContext)
	HandleFailure(ctx *ExecutionContext)
}

// DefaultResultHandler records backend attribution and error text.
type DefaultResultHandler struct{}

func NewDefaultResultHandler() *DefaultResultHandler {
	return &DefaultResultHandler{}
}

// HandleSuccess stores the winning backend and every attempt made on the way.
func (h *DefaultResultHandler) HandleSuccess(ctx *ExecutionContext) {
	ctx.SetSuccess()
	ctx.Task.Backend = ctx.Result.Backend
	ctx.Task.Attempts = ctx.Result.Attempts
	ctx.Task.Error = ""
}

// HandleFailure stores the attempts and a readable error. A chain failure
// already names the last backend and its reason, so its message is kept as
// is.
func (h *DefaultResultHandler) HandleFailure(ctx *ExecutionContext) {
	ctx.Task.Backend = ""
	ctx.Task.Attempts = ctx.Result.Attempts

	var allFailed *errors.AllBackendsFailedError
	switch {
	case ctx.Error == nil:
		ctx.Task.Error = "execution failed"
	case stderrors.As(ctx.Error, &allFailed):
		ctx.Task.Error = allFailed.Error()
	default:
		if taskErr, ok := errors.IsTaskError(ctx.Error); ok {
			ctx.Task.Error = fmt.Sprintf("task %s: %s", taskErr.Type, taskErr.Message)
		} else {
			ctx.Task.Error = fmt.Sprintf("execution failed: %s", ctx.Error.Error())
		}
	}
}
