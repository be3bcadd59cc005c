package runners

import (
	"context"
	"fmt"

	"converteasy/errors"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator/execution"
)

// Runner hands a created task over for conversion.
type Runner interface {
	// Run either converts the task before returning or schedules it,
	// depending on the strategy. A direction without backends is rejected
	// up front.
	Run(ctx context.Context, task *tasks.ConversionTask) error
}

func checkChain(chains execution.ChainSource, task *tasks.ConversionTask) error {
	if _, ok := chains.Chain(task.Direction); !ok {
		return errors.NewNotFoundError(fmt.Sprintf("no backends registered for direction: %s", task.Direction))
	}
	return nil
}
