package errors

import (
	"fmt"
	"strings"
)

// BackendError is the failure of a single backend attempt. The fallback
// converter recovers from it by moving on to the next backend.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// AllBackendsFailedError is returned when every backend of a chain failed.
// Failures keeps the per-backend errors in attempt order.
type AllBackendsFailedError struct {
	Failures []*BackendError
}

// NewAllBackendsFailed aggregates the failures of a chain run.
func NewAllBackendsFailed(failures []*BackendError) *AllBackendsFailedError {
	return &AllBackendsFailedError{Failures: failures}
}

// Last returns the failure of the last attempted backend.
func (e *AllBackendsFailedError) Last() *BackendError {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1]
}

func (e *AllBackendsFailedError) Error() string {
	last := e.Last()
	if last == nil {
		return "all backends failed: no backend attempted"
	}
	if len(e.Failures) == 1 {
		return fmt.Sprintf("all backends failed: %s", last.Error())
	}

	earlier := make([]string, 0, len(e.Failures)-1)
	for _, f := range e.Failures[:len(e.Failures)-1] {
		earlier = append(earlier, f.Error())
	}
	return fmt.Sprintf("all %d backends failed: last %s (earlier: %s)",
		len(e.Failures), last.Error(), strings.Join(earlier, "; "))
}

// Unwrap exposes every backend failure to errors.Is / errors.As.
func (e *AllBackendsFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
