package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// TaskErrorType categorizes different kinds of task failures
type TaskErrorType string

const (
	ValidationError TaskErrorType = "validation"
	ExecutionError  TaskErrorType = "execution"
	NotFoundError   TaskErrorType = "not_found"
	ConflictError   TaskErrorType = "conflict"
	InternalError   TaskErrorType = "internal"
)

// Store contract violations and input checks.
var (
	ErrDuplicateID      = stderrors.New("duplicate task id")
	ErrNotFound         = stderrors.New("task not found")
	ErrInputMissing     = stderrors.New("input file does not exist")
	ErrInputWrongFormat = stderrors.New("input file has the wrong format")
)

// TaskError provides structured error information with HTTP status suggestions
type TaskError struct {
	Type    TaskErrorType  `json:"type"`
	Message string         `json:"message"`
	Code    int            `json:"code"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *TaskError) Unwrap() error {
	return e.cause
}

// Wrap attaches the underlying cause so errors.Is keeps working across the
// front-end boundary.
func (e *TaskError) Wrap(cause error) *TaskError {
	e.cause = cause
	return e
}

// Constructor functions for common error types
func NewValidationError(message string, details ...map[string]any) *TaskError {
	return &TaskError{
		Type:    ValidationError,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: first(details),
	}
}

func NewExecutionError(message string, details ...map[string]any) *TaskError {
	return &TaskError{
		Type:    ExecutionError,
		Message: message,
		Code:    http.StatusUnprocessableEntity,
		Details: first(details),
	}
}

func NewNotFoundError(message string) *TaskError {
	return &TaskError{
		Type:    NotFoundError,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

func NewConflictError(message string) *TaskError {
	return &TaskError{
		Type:    ConflictError,
		Message: message,
		Code:    http.StatusConflict,
	}
}

func NewInternalError(message string) *TaskError {
	return &TaskError{
		Type:    InternalError,
		Message: message,
		Code:    http.StatusInternalServerError,
	}
}

// IsTaskError checks if an error is a TaskError and returns it
func IsTaskError(err error) (*TaskError, bool) {
	var taskErr *TaskError
	if stderrors.As(err, &taskErr) {
		return taskErr, true
	}
	return nil, false
}

func first(details []map[string]any) map[string]any {
	if len(details) > 0 {
		return details[0]
	}
	return nil
}
