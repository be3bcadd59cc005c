package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator"

	"github.com/go-playground/validator/v10"
)

const (
	maxBodySize = 64 * 1024 // 64 KB
	maxPathLen  = 4096
)

var validate = newValidator()

// ErrorResponse defines the JSON structure for error responses
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    string         `json:"type,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ConvertRequest is the body of POST /convert. Paths are relative to the
// served directories.
type ConvertRequest struct {
	Input     string `json:"input" validate:"required,max=4096,localpath"`
	Output    string `json:"output,omitempty" validate:"omitempty,max=4096,localpath"`
	Direction string `json:"direction" validate:"required,oneof=doc2html pdf2doc pdf2ppt"`
}

// NewConvertHandler returns an HTTP handler that accepts conversion requests.
// The task is queued and its id returned right away; clients poll
// GET /tasks/{id} for the outcome.
func NewConvertHandler(orch orchestrator.Orchestrator, roots PathRoots, lg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Limit request body size - this will cause Decode to fail if exceeded
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

		var req ConvertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				respondWithError(w, errors.NewValidationError("request body too large", map[string]any{
					"max_size_bytes": maxBodySize,
				}), lg)
				return
			}

			respondWithError(w, errors.NewValidationError("invalid JSON payload", map[string]any{
				"error": err.Error(),
			}), lg)
			return
		}

		if err := validate.Struct(req); err != nil {
			respondWithError(w, requestValidationError(err), lg)
			return
		}

		id, err := orch.Submit(r.Context(), orchestrator.SubmitRequest{
			Input:     roots.Input(req.Input),
			Output:    roots.Output(req.Output),
			Direction: tasks.Direction(req.Direction),
		})
		if id == "" {
			respondWithTaskError(w, err, lg)
			return
		}

		// the task exists even if its conversion already failed
		task, getErr := orch.GetStatus(r.Context(), id)
		if getErr != nil {
			respondWithTaskError(w, getErr, lg)
			return
		}

		respondJSON(w, http.StatusAccepted, newTaskResponse(task), lg)
	}
}

// requestValidationError reports the first failing field of a request DTO.
func requestValidationError(err error) *errors.TaskError {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError("invalid request", map[string]any{"error": err.Error()})
	}

	fe := fieldErrs[0]
	details := map[string]any{"field": fe.Field(), "rule": fe.Tag()}
	switch fe.Tag() {
	case "required":
		return errors.NewValidationError(fe.Field()+" is required", details)
	case "oneof":
		details["allowed"] = fe.Param()
		return errors.NewValidationError("unsupported direction", details)
	case "max":
		details["max_length"] = maxPathLen
		return errors.NewValidationError(fe.Field()+" too long", details)
	case "localpath":
		return errors.NewValidationError(fe.Field()+" must be a relative path without '..'", details)
	default:
		return errors.NewValidationError("invalid "+fe.Field(), details)
	}
}

func respondJSON(w http.ResponseWriter, status int, body any, lg *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// headers are gone already
		lg.Error("failed to encode response", map[string]any{
			"status_code": status,
			"error":       err.Error(),
		})
	}
}

// respondWithTaskError maps any error onto a structured response.
func respondWithTaskError(w http.ResponseWriter, err error, lg *logger.Logger) {
	if taskErr, ok := errors.IsTaskError(err); ok {
		respondWithError(w, taskErr, lg)
		return
	}
	if err == nil {
		err = stderrors.New("unknown error")
	}
	respondWithError(w, errors.NewInternalError(err.Error()), lg)
}

// respondWithError sends a structured error response
func respondWithError(w http.ResponseWriter, taskErr *errors.TaskError, lg *logger.Logger) {
	lg.Error("HTTP error response", map[string]any{
		"error_type":    string(taskErr.Type),
		"error_message": taskErr.Message,
		"status_code":   taskErr.Code,
		"error_details": taskErr.Details,
	})

	respondJSON(w, taskErr.Code, ErrorResponse{
		Error:   taskErr.Message,
		Type:    string(taskErr.Type),
		Details: taskErr.Details,
	}, lg)
}
