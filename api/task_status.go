package api

import (
	"net/http"
	"time"

	"converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskResponse is the public view of a conversion task.
type TaskResponse struct {
	TaskID    string          `json:"task_id"`
	Direction string          `json:"direction"`
	State     string          `json:"state"`
	Input     string          `json:"input"`
	Output    string          `json:"output"`
	Backend   string          `json:"backend,omitempty"`
	Error     string          `json:"error,omitempty"`
	Attempts  []tasks.Attempt `json:"attempts,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newTaskResponse(task *tasks.ConversionTask) TaskResponse {
	return TaskResponse{
		TaskID:    task.ID,
		Direction: task.Direction.String(),
		State:     task.State.String(),
		Input:     task.InputRef,
		Output:    task.OutputRef,
		Backend:   task.Backend,
		Error:     task.Error,
		Attempts:  task.Attempts,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// NewTaskStatusHandler serves GET /tasks/{id}.
func NewTaskStatusHandler(orch orchestrator.Orchestrator, lg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, ok := taskIDParam(w, r, lg)
		if !ok {
			return
		}

		task, err := orch.GetStatus(r.Context(), taskID)
		if err != nil {
			respondWithTaskError(w, err, lg)
			return
		}

		respondJSON(w, http.StatusOK, newTaskResponse(task), lg)
	}
}

// NewTaskDeleteHandler serves DELETE /tasks/{id}.
func NewTaskDeleteHandler(orch orchestrator.Orchestrator, lg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, ok := taskIDParam(w, r, lg)
		if !ok {
			return
		}

		if err := orch.Delete(r.Context(), taskID); err != nil {
			respondWithTaskError(w, err, lg)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewStatsHandler serves GET /stats.
func NewStatsHandler(orch orchestrator.Orchestrator, lg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, orch.Stats(r.Context()), lg)
	}
}

// taskIDParam reads the {id} path segment. Task ids are UUIDs, anything else
// is rejected before reaching the store.
func taskIDParam(w http.ResponseWriter, r *http.Request, lg *logger.Logger) (string, bool) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		respondWithError(w, errors.NewValidationError("task ID is required"), lg)
		return "", false
	}
	if _, err := uuid.Parse(taskID); err != nil {
		respondWithError(w, errors.NewValidationError("task ID has invalid format", map[string]any{
			"task_id": taskID,
		}), lg)
		return "", false
	}
	return taskID, true
}
