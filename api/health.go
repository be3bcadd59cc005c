package api

import (
	"context"
	"net/http"
	"time"

	"converteasy/config"
	"converteasy/logger"
	"converteasy/tasks/orchestrator"
)

var startTime = time.Now()

// QueueDepth reports how many tasks wait for a worker.
type QueueDepth interface {
	GetQueueDepth(ctx context.Context) (int64, error)
}

// WorkerCount reports the size of the worker pool.
type WorkerCount interface {
	GetWorkerCount() int
}

// Workload is what /health reports about background processing. Nil fields
// are left out of the response.
type Workload struct {
	Queue   QueueDepth
	Workers WorkerCount
}

// HealthResponse provides detailed health information
type HealthResponse struct {
	Status     string   `json:"status"`
	Timestamp  string   `json:"timestamp"`
	Uptime     string   `json:"uptime"`
	Directions []string `json:"directions"`
	Version    string   `json:"version,omitempty"`
	QueueDepth *int64   `json:"queue_depth,omitempty"`
	Workers    int      `json:"workers,omitempty"`
}

// NewHealthHandler returns a health check handler. A queue that cannot
// report its depth turns the status to "degraded".
func NewHealthHandler(cfg *config.Config, orch orchestrator.Orchestrator, workload Workload, lg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		directions := []string{}
		for _, d := range orch.Directions() {
			directions = append(directions, d.String())
		}

		resp := HealthResponse{
			Status:     "healthy",
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			Directions: directions,
			Version:    cfg.Version,
		}

		if workload.Queue != nil {
			depth, err := workload.Queue.GetQueueDepth(r.Context())
			if err != nil {
				lg.Warn("failed to read queue depth", map[string]any{"error": err})
				resp.Status = "degraded"
			} else {
				resp.QueueDepth = &depth
			}
		}
		if workload.Workers != nil {
			resp.Workers = workload.Workers.GetWorkerCount()
		}

		respondJSON(w, http.StatusOK, resp, lg)
	}
}
