package store

import (
	"time"

	"converteasy/tasks"
)

// TaskStore defines the contract for the task registry. It is a safe
// container only: callers validate state transitions before Update.
type TaskStore interface {
	Create(task *tasks.ConversionTask) error
	Get(id string) (*tasks.ConversionTask, error)
	Update(task *tasks.ConversionTask) error
	Delete(id string)
	GetAll() map[string]*tasks.ConversionTask
	GetExpired(ttl time.Duration) []*tasks.ConversionTask
	Stats() Stats
}

// Stats holds task counts taken from a single snapshot.
type Stats struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Finished   int `json:"finished"`
	Error      int `json:"error"`
}

// Count returns the number of tasks in the given state.
func (s Stats) Count(state tasks.TaskState) int {
	switch state {
	case tasks.StateQueued:
		return s.Queued
	case tasks.StateProcessing:
		return s.Processing
	case tasks.StateFinished:
		return s.Finished
	case tasks.StateError:
		return s.Error
	default:
		return 0
	}
}

func (s *Stats) add(state tasks.TaskState) {
	s.Total++
	switch state {
	case tasks.StateQueued:
		s.Queued++
	case tasks.StateProcessing:
		s.Processing++
	case tasks.StateFinished:
		s.Finished++
	case tasks.StateError:
		s.Error++
	}
}
