package tasks

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TaskState is the lifecycle position of a conversion task.
type TaskState string

const (
	StateQueued     TaskState = "QUEUED"
	StateProcessing TaskState = "PROCESSING"
	StateFinished   TaskState = "FINISHED"
	StateError      TaskState = "ERROR"
)

// AllStates lists every state in lifecycle order.
var AllStates = []TaskState{StateQueued, StateProcessing, StateFinished, StateError}

func (s TaskState) String() string {
	return string(s)
}

// IsFinal reports whether the state is terminal.
func (s TaskState) IsFinal() bool {
	return s == StateFinished || s == StateError
}

// IsActive reports whether a conversion is currently running for the task.
func (s TaskState) IsActive() bool {
	return s == StateProcessing
}

func (s TaskState) canTransitionTo(next TaskState) error {
	var allowed []TaskState
	switch s {
	case StateQueued:
		allowed = []TaskState{StateProcessing}
	case StateProcessing:
		allowed = []TaskState{StateFinished, StateError}
	case StateFinished, StateError:
		allowed = nil
	default:
		return fmt.Errorf("unknown current status %q", s)
	}

	if !slices.Contains(allowed, next) {
		return fmt.Errorf("invalid transition from %s to %s", s, next)
	}
	return nil
}

// Direction names a supported conversion.
type Direction string

const (
	DirectionDocToHTML Direction = "doc2html"
	DirectionPDFToDoc  Direction = "pdf2doc"
	DirectionPDFToPPT  Direction = "pdf2ppt"
)

// Directions lists the built-in conversion directions.
var Directions = []Direction{DirectionDocToHTML, DirectionPDFToDoc, DirectionPDFToPPT}

// ParseDirection validates a direction name.
func ParseDirection(name string) (Direction, error) {
	d := Direction(name)
	if !slices.Contains(Directions, d) {
		return "", fmt.Errorf("unsupported direction %q", name)
	}
	return d, nil
}

func (d Direction) String() string {
	return string(d)
}

// OutputExt returns the file extension of the format the direction produces.
func (d Direction) OutputExt() string {
	switch d {
	case DirectionDocToHTML:
		return ".html"
	case DirectionPDFToDoc:
		return ".docx"
	case DirectionPDFToPPT:
		return ".pptx"
	default:
		return ""
	}
}

// Attempt records one backend try made while converting a task.
type Attempt struct {
	Backend  string        `json:"backend"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the backend produced usable output.
func (a Attempt) Succeeded() bool {
	return a.Error == ""
}

// ConversionTask is the tracked unit of work for one conversion request.
type ConversionTask struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
	State     TaskState `json:"state"`
	InputRef  string    `json:"input_ref"`
	OutputRef string    `json:"output_ref"`
	// Error is only set in ERROR and names the last backend attempted.
	Error string `json:"error,omitempty"`
	// Backend is the backend whose output was kept.
	Backend   string    `json:"backend,omitempty"`
	Attempts  []Attempt `json:"attempts,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversionTask creates a QUEUED task with a fresh id.
func NewConversionTask(direction Direction, input, output string) *ConversionTask {
	return &ConversionTask{
		ID:        uuid.New().String(),
		Direction: direction,
		State:     StateQueued,
		InputRef:  input,
		OutputRef: output,
	}
}

// SetState moves the task along the state machine.
func (t *ConversionTask) SetState(next TaskState) error {
	if err := t.State.canTransitionTo(next); err != nil {
		return fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.State = next
	return nil
}

// Clone returns a deep copy of the task.
func (t *ConversionTask) Clone() *ConversionTask {
	if t == nil {
		return nil
	}
	c := *t
	c.Attempts = slices.Clone(t.Attempts)
	return &c
}

// Age returns how long ago the task was created.
func (t *ConversionTask) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}
