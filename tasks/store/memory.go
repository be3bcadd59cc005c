package store

import (
	"fmt"
	"sync"
	"time"

	apperrors "converteasy/errors"
	"converteasy/tasks"
)

// Compile-time check to ensure MemoryTaskStore implements TaskStore interface
var _ TaskStore = (*MemoryTaskStore)(nil)

// MemoryTaskStore provides an in-memory implementation of the task registry.
// Every record handed in or out is copied, so callers never share state with
// the map.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*tasks.ConversionTask
	now   func() time.Time
}

// Option configures a MemoryTaskStore.
type Option func(*MemoryTaskStore)

// WithClock replaces the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryTaskStore) {
		s.now = now
	}
}

// NewMemoryTaskStore creates and initializes a new MemoryTaskStore.
func NewMemoryTaskStore(opts ...Option) *MemoryTaskStore {
	s := &MemoryTaskStore{
		tasks: make(map[string]*tasks.ConversionTask),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new task. CreatedAt defaults to now and UpdatedAt starts
// equal to it.
func (s *MemoryTaskStore) Create(task *tasks.ConversionTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s: %w", task.ID, apperrors.ErrDuplicateID)
	}

	stored := task.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	stored.UpdatedAt = stored.CreatedAt

	s.tasks[stored.ID] = stored
	return nil
}

// Get retrieves a snapshot copy of a task by its ID.
func (s *MemoryTaskStore) Get(id string) (*tasks.ConversionTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return task.Clone(), nil
}

// Update replaces the stored record and stamps UpdatedAt. CreatedAt is kept
// from the stored record since it is immutable.
func (s *MemoryTaskStore) Update(task *tasks.ConversionTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[task.ID]
	if !ok {
		return fmt.Errorf("task with ID %s: %w", task.ID, apperrors.ErrNotFound)
	}

	stored := task.Clone()
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = s.now()
	if stored.UpdatedAt.Before(stored.CreatedAt) {
		stored.UpdatedAt = stored.CreatedAt
	}

	s.tasks[stored.ID] = stored
	return nil
}

// Delete removes a task. Deleting an unknown id is a no-op.
func (s *MemoryTaskStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, id)
}

// GetAll returns an independent copy of the whole registry.
func (s *MemoryTaskStore) GetAll() map[string]*tasks.ConversionTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[string]*tasks.ConversionTask, len(s.tasks))
	for id, task := range s.tasks {
		all[id] = task.Clone()
	}
	return all
}

// GetExpired returns copies of the tasks created more than ttl ago, in no
// particular order.
func (s *MemoryTaskStore) GetExpired(ttl time.Duration) []*tasks.ConversionTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var expired []*tasks.ConversionTask
	for _, task := range s.tasks {
		// a non-positive ttl expires everything, including tasks created
		// within the current clock tick
		if ttl <= 0 || task.Age(now) > ttl {
			expired = append(expired, task.Clone())
		}
	}
	return expired
}

// Stats counts tasks per state.
func (s *MemoryTaskStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	for _, task := range s.tasks {
		stats.add(task.State)
	}
	return stats
}
