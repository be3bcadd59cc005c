package store_test

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "converteasy/errors"
	"converteasy/tasks"
	"converteasy/tasks/store"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func newTestTask(id string) *tasks.ConversionTask {
	return &tasks.ConversionTask{
		ID:        id,
		Direction: tasks.DirectionPDFToDoc,
		State:     tasks.StateQueued,
		InputRef:  "in.pdf",
		OutputRef: "out.docx",
	}
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryTaskStore_Create(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		storeSetup func() *store.MemoryTaskStore
		task       *tasks.ConversionTask
		expectErr  error
	}{
		{
			name:       "successful create",
			storeSetup: func() *store.MemoryTaskStore { return store.NewMemoryTaskStore() },
			task:       newTestTask("task-create-1"),
		},
		{
			name: "duplicate id",
			storeSetup: func() *store.MemoryTaskStore {
				s := store.NewMemoryTaskStore()
				require.NoError(t, s.Create(newTestTask("task-existing")))
				return s
			},
			task:      newTestTask("task-existing"),
			expectErr: apperrors.ErrDuplicateID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.storeSetup()
			err := s.Create(tc.task)

			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMemoryTaskStore_CreateThenGet(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	s := store.NewMemoryTaskStore(store.WithClock(clock.Now))

	require.NoError(t, s.Create(newTestTask("task-1")))

	got, err := s.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, tasks.StateQueued, got.State)
	assert.Equal(t, clock.Now(), got.CreatedAt)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestMemoryTaskStore_CreateKeepsGivenCreatedAt(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryTaskStore()

	created := time.Date(2023, 5, 5, 5, 5, 5, 0, time.UTC)
	task := newTestTask("task-1")
	task.CreatedAt = created
	task.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, s.Create(task))

	got, err := s.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, created, got.UpdatedAt)
}

func TestMemoryTaskStore_Get(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		s := store.NewMemoryTaskStore()
		_, err := s.Get("does-not-exist")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("returns a copy", func(t *testing.T) {
		s := store.NewMemoryTaskStore()
		original := newTestTask("task-copy")
		original.Attempts = []tasks.Attempt{{Backend: "pdf-plaintext", Error: "boom"}}
		require.NoError(t, s.Create(original))

		// mutating the caller's copy after Create must not leak in
		original.State = tasks.StateError

		got, err := s.Get("task-copy")
		require.NoError(t, err)
		got.State = tasks.StateFinished
		got.Attempts[0].Backend = "modified"

		again, err := s.Get("task-copy")
		require.NoError(t, err)
		assert.Equal(t, tasks.StateQueued, again.State)
		assert.Equal(t, "pdf-plaintext", again.Attempts[0].Backend)
	})
}

func TestMemoryTaskStore_Update(t *testing.T) {
	t.Parallel()

	t.Run("stamps updated_at and keeps created_at", func(t *testing.T) {
		clock := newFakeClock()
		s := store.NewMemoryTaskStore(store.WithClock(clock.Now))
		require.NoError(t, s.Create(newTestTask("task-1")))
		createdAt := clock.Now()

		clock.Advance(5 * time.Second)
		task, err := s.Get("task-1")
		require.NoError(t, err)
		require.NoError(t, task.SetState(tasks.StateProcessing))
		task.CreatedAt = time.Time{}
		require.NoError(t, s.Update(task))

		got, err := s.Get("task-1")
		require.NoError(t, err)
		assert.Equal(t, tasks.StateProcessing, got.State)
		assert.Equal(t, createdAt, got.CreatedAt)
		assert.Equal(t, createdAt.Add(5*time.Second), got.UpdatedAt)
	})

	t.Run("updated_at never precedes created_at", func(t *testing.T) {
		clock := newFakeClock()
		s := store.NewMemoryTaskStore(store.WithClock(clock.Now))
		require.NoError(t, s.Create(newTestTask("task-1")))

		clock.Advance(-time.Minute)
		task, err := s.Get("task-1")
		require.NoError(t, err)
		require.NoError(t, s.Update(task))

		got, err := s.Get("task-1")
		require.NoError(t, err)
		assert.Assert(t, !got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		s := store.NewMemoryTaskStore()
		err := s.Update(newTestTask("missing"))
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("does not validate transitions", func(t *testing.T) {
		s := store.NewMemoryTaskStore()
		require.NoError(t, s.Create(newTestTask("task-1")))

		task := newTestTask("task-1")
		task.State = tasks.StateFinished
		require.NoError(t, s.Update(task))
	})
}

func TestMemoryTaskStore_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryTaskStore()
	require.NoError(t, s.Create(newTestTask("task-1")))

	s.Delete("task-1")
	s.Delete("task-1")
	s.Delete("never-existed")
	s.Delete("never-existed")

	_, err := s.Get("task-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryTaskStore_GetAllIsIndependent(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryTaskStore()
	require.NoError(t, s.Create(newTestTask("a")))
	require.NoError(t, s.Create(newTestTask("b")))

	all := s.GetAll()
	assert.Assert(t, is.Len(all, 2))

	all["a"].State = tasks.StateError
	delete(all, "b")
	require.NoError(t, s.Create(newTestTask("c")))

	assert.Assert(t, is.Len(all, 1))
	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, tasks.StateQueued, got.State)
	assert.Equal(t, 3, s.Stats().Total)
}

func TestMemoryTaskStore_GetExpired(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		ttl      time.Duration
		advance  time.Duration
		expected int
	}{
		{"zero ttl returns everything immediately", 0, 0, 3},
		{"huge ttl returns nothing for fresh tasks", 1e9 * time.Second, 0, 0},
		{"age equal to ttl is not expired", time.Minute, time.Minute, 0},
		{"age beyond ttl is expired", time.Minute, time.Minute + time.Nanosecond, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			s := store.NewMemoryTaskStore(store.WithClock(clock.Now))
			for i := range 3 {
				require.NoError(t, s.Create(newTestTask(fmt.Sprintf("task-%d", i))))
			}

			clock.Advance(tc.advance)
			assert.Assert(t, is.Len(s.GetExpired(tc.ttl), tc.expected))
		})
	}
}

func TestMemoryTaskStore_GetExpiredMixedAges(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	s := store.NewMemoryTaskStore(store.WithClock(clock.Now))

	require.NoError(t, s.Create(newTestTask("old")))
	clock.Advance(2 * time.Hour)
	require.NoError(t, s.Create(newTestTask("new")))

	expired := s.GetExpired(time.Hour)
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0].ID)
}

func TestMemoryTaskStore_Stats(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryTaskStore()

	states := []tasks.TaskState{
		tasks.StateQueued, tasks.StateQueued,
		tasks.StateProcessing,
		tasks.StateFinished, tasks.StateFinished, tasks.StateFinished,
		tasks.StateError,
	}
	for i, state := range states {
		task := newTestTask(fmt.Sprintf("task-%d", i))
		task.State = state
		require.NoError(t, s.Create(task))
	}

	stats := s.Stats()
	assert.DeepEqual(t, store.Stats{Total: 7, Queued: 2, Processing: 1, Finished: 3, Error: 1}, stats)
	assert.Equal(t, 3, stats.Count(tasks.StateFinished))
}

func TestMemoryTaskStore_ConcurrentCreateDistinctIDs(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryTaskStore()
	const n = 200

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Create(newTestTask(fmt.Sprintf("task-%d", i))); err != nil {
				t.Error(err)
			}
			_, _ = s.Get(fmt.Sprintf("task-%d", i))
		}(i)
	}
	wg.Wait()

	stats := s.Stats()
	assert.Equal(t, n, stats.Total)
	assert.Equal(t, n, stats.Queued)
}

func TestMemoryTaskStore_ConcurrentCreateSameID(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryTaskStore()
	const n = 50

	var successes, duplicates atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := s.Create(newTestTask("shared"))
			switch {
			case err == nil:
				successes.Add(1)
			case stderrors.Is(err, apperrors.ErrDuplicateID):
				duplicates.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(n-1), duplicates.Load())
	assert.Equal(t, 1, s.Stats().Total)
}
