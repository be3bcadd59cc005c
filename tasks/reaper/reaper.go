// Package reaper evicts expired conversion tasks on a fixed interval.
package reaper

import (
	"context"
	"sync"
	"time"

	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/store"
)

const (
	DefaultTTL      = time.Hour
	DefaultInterval = time.Minute
)

// ExpiryReaper deletes tasks whose age exceeds the TTL. A task is evicted
// in any state; an executor still converting it drops its final update.
type ExpiryReaper struct {
	store    store.TaskStore
	ttl      time.Duration
	interval time.Duration
	listener tasks.Listener
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a reaper. Non-positive durations take the defaults; listener
// may be nil.
func New(s store.TaskStore, ttl, interval time.Duration, listener tasks.Listener, lg *logger.Logger) *ExpiryReaper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if listener == nil {
		listener = tasks.Listeners{}
	}
	return &ExpiryReaper{
		store:    s,
		ttl:      ttl,
		interval: interval,
		listener: listener,
		logger:   lg,
	}
}

// Start launches the sweep loop. It is a no-op when already running.
func (r *ExpiryReaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)

	r.logger.Info("starting expiry reaper", map[string]any{
		"ttl":      r.ttl.String(),
		"interval": r.interval.String(),
	})

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop ends the loop and waits for a sweep in progress.
func (r *ExpiryReaper) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func (r *ExpiryReaper) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("expiry reaper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep evicts every expired task once and returns how many were removed.
func (r *ExpiryReaper) Sweep() int {
	expired := r.store.GetExpired(r.ttl)
	for _, task := range expired {
		r.store.Delete(task.ID)
		r.listener.TaskRemoved(task)
		r.logger.Debug("evicted expired task", map[string]any{
			"task_id":    task.ID,
			"state":      task.State.String(),
			"created_at": task.CreatedAt,
		})
	}

	if len(expired) > 0 {
		r.logger.Info("expiry sweep finished", map[string]any{
			"evicted": len(expired),
		})
	}
	return len(expired)
}
