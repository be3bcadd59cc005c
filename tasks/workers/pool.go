package workers

import (
	"context"
	"sync"
	"time"

	"converteasy/logger"
	"converteasy/tasks/orchestrator/execution"
	"converteasy/tasks/queue"
)

// DefaultShutdownTimeout bounds how long Stop waits for in-flight conversions.
const DefaultShutdownTimeout = 30 * time.Second

// WorkerPool manages a collection of workers and their lifecycle
type WorkerPool struct {
	workers         []*Worker
	logger          *logger.Logger
	wg              sync.WaitGroup
	cancelFn        context.CancelFunc
	shutdownTimeout time.Duration
	mu              sync.RWMutex // protects cancelFn and shutdownTimeout
}

func NewWorkerPool(
	workerCount int,
	queue queue.TaskQueue,
	workflow execution.ExecutionWorkflow,
	logger *logger.Logger,
) *WorkerPool {
	workers := make([]*Worker, workerCount)
	for i := range workerCount {
		workers[i] = NewWorker(i+1, queue, workflow, logger)
	}

	return &WorkerPool{
		workers:         workers,
		logger:          logger,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// Start begins all workers in the pool. Calling Start on a running pool is
// a no-op.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelFn != nil {
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel

	p.logger.Info("starting worker pool", map[string]any{
		"worker_count": len(p.workers),
	})

	for _, worker := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(workerCtx)
		}(worker)
	}

	p.logger.Info("worker pool started", map[string]any{
		"active_workers": len(p.workers),
	})
}

// Stop cancels the workers and waits for them up to the shutdown timeout.
// A conversion still running after the timeout is left to finish on its own.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	cancelFn := p.cancelFn
	p.cancelFn = nil
	timeout := p.shutdownTimeout
	p.mu.Unlock()

	p.logger.Info("stopping worker pool", map[string]any{
		"worker_count": len(p.workers),
		"timeout":      timeout,
	})

	if cancelFn != nil {
		cancelFn()
	}

	for _, worker := range p.workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully", map[string]any{
			"shutdown_time": "within_timeout",
		})
	case <-time.After(timeout):
		p.logger.Warn("worker pool shutdown timed out", map[string]any{
			"timeout":         timeout,
			"forced_shutdown": true,
		})
	}
}

// GetWorkerCount returns the number of workers in the pool
func (p *WorkerPool) GetWorkerCount() int {
	return len(p.workers)
}

// SetShutdownTimeout configures how long to wait for graceful shutdown
func (p *WorkerPool) SetShutdownTimeout(timeout time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdownTimeout = timeout
}
