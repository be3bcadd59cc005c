package workers

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator/execution"
	"converteasy/tasks/queue"

	"github.com/stretchr/testify/mock"
	"gotest.tools/v3/assert"
)

func createTestPool(workerCount int, q queue.TaskQueue, workflow execution.ExecutionWorkflow) *WorkerPool {
	var buf bytes.Buffer
	return NewWorkerPool(workerCount, q, workflow, logger.New("DEBUG", &buf))
}

func TestWorkerPool_NewWorkerPool(t *testing.T) {
	testCases := []struct {
		name        string
		workerCount int
	}{
		{"single worker", 1},
		{"multiple workers", 3},
		{"zero workers", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool := createTestPool(tc.workerCount, &MockTaskQueue{}, &MockWorkflow{})

			assert.Equal(t, tc.workerCount, pool.GetWorkerCount())
			assert.Equal(t, DefaultShutdownTimeout, pool.shutdownTimeout)
		})
	}
}

func TestWorkerPool_SetShutdownTimeout(t *testing.T) {
	pool := createTestPool(1, &MockTaskQueue{}, &MockWorkflow{})

	pool.SetShutdownTimeout(10 * time.Second)

	assert.Equal(t, 10*time.Second, pool.shutdownTimeout)
}

// workflowFunc adapts a function to execution.ExecutionWorkflow.
type workflowFunc func(ctx context.Context, task *tasks.ConversionTask) error

func (f workflowFunc) Execute(ctx context.Context, task *tasks.ConversionTask) error {
	return f(ctx, task)
}

func TestWorkerPool_ProcessesEveryTask(t *testing.T) {
	q := queue.NewMemoryQueue(20)

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	const n = 12
	wg.Add(n)

	pool := createTestPool(3, q, workflowFunc(func(_ context.Context, task *tasks.ConversionTask) error {
		mu.Lock()
		seen[task.ID]++
		mu.Unlock()
		wg.Done()
		return nil
	}))

	for i := 0; i < n; i++ {
		assert.NilError(t, q.Enqueue(context.Background(), tasks.NewConversionTask(tasks.DirectionPDFToDoc, "in.pdf", "out.docx")))
	}

	pool.Start(context.Background())
	defer pool.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not drain the queue")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, len(seen))
	for id, count := range seen {
		assert.Equal(t, 1, count, "task %s processed more than once", id)
	}
}

func TestWorkerPool_StartStop_MultipleWorkers(t *testing.T) {
	mockQueue := &MockTaskQueue{}
	mockQueue.On("Dequeue", mock.Anything).Return(func(ctx context.Context) (*tasks.ConversionTask, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}).Maybe()

	pool := createTestPool(3, mockQueue, &MockWorkflow{})
	pool.Start(context.Background())

	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Multi-worker pool did not stop within timeout")
	}
}

func TestWorkerPool_ShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	q := queue.NewMemoryQueue(1)
	started := make(chan struct{})
	pool := createTestPool(1, q, workflowFunc(func(context.Context, *tasks.ConversionTask) error {
		close(started)
		<-release
		return nil
	}))
	pool.SetShutdownTimeout(50 * time.Millisecond)

	assert.NilError(t, q.Enqueue(context.Background(), tasks.NewConversionTask(tasks.DirectionPDFToPPT, "a.pdf", "a.pptx")))
	pool.Start(context.Background())
	<-started

	stopStart := time.Now()
	pool.Stop()
	stopDuration := time.Since(stopStart)

	assert.Assert(t, stopDuration < 150*time.Millisecond, "Stop should have timed out quickly")
	assert.Assert(t, stopDuration >= 40*time.Millisecond, "Stop should have waited for timeout period")
}

func TestWorkerPool_DoubleStartIsNoop(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	pool := createTestPool(2, q, &MockWorkflow{})

	pool.Start(context.Background())
	pool.Start(context.Background())

	pool.mu.RLock()
	assert.Assert(t, pool.cancelFn != nil)
	pool.mu.RUnlock()

	pool.Stop()
}

func TestWorkerPool_StopWithoutStart(t *testing.T) {
	pool := createTestPool(2, &MockTaskQueue{}, &MockWorkflow{})

	pool.Stop()
	pool.Stop()
}
