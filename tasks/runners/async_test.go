package runners_test

import (
	"context"
	stderrors "errors"
	"testing"

	"converteasy/errors"
	"converteasy/tasks"
	"converteasy/tasks/queue"
	"converteasy/tasks/runners"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

// MockTaskQueue records enqueued tasks without any workers behind it.
type MockTaskQueue struct {
	enqueuedTasks []*tasks.ConversionTask
	errorToReturn error
}

func (m *MockTaskQueue) Enqueue(_ context.Context, task *tasks.ConversionTask) error {
	if m.errorToReturn != nil {
		return m.errorToReturn
	}
	m.enqueuedTasks = append(m.enqueuedTasks, task)
	return nil
}

func (m *MockTaskQueue) Dequeue(context.Context) (*tasks.ConversionTask, error) {
	return nil, nil
}

func (m *MockTaskQueue) GetQueueDepth(context.Context) (int64, error) {
	return int64(len(m.enqueuedTasks)), nil
}

func (m *MockTaskQueue) Close() error {
	return nil
}

func TestAsynchronousRunner_Run_Enqueues(t *testing.T) {
	mockQueue := &MockTaskQueue{}
	runner := runners.NewAsynchronousRunner(mockQueue, pdfRegistry())

	task := tasks.NewConversionTask(tasks.DirectionPDFToDoc, "in.pdf", "out.docx")
	err := runner.Run(context.Background(), task)

	require.NoError(t, err)
	require.Len(t, mockQueue.enqueuedTasks, 1)
	assert.Equal(t, task.ID, mockQueue.enqueuedTasks[0].ID)
	assert.Equal(t, tasks.StateQueued, mockQueue.enqueuedTasks[0].State)
}

func TestAsynchronousRunner_Run_UnregisteredDirection(t *testing.T) {
	mockQueue := &MockTaskQueue{}
	runner := runners.NewAsynchronousRunner(mockQueue, pdfRegistry())

	err := runner.Run(context.Background(), tasks.NewConversionTask(tasks.DirectionPDFToPPT, "in.pdf", "out.pptx"))

	taskErr, ok := errors.IsTaskError(err)
	require.True(t, ok, "expected TaskError")
	assert.Equal(t, errors.NotFoundError, taskErr.Type)
	assert.Equal(t, 0, len(mockQueue.enqueuedTasks))
}

func TestAsynchronousRunner_Run_QueueFull(t *testing.T) {
	runner := runners.NewAsynchronousRunner(&MockTaskQueue{errorToReturn: queue.ErrQueueFull}, pdfRegistry())
	task := tasks.NewConversionTask(tasks.DirectionPDFToDoc, "in.pdf", "out.docx")

	err := runner.Run(context.Background(), task)

	taskErr, ok := errors.IsTaskError(err)
	require.True(t, ok, "expected TaskError")
	assert.Equal(t, errors.ExecutionError, taskErr.Type)
	assert.ErrorContains(t, err, "failed to enqueue task")
	assert.Equal(t, task.ID, taskErr.Details["task_id"])
	assert.Assert(t, stderrors.Is(err, queue.ErrQueueFull))
}

func TestAsynchronousRunner_Run_WithMemoryQueue(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	runner := runners.NewAsynchronousRunner(q, pdfRegistry())

	require.NoError(t, runner.Run(context.Background(), tasks.NewConversionTask(tasks.DirectionPDFToDoc, "a.pdf", "a.docx")))
	err := runner.Run(context.Background(), tasks.NewConversionTask(tasks.DirectionPDFToDoc, "b.pdf", "b.docx"))

	assert.Assert(t, stderrors.Is(err, queue.ErrQueueFull))
	depth, _ := q.GetQueueDepth(context.Background())
	assert.Equal(t, int64(1), depth)
}
