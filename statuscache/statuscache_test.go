package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockClient) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func newCache(t *testing.T, client Client) *StatusCache {
	return New(client, time.Minute, logger.FromZap(zaptest.NewLogger(t)))
}

func finishedTask() *tasks.ConversionTask {
	task := tasks.NewConversionTask(tasks.DirectionPDFToPPT, "in.pdf", "out.pptx")
	task.State = tasks.StateFinished
	task.Backend = "pdf-slides"
	task.UpdatedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return task
}

func TestStatusCache_TaskChangedWritesEntry(t *testing.T) {
	client := new(MockClient)
	task := finishedTask()

	client.On("Set", mock.Anything, "task:status:"+task.ID, mock.MatchedBy(func(v any) bool {
		var e Entry
		if err := json.Unmarshal(v.([]byte), &e); err != nil {
			return false
		}
		return e.State == tasks.StateFinished && e.Backend == "pdf-slides" && e.Direction == tasks.DirectionPDFToPPT
	}), time.Minute).Return(redis.NewStatusResult("OK", nil))

	newCache(t, client).TaskChanged(task)

	client.AssertExpectations(t)
}

func TestStatusCache_WriteFailureIsSwallowed(t *testing.T) {
	client := new(MockClient)
	client.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(redis.NewStatusResult("", errors.New("connection refused")))
	client.On("Del", mock.Anything, mock.Anything).
		Return(redis.NewIntResult(0, errors.New("connection refused")))

	c := newCache(t, client)
	assert.NotPanics(t, func() {
		c.TaskChanged(finishedTask())
		c.TaskRemoved(finishedTask())
	})
}

func TestStatusCache_TaskRemovedDeletesKey(t *testing.T) {
	client := new(MockClient)
	task := finishedTask()
	client.On("Del", mock.Anything, []string{Key(task.ID)}).Return(redis.NewIntResult(1, nil))

	newCache(t, client).TaskRemoved(task)

	client.AssertExpectations(t)
}

func TestStatusCache_Get(t *testing.T) {
	stored, err := json.Marshal(Entry{State: tasks.StateError, Error: "backend pdf-slides: no pages"})
	require.NoError(t, err)

	testCases := []struct {
		name      string
		result    *redis.StringCmd
		wantState tasks.TaskState
		wantErrIs error
		errText   string
	}{
		{name: "hit", result: redis.NewStringResult(string(stored), nil), wantState: tasks.StateError},
		{name: "miss", result: redis.NewStringResult("", redis.Nil), wantErrIs: apperrors.ErrNotFound},
		{name: "redis down", result: redis.NewStringResult("", errors.New("i/o timeout")), errText: "i/o timeout"},
		{name: "garbage", result: redis.NewStringResult("not json", nil), errText: "decode status"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := new(MockClient)
			client.On("Get", mock.Anything, "task:status:abc").Return(tc.result)

			entry, err := newCache(t, client).Get(context.Background(), "abc")
			switch {
			case tc.wantErrIs != nil:
				require.ErrorIs(t, err, tc.wantErrIs)
			case tc.errText != "":
				require.ErrorContains(t, err, tc.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.wantState, entry.State)
			}
		})
	}
}

func TestNew_DefaultTTL(t *testing.T) {
	c := New(new(MockClient), 0, logger.Nop())
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect("http://not-redis")
	require.ErrorContains(t, err, "invalid Redis URL")
}
