// Package statuscache mirrors task states into Redis so that other processes
// can read them without going through the HTTP API.
package statuscache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "task:status:"

	DefaultTTL = 10 * time.Minute

	writeTimeout = 2 * time.Second
)

// Client is the subset of the Redis commands the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Entry is the cached view of a task.
type Entry struct {
	State     tasks.TaskState `json:"state"`
	Direction tasks.Direction `json:"direction"`
	Backend   string          `json:"backend,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StatusCache writes an Entry per task on every change and drops it when the
// task is removed. It implements tasks.Listener.
type StatusCache struct {
	client Client
	ttl    time.Duration
	logger *logger.Logger
}

var _ tasks.Listener = (*StatusCache)(nil)

func New(client Client, ttl time.Duration, lg *logger.Logger) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StatusCache{client: client, ttl: ttl, logger: lg}
}

// Connect opens a Redis client from a redis:// URL and checks it answers.
func Connect(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func Key(taskID string) string {
	return keyPrefix + taskID
}

// Get returns the cached entry for a task. A missing key yields an error
// wrapping errors.ErrNotFound.
func (c *StatusCache) Get(ctx context.Context, taskID string) (*Entry, error) {
	data, err := c.client.Get(ctx, Key(taskID)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("status of %s: %w", taskID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("read status of %s: %w", taskID, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode status of %s: %w", taskID, err)
	}
	return &entry, nil
}

func (c *StatusCache) Set(ctx context.Context, task *tasks.ConversionTask) error {
	data, err := json.Marshal(Entry{
		State:     task.State,
		Direction: task.Direction,
		Backend:   task.Backend,
		Error:     task.Error,
		UpdatedAt: task.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(task.ID), data, c.ttl).Err()
}

func (c *StatusCache) Delete(ctx context.Context, taskID string) error {
	return c.client.Del(ctx, Key(taskID)).Err()
}

// TaskChanged writes the new state. Cache failures never affect the task.
func (c *StatusCache) TaskChanged(task *tasks.ConversionTask) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := c.Set(ctx, task); err != nil {
		c.logger.Warn("failed to cache task status", map[string]any{
			"task_id": task.ID,
			"state":   task.State,
			"error":   err,
		})
	}
}

func (c *StatusCache) TaskRemoved(task *tasks.ConversionTask) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := c.Delete(ctx, task.ID); err != nil {
		c.logger.Warn("failed to drop cached task status", map[string]any{
			"task_id": task.ID,
			"error":   err,
		})
	}
}
