package fallback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "converteasy/errors"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/backends"
)

// ErrEmptyOutput is the failure of a backend that returned without error
// but left no usable output behind.
var ErrEmptyOutput = errors.New("backend produced no output")

// Result describes a chain run. Attempts is filled in both on success and on
// failure.
type Result struct {
	// Backend is the backend whose output was kept, empty on failure.
	Backend  string
	Attempts []tasks.Attempt
}

// Converter runs an ordered backend chain until one backend produces a
// non-empty output file.
type Converter struct {
	logger  *logger.Logger
	timeout time.Duration
}

// NewConverter creates a converter. A positive timeout bounds every single
// attempt; an attempt that exceeds it fails and the chain moves on.
func NewConverter(lg *logger.Logger, timeout time.Duration) *Converter {
	return &Converter{logger: lg, timeout: timeout}
}

// Run tries each backend in order. Every attempt writes to its own scratch
// file next to dst, and only a non-empty output is moved into place, so dst
// is left untouched unless a backend succeeds. When all backends fail the
// error is an *errors.AllBackendsFailedError.
func (c *Converter) Run(ctx context.Context, src, dst string, chain []backends.ConversionBackend) (Result, error) {
	var (
		result   Result
		failures []*apperrors.BackendError
	)

	for i, b := range chain {
		start := time.Now()
		scratch, err := c.attempt(ctx, b, src, dst)
		if err == nil {
			if err = promote(scratch, dst); err != nil {
				_ = os.Remove(scratch)
			}
		}
		elapsed := time.Since(start)

		if err == nil {
			result.Backend = b.Name()
			result.Attempts = append(result.Attempts, tasks.Attempt{Backend: b.Name(), Duration: elapsed})
			c.logger.Debug("backend succeeded", map[string]any{
				"backend":     b.Name(),
				"attempt":     i + 1,
				"duration_ms": elapsed.Milliseconds(),
				"output":      dst,
			})
			return result, nil
		}

		failures = append(failures, &apperrors.BackendError{Backend: b.Name(), Err: err})
		result.Attempts = append(result.Attempts, tasks.Attempt{Backend: b.Name(), Error: err.Error(), Duration: elapsed})
		c.logger.Warn("backend failed, trying next", map[string]any{
			"backend":     b.Name(),
			"attempt":     i + 1,
			"remaining":   len(chain) - i - 1,
			"duration_ms": elapsed.Milliseconds(),
			"error":       err,
			"input":       src,
		})

		// the caller gave up; the rest of the chain would fail the same way
		if ctx.Err() != nil {
			break
		}
	}

	return result, apperrors.NewAllBackendsFailed(failures)
}

// attempt runs one backend against a fresh scratch file and returns that
// file once it holds usable output. Panics and timeouts become errors. A
// backend that ignores cancellation keeps running in the background, and
// its own scratch file is removed once it returns.
func (c *Converter) attempt(ctx context.Context, b backends.ConversionBackend, src, dst string) (string, error) {
	scratch, err := newScratch(dst)
	if err != nil {
		return "", err
	}

	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- b.Convert(attemptCtx, src, scratch)
	}()

	select {
	case err := <-done:
		if err == nil {
			err = checkOutput(scratch)
		}
		if err != nil {
			_ = os.Remove(scratch)
			return "", err
		}
		return scratch, nil
	case <-attemptCtx.Done():
		go func() {
			<-done
			_ = os.Remove(scratch)
		}()
		return "", fmt.Errorf("attempt abandoned: %w", attemptCtx.Err())
	}
}

// newScratch creates an empty file in dst's directory with a name no other
// attempt can share.
func newScratch(dst string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	return name, nil
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrEmptyOutput
		}
		return fmt.Errorf("stat output: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return ErrEmptyOutput
	}
	return nil
}

func promote(scratch, dst string) error {
	if err := os.Rename(scratch, dst); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}
