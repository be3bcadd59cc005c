// Package metrics exposes Prometheus metrics for conversion tasks.
package metrics

import (
	"context"
	"time"

	"converteasy/tasks"
	"converteasy/tasks/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "converteasy"

// StatsSource reports the current task counts per state.
type StatsSource interface {
	Stats() store.Stats
}

// QueueSource reports how many tasks wait for a worker.
type QueueSource interface {
	GetQueueDepth(ctx context.Context) (int64, error)
}

// PoolSource reports the size of the worker pool.
type PoolSource interface {
	GetWorkerCount() int
}

// Collector records task lifecycle events as Prometheus metrics. It
// implements tasks.Listener.
type Collector struct {
	submitted *prometheus.CounterVec
	finished  *prometheus.CounterVec
	failed    *prometheus.CounterVec
	attempts  *prometheus.CounterVec
	evicted   prometheus.Counter
	duration  *prometheus.HistogramVec
}

var _ tasks.Listener = (*Collector)(nil)

// New registers the task metrics with reg. When source is not nil a gauge
// per state is read from it on every scrape.
func New(reg prometheus.Registerer, source StatsSource) *Collector {
	factory := promauto.With(reg)

	c := &Collector{
		submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total accepted conversion tasks.",
		}, []string{"direction"}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Total tasks that produced an output.",
		}, []string{"direction"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total tasks where every backend failed.",
		}, []string{"direction"}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_attempts_total",
			Help:      "Backend attempts by backend and outcome.",
		}, []string{"backend", "outcome"}),
		evicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_removed_total",
			Help:      "Total tasks removed from the store.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_seconds",
			Help:      "Time spent in backends per finished or failed task.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"direction"}),
	}

	if source != nil {
		for _, state := range tasks.AllStates {
			factory.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "tasks",
				Help:        "Tasks currently held, by state.",
				ConstLabels: prometheus.Labels{"state": state.String()},
			}, func() float64 {
				return float64(source.Stats().Count(state))
			})
		}
	}

	return c
}

// TaskChanged counts submissions and terminal outcomes.
func (c *Collector) TaskChanged(task *tasks.ConversionTask) {
	direction := task.Direction.String()

	switch task.State {
	case tasks.StateQueued:
		c.submitted.WithLabelValues(direction).Inc()
	case tasks.StateFinished:
		c.finished.WithLabelValues(direction).Inc()
		c.observeAttempts(task)
	case tasks.StateError:
		c.failed.WithLabelValues(direction).Inc()
		c.observeAttempts(task)
	}
}

func (c *Collector) TaskRemoved(*tasks.ConversionTask) {
	c.evicted.Inc()
}

func (c *Collector) observeAttempts(task *tasks.ConversionTask) {
	var total time.Duration
	for _, a := range task.Attempts {
		outcome := "success"
		if !a.Succeeded() {
			outcome = "failure"
		}
		c.attempts.WithLabelValues(a.Backend, outcome).Inc()
		total += a.Duration
	}
	c.duration.WithLabelValues(task.Direction.String()).Observe(total.Seconds())
}

// RegisterWorkload adds gauges for the queue depth and the pool size, read
// on every scrape. A queue that cannot report its depth reads as 0.
func RegisterWorkload(reg prometheus.Registerer, q QueueSource, pool PoolSource) {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Tasks waiting for a worker.",
	}, func() float64 {
		depth, err := q.GetQueueDepth(context.Background())
		if err != nil {
			return 0
		}
		return float64(depth)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "workers",
		Help:      "Conversion workers in the pool.",
	}, func() float64 {
		return float64(pool.GetWorkerCount())
	})
}
