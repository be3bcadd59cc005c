package cli

import (
	"os"
	"os/signal"
	"syscall"

	"converteasy/api"
	"converteasy/api/server"
	"converteasy/config"
	"converteasy/events"
	"converteasy/logger"
	"converteasy/metrics"
	"converteasy/statuscache"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator"
	"converteasy/tasks/queue"
	"converteasy/tasks/reaper"
	"converteasy/tasks/runners"
	"converteasy/tasks/store"
	"converteasy/tasks/workers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion HTTP service",
		Long: `Start the HTTP service. Conversions are queued and run by a pool of
workers; finished tasks are kept for task_ttl and then evicted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			// Override config from flags
			if port > 0 {
				cfg.ServerPort = port
			}
			return runServe(cmd, cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	lg := logger.New(cfg.LogLevel, nil)
	defer func() { _ = lg.Sync() }()

	lg.Info("Starting converteasy", map[string]any{
		"version":      cfg.Version,
		"port":         cfg.ServerPort,
		"log_level":    cfg.LogLevel,
		"worker_count": cfg.WorkerCount,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	taskStore := store.NewMemoryTaskStore()
	listeners := tasks.Listeners{metrics.New(reg, taskStore)}
	var closers []func() error

	if cfg.RedisURL != "" {
		client, err := statuscache.Connect(cfg.RedisURL)
		if err != nil {
			return err
		}
		listeners = append(listeners, statuscache.New(client, cfg.StatusTTL, lg))
		closers = append(closers, client.Close)
		lg.Info("Mirroring task status to Redis", map[string]any{"ttl": cfg.StatusTTL.String()})
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.Dial(cfg.KafkaBrokers, cfg.KafkaTopic, lg)
		if err != nil {
			closeAll(closers)
			return err
		}
		listeners = append(listeners, publisher)
		closers = append(closers, publisher.Close)
		lg.Info("Publishing task events", map[string]any{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaTopic,
		})
	}

	a, err := newApp(cfg, lg, taskStore, listeners, closers...)
	if err != nil {
		closeAll(closers)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("failed to close listeners", map[string]any{"error": err.Error()})
		}
	}()

	q := queue.NewMemoryQueue(cfg.QueueSize)
	defer q.Close()

	pool := workers.NewWorkerPool(cfg.WorkerCount, q, a.workflow, lg)
	pool.SetShutdownTimeout(cfg.ShutdownTimeout)
	metrics.RegisterWorkload(reg, q, pool)

	orch := orchestrator.NewOrchestrator(a.store, runners.NewAsynchronousRunner(q, a.chains), a.chains, lg,
		orchestrator.WithListener(a.listeners),
		orchestrator.WithOutputDir(cfg.OutputDir),
	)
	expiry := reaper.New(a.store, cfg.TaskTTL, cfg.ReapInterval, a.listeners, lg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool.Start(ctx)
	defer pool.Stop()
	expiry.Start(ctx)
	defer expiry.Stop()

	return server.New(orch, reg, api.Workload{Queue: q, Workers: pool}, cfg, lg).Start(ctx)
}

func closeAll(closers []func() error) {
	for _, c := range closers {
		_ = c()
	}
}
