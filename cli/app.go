package cli

import (
	"fmt"

	"converteasy/config"
	"converteasy/document"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/fallback"
	"converteasy/tasks/orchestrator/execution"
	"converteasy/tasks/registry"
	"converteasy/tasks/store"

	"go.uber.org/multierr"
)

// app is the part of the wiring shared by the server and the one-shot
// commands: the store, the backend chains and the execution workflow.
type app struct {
	cfg       *config.Config
	logger    *logger.Logger
	store     *store.MemoryTaskStore
	chains    *registry.BackendRegistry
	workflow  execution.ExecutionWorkflow
	listeners tasks.Listeners
	closers   []func() error
}

func newApp(cfg *config.Config, lg *logger.Logger, s *store.MemoryTaskStore, listeners tasks.Listeners, closers ...func() error) (*app, error) {
	chunker := document.NewChunker(cfg.ChunkMaxLen, cfg.ChunkThreshold)
	chains, err := registry.NewFromNames(cfg.DirectionChains(), chunker)
	if err != nil {
		return nil, fmt.Errorf("backend chains: %w", err)
	}

	for _, d := range chains.Directions() {
		lg.Debug("backend chain", map[string]any{
			"direction": d.String(),
			"backends":  chains.Names(d),
		})
	}

	workflow := execution.NewDefaultExecutionWorkflow(
		chains,
		fallback.NewConverter(lg, cfg.BackendTimeout),
		execution.NewDefaultStateManager(s, listeners, lg),
		execution.NewDefaultResultHandler(),
		lg,
	)

	return &app{
		cfg:       cfg,
		logger:    lg,
		store:     s,
		chains:    chains,
		workflow:  workflow,
		listeners: listeners,
		closers:   closers,
	}, nil
}

// Close releases the listener connections in reverse order of creation.
func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	return err
}
