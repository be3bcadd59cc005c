package cli

import (
	"fmt"
	"io"
	"time"

	"converteasy/config"
	"converteasy/logger"
	"converteasy/tasks"
	"converteasy/tasks/orchestrator"
	"converteasy/tasks/runners"
	"converteasy/tasks/store"

	"github.com/spf13/cobra"
)

func newConvertCommand(opts *rootOptions, direction tasks.Direction, short string) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   direction.String(),
		Short: short,
		Long: short + `.

Without --output the result is written next to the input with the matching
extension. The command exits with status 1 when every backend failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			return runConvert(cmd, cfg, direction, input, output)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "file to convert")
	cmd.Flags().StringVarP(&output, "output", "o", "", "where to write the result")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runConvert(cmd *cobra.Command, cfg *config.Config, direction tasks.Direction, input, output string) error {
	// stdout carries the progress lines, structured logs go to stderr
	lg := logger.New(cfg.LogLevel, cmd.ErrOrStderr())
	defer func() { _ = lg.Sync() }()

	progress := &progressPrinter{out: cmd.OutOrStdout()}
	a, err := newApp(cfg, lg, store.NewMemoryTaskStore(), tasks.Listeners{progress})
	if err != nil {
		return err
	}
	defer a.Close()

	orch := orchestrator.NewOrchestrator(a.store, runners.NewSynchronousRunner(a.chains, a.workflow), a.chains, lg,
		orchestrator.WithListener(a.listeners),
		orchestrator.WithOutputDir(cfg.OutputDir),
	)

	id, err := orch.Submit(cmd.Context(), orchestrator.SubmitRequest{
		Input:     input,
		Output:    output,
		Direction: direction,
	})
	if id == "" {
		return err
	}

	task, getErr := orch.GetStatus(cmd.Context(), id)
	if getErr != nil {
		return getErr
	}
	if task.State != tasks.StateFinished {
		return fmt.Errorf("conversion of %s failed: %s", task.InputRef, task.Error)
	}
	return nil
}

// progressPrinter writes one human readable line per task change.
type progressPrinter struct {
	out io.Writer
}

func (p *progressPrinter) TaskChanged(task *tasks.ConversionTask) {
	switch task.State {
	case tasks.StateQueued:
		fmt.Fprintf(p.out, "%s: %s -> %s\n", task.Direction, task.InputRef, task.OutputRef)
	case tasks.StateProcessing:
		fmt.Fprintln(p.out, "converting...")
	case tasks.StateFinished, tasks.StateError:
		for i, a := range task.Attempts {
			if a.Succeeded() {
				fmt.Fprintf(p.out, "  [%d] %s: ok (%s)\n", i+1, a.Backend, a.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(p.out, "  [%d] %s: failed: %s\n", i+1, a.Backend, a.Error)
			}
		}
		if task.State == tasks.StateFinished {
			fmt.Fprintf(p.out, "done: wrote %s with %s\n", task.OutputRef, task.Backend)
		} else {
			fmt.Fprintf(p.out, "failed: %s\n", task.Error)
		}
	}
}

func (p *progressPrinter) TaskRemoved(*tasks.ConversionTask) {}
