package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"converteasy/config"
	apperrors "converteasy/errors"
	"converteasy/logger"
	"converteasy/statuscache"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the status a running service mirrored to Redis",
		Long: `Read a task's status from the Redis mirror written by "serve". Requires
redis_url. Entries disappear when the task is removed or status_ttl passes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, err := uuid.Parse(id); err != nil {
				return fmt.Errorf("invalid task id %q", id)
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return stderrors.New("status needs redis_url to be configured")
			}

			client, err := statuscache.Connect(cfg.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			cache := statuscache.New(client, cfg.StatusTTL, logger.New(cfg.LogLevel, cmd.ErrOrStderr()))
			return printStatus(cmd.Context(), cmd.OutOrStdout(), cache, id)
		},
	}
}

func printStatus(ctx context.Context, out io.Writer, cache *statuscache.StatusCache, id string) error {
	entry, err := cache.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("no status for task %s: unknown, removed or expired", id)
		}
		return err
	}

	fmt.Fprintf(out, "%s: %s %s\n", id, entry.Direction, entry.State)
	if entry.Backend != "" {
		fmt.Fprintf(out, "backend: %s\n", entry.Backend)
	}
	if entry.Error != "" {
		fmt.Fprintf(out, "error: %s\n", entry.Error)
	}
	fmt.Fprintf(out, "updated: %s\n", entry.UpdatedAt.UTC().Format(time.RFC3339))
	return nil
}
