package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"projecttutor/backend/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the index worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	return Serve(ctx, cfg, l)
}

// Serve runs until ctx is done. ENABLE_API and ENABLE_INDEX_WORKER choose
// which halves of the process start.
func Serve(ctx context.Context, cfg *config.Config, l *slog.Logger) error {
	a, deps, err := build(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())
	defer func() { _ = a.Close() }()

	if cfg.EnableIndexWorker {
		consumer, err := a.StartIndexWorker(cfg.NSQLookupd, cfg.NSQDHost)
		if err != nil {
			return err
		}
		defer func() {
			consumer.Stop()
			<-consumer.StopChan
		}()
	}

	if cfg.EnableAPI {
		return a.Run(ctx)
	}

	l.Info("api disabled, running index worker only")
	<-ctx.Done()
	return nil
}
