package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"projecttutor/backend/internal/app"
	"projecttutor/backend/internal/config"
	"projecttutor/backend/internal/logger"
)

// NewRootCmd builds the tutor command tree. Without a subcommand it serves
// the HTTP API.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tutor",
		Short:         "Study companion backend for PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newIngestCmd(), newReindexCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// setup loads the config and installs the JSON logger as the default.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	l := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(l)
	return cfg, l, nil
}

// build bootstraps the backing services and wires the application.
func build(ctx context.Context, cfg *config.Config, l *slog.Logger) (*app.App, *app.Dependencies, error) {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, deps.DB, deps.Documents, deps.VectorStore, deps.NSQProducer, l, nil)
	if err != nil {
		deps.Close(ctx)
		return nil, nil, err
	}
	return a, deps, nil
}
