package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReindexCmd() *cobra.Command {
	var queue bool
	cmd := &cobra.Command{
		Use:   "reindex <document_id>",
		Short: "Re-embed a stored document's chunks into the vector index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(cmd.Context(), cmd, args[0], queue)
		},
	}
	cmd.Flags().BoolVar(&queue, "queue", false, "publish an index task instead of indexing in this process")
	return cmd
}

func runReindex(ctx context.Context, cmd *cobra.Command, id string, queue bool) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	a, deps, err := build(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())
	defer func() { _ = a.Close() }()

	if queue {
		if err := a.Documents.RequestReindex(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", id)
		return nil
	}
	if err := a.Documents.Reindex(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %s\n", id)
	return nil
}
