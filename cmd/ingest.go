package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"projecttutor/backend/features/document"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Chunk, embed and store a PDF from disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, args[0])
		},
	}
}

func runIngest(ctx context.Context, cmd *cobra.Command, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%w: %s", document.ErrNotPDF, path)
	}

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

	doc, err := a.Documents.Ingest(ctx, filepath.Base(path), path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "doc_id=%s pages=%d chunks=%d indexed=%t\n", doc.ID, doc.PagesCount, doc.ChunkCount, doc.Indexed)
	return nil
}
