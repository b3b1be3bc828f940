package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.jsonl>",
		Short: "Load crawled pages into a registered dataset",
		Long: `Ingest reads one JSON page per line and writes it to the dataset.

Line format:
  {"url": "http://who.int/ebola", "text": "...", "retrieved": 1432310403, "phase": "explored", "tags": ["Relevant"]}

retrieved accepts epoch seconds or RFC 3339 and defaults to now.
phase is one of explored, exploited, boosted and defaults to explored.
Existing pages with the same URL are overwritten. Nothing is written when
any line is invalid.

Examples:
  crawlscopectl ingest -d ebola pages.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: runIngestCmd,
	}

	cmd.Flags().StringP("dataset", "d", "", "Target dataset id (must be registered)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runIngestCmd(cmd *cobra.Command, args []string) error {
	dataset, err := cmd.Flags().GetString("dataset")
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return fmt.Errorf("open pages file: %w", err)
	}
	defer func() { _ = f.Close() }()

	pages, err := parsePages(f)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages in %s", args[0])
	}

	ctx := cmd.Context()
	d, err := connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.client.Datasets().Ingest(ctx, dataset, pages); err != nil {
		return err
	}

	d.logger.Info("Pages ingested", zap.String("dataset", dataset), zap.Int("count", len(pages)))
	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d pages into %s\n", len(pages), dataset)
	return nil
}
