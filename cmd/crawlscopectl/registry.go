package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <file.json>",
		Short: "Register datasets and create their search indexes",
		Long: `Register loads a registry file and stores one entry per dataset.
Each dataset gets its page and term indexes. Re-registering an existing
dataset updates its name and timestamp.

File format:
  {"entries": [{"id": "ebola", "name": "Ebola 2015", "timestamp": "2015-05-22T16:00:03Z"}]}

A missing timestamp defaults to the current time.`,
		Args: cobra.ExactArgs(1),
		RunE: runRegisterCmd,
	}
}

func runRegisterCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return fmt.Errorf("open registry file: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parseRegistry(f)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	d, err := connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	for _, e := range entries {
		created, err := d.client.Datasets().Register(ctx, e.ID, e.Name, e.Timestamp.Time)
		if err != nil {
			return fmt.Errorf("register %s: %w", e.ID, err)
		}
		action := "updated"
		if created {
			action = "registered"
		}
		d.logger.Info("Dataset "+action, zap.String("dataset", e.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", action, e.ID)
	}
	return nil
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			list, err := d.client.Datasets().List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTIMESTAMP")
			for _, ds := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ds.ID, ds.Name, ds.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <dataset>",
		Short: "Remove a dataset from the registry and drop its indexes",
		Long: `Remove deletes the registry entry and drops the dataset's indexes.
Stored pages and terms are kept, so registering the dataset again restores it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.client.Datasets().Remove(ctx, args[0]); err != nil {
				return err
			}
			d.logger.Info("Dataset removed", zap.String("dataset", args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
