package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crawlscope/internal/config"
	logpkg "github.com/kailas-cloud/crawlscope/internal/logger"
	"github.com/kailas-cloud/crawlscope/internal/version"
	crawlscope "github.com/kailas-cloud/crawlscope/pkg/sdk"
)

// NewRootCmd creates the root command for crawlscopectl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawlscopectl",
		Short: "Operator tooling for crawlscope datasets",
		Long: `crawlscopectl manages the dataset registry used by the crawlscope API
and loads crawled pages into a registered dataset.

Connection settings come from config/<env>.yaml, the same file the server reads.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("env", config.GetEnv(), "Config environment (local, dev, prod)")

	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewRemoveCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crawlscopectl version %s\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date)
		},
	}
}

// deps holds what a command works with.
type deps struct {
	logger *zap.Logger
	client *crawlscope.Client
}

func (d *deps) Close() {
	d.client.Close()
	_ = d.logger.Sync()
}

// connect loads config for the --env flag and opens an SDK client against
// the same keyspace the server uses.
func connect(ctx context.Context, cmd *cobra.Command) (*deps, error) {
	env, err := cmd.Flags().GetString("env")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	client, err := crawlscope.New(ctx,
		crawlscope.WithAddrs(cfg.Database.Addrs...),
		crawlscope.WithCredentials(cfg.Database.Username, cfg.Database.Password),
		crawlscope.WithDB(cfg.Database.DB),
		crawlscope.WithKeyPrefix(cfg.Storage.KeyPrefix),
		crawlscope.WithReadinessTimeout(time.Duration(cfg.Database.ReadinessTimeout)*time.Second),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))

	return &deps{logger: logger, client: client}, nil
}
