package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
	"github.com/joseph-ayodele/forms-intake/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "formsctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formsctl",
		Short: "Operate the forms-intake database and workflow from the command line",
		Long: `formsctl runs schema migrations, checks database health, looks submissions up, exports them
to XLSX, and pushes local files through the same workflow as the HTTP upload endpoint.`,
		SilenceUsage: true,
	}
	common.RegisterFlags(cmd.PersistentFlags())
	cmd.AddCommand(
		newMigrateCmd(),
		newDBHealthCmd(),
		newStatusCmd(),
		newRevalidateCmd(),
		newExportCmd(),
		newProcessCmd(),
		newWatchCmd(),
		newOCRCmd(),
		newSamplesCmd(),
	)
	return cmd
}

// env is what most subcommands need: config, a logger on stderr and an open database.
type env struct {
	cfg    *common.Config
	logger *slog.Logger
	db     *repository.DB
}

func loadConfig(cmd *cobra.Command) (*common.Config, *slog.Logger, error) {
	cfg, err := common.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, common.NewLogger(cmd.ErrOrStderr(), cfg.App).With("component", "formsctl"), nil
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	db, err := server.ConnectDB(cmd.Context(), cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) Close() { server.CloseDB(e.db, e.logger) }

// services builds the full application graph; the schema is created first on SQLite.
func (e *env) services(ctx context.Context) (*server.Services, error) {
	if repository.IsSQLiteDSN(e.cfg.Database.DSN) {
		if err := repository.Migrate(ctx, e.db); err != nil {
			return nil, err
		}
	}
	return server.NewServices(ctx, e.cfg, e.db, e.logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			start := time.Now()
			if err := repository.Migrate(cmd.Context(), e.db); err != nil {
				return err
			}
			e.logger.Info("schema migrated", "dialect", e.db.Dialect, "elapsed_ms", time.Since(start).Milliseconds())
			return nil
		},
	}
}

func newDBHealthCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := server.PingDB(cmd.Context(), e.db, e.logger, timeout); err != nil {
				return fmt.Errorf("database unhealthy: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DB OK")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Ping timeout")
	return cmd
}
