package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warp/financeflow/app"
	"github.com/warp/financeflow/config"
	"github.com/warp/financeflow/logging"
)

func (a *App) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API",
		Long: `Start the REST API. Settings come from the environment and an optional
.env file; flags override them.`,
		RunE: a.runServe,
	}
	cmd.Flags().String("port", "", "HTTP server port (default: $PORT or 8080)")
	cmd.Flags().String("db", "", "SQLite database path (default: $SQLITE_DB_PATH or financeflow.db)")
	cmd.Flags().String("backend", "", "Data backend: sqlite or memory (default: $DATA_BACKEND or sqlite)")
	cmd.Flags().String("env-file", ".env", "Environment file to load")
	return cmd
}

func (a *App) runServe(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	config.LoadDotEnv(envFile)
	cfg := config.Load()

	if v, _ := cmd.Flags().GetString("port"); v != "" {
		cfg.Port = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.SQLiteDBPath = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.DataBackend = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, log.WithComponent(logging.ComponentCLI)); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
