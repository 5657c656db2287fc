/*
main.go - Application entry point

PURPOSE:
  Starts the household planner API server. Configuration comes from the
  environment (and an optional .env file); flags override it.

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: $PORT or 8080)
  -db      SQLite database path (default: $SQLITE_DB_PATH or financeflow.db)
           Use ":memory:" for an in-memory SQLite database

ENVIRONMENT:
  PORT, CORS_ORIGINS, SHUTDOWN_TIMEOUT, DATA_BACKEND (sqlite|memory),
  SQLITE_DB_PATH, LOG_LEVEL, LOG_FORMAT (text|json)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SHUTDOWN_TIMEOUT)
  3. Close the store
  4. Exit

EXAMPLES:
  ./server -db="./data/financeflow.db"
  DATA_BACKEND=memory ./server -port=3000

SEE ALSO:
  - app/app.go: Server assembly
  - config/config.go: Environment settings
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/financeflow/app"
	"github.com/warp/financeflow/config"
	"github.com/warp/financeflow/logging"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.SQLiteDBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.SQLiteDBPath = *dbPath

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error("server exited", logging.FieldError, err)
		os.Exit(1)
	}
}
