/*
app.go - Server assembly shared by the commands

PURPOSE:
  Turns a validated config into a running HTTP server: logger, store,
  handler, router, and graceful shutdown. cmd/server and
  `financeflow serve` both start the API through Run.

STARTUP SEQUENCE:
  1. Build the logger from LOG_LEVEL and LOG_FORMAT
  2. Open the store selected by DATA_BACKEND
  3. Create API handler and router
  4. Serve until the context is cancelled
  5. Shut down within SHUTDOWN_TIMEOUT, then close the store

SEE ALSO:
  - config/config.go: Environment settings
  - api/server.go: Router configuration
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/warp/financeflow/api"
	"github.com/warp/financeflow/config"
	"github.com/warp/financeflow/logging"
	"github.com/warp/financeflow/longterm"
	"github.com/warp/financeflow/store/memory"
	"github.com/warp/financeflow/store/sqlite"
)

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:     level,
		Component: logging.ComponentApp,
		JSON:      cfg.LogFormat == "json",
		Output:    os.Stdout,
	}), nil
}

// OpenStore opens the backend named by cfg.DataBackend.
func OpenStore(cfg *config.Config, log *logging.Logger) (longterm.Store, error) {
	log = log.WithComponent(logging.ComponentStorage)
	switch cfg.DataBackend {
	case config.BackendMemory:
		log.Info("using in-memory store")
		return memory.New(), nil
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Info("using sqlite store", "path", cfg.SQLiteDBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	store, err := OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close store", logging.FieldError, err)
		}
	}()

	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", "http://localhost"+cfg.Addr(), "api", "http://localhost"+cfg.Addr()+"/api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
