/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the dues engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, DUES_* environment, flags)
  2. Open the store (SQLite or Postgres) and migrate
  3. Create API handler, notifier and overdue sweep
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -env     Path to a .env file (default: .env, ignored when missing)
  -port    HTTP server port, overrides DUES_PORT
  -db      Database DSN, overrides DUES_DB_DSN
           Use ":memory:" for an in-memory SQLite database

ENVIRONMENT:
  DUES_PORT, DUES_DB_DRIVER (sqlite3|postgres), DUES_DB_DSN,
  DUES_LOG_LEVEL, DUES_SWEEP_SCHEDULE, DUES_SWEEP_ENABLED,
  DUES_ALLOWED_ORIGINS, DUES_SMTP_HOST, DUES_SMTP_PORT, DUES_SMTP_USER,
  DUES_SMTP_PASSWORD, DUES_SENDER_EMAIL

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the overdue sweep
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/dues.db"

  # Run against Postgres
  DUES_DB_DRIVER=postgres DUES_DB_DSN="postgres://localhost/dues?sslmode=disable" ./server

SEE ALSO:
  - config/config.go: Settings and defaults
  - api/server.go: Router configuration
  - store/sqlstore/sqlstore.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/warp/dues-engine/api"
	"github.com/warp/dues-engine/config"
	"github.com/warp/dues-engine/notify"
	"github.com/warp/dues-engine/store/sqlstore"
)

func main() {
	// Flags
	envFile := flag.String("env", ".env", "Path to .env file")
	port := flag.Int("port", 0, "HTTP server port (overrides DUES_PORT)")
	dsn := flag.String("db", "", "Database DSN (overrides DUES_DB_DSN)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dsn != "" {
		cfg.DBDSN = *dsn
	}

	logger := cfg.NewLogger()
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server failed")
	}
	logger.Info("server stopped")
}

// run serves until SIGINT/SIGTERM or a listen failure. Deferred cleanup
// runs on every return path.
func run(cfg *config.Config, logger *logrus.Logger) error {
	// Initialize store
	store, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return errors.Wrapf(err, "failed to initialize %s database", cfg.DBDriver)
	}
	defer store.Close()

	// Initialize handler and background sweep
	handler := api.NewHandler(store, logger)
	handler.Sweep = api.NewOverdueSweep(handler, notify.New(cfg.SMTP, logger), cfg.SweepSchedule)
	if cfg.SweepEnabled {
		if err := handler.Sweep.Start(); err != nil {
			return errors.Wrap(err, "failed to start overdue sweep")
		}
	}
	defer handler.Sweep.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler, cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; listen failures come back on serveErr
	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":   cfg.Port,
			"driver": cfg.DBDriver,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return errors.Wrap(err, "listen")
	}

	logger.Info("shutting down server")
	handler.Sweep.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	return nil
}
