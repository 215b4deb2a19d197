/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the presence engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment / .env)
  2. Build the structured logger
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Start the payroll scheduler
  6. Start server with graceful shutdown

ENVIRONMENT:
  PORT          HTTP server port (default: 8080)
  DB_PATH       SQLite database path (default: presence.db, ":memory:" works)
  BRANCH_NAME   Office branch name (default: "Main Office")
  PAYROLL_CRON  Cron expression for the monthly payroll run

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Monthly payroll job
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atlas-hr/presence-engine/api"
	"github.com/atlas-hr/presence-engine/config"
	"github.com/atlas-hr/presence-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	handler := api.NewHandler(store, cfg.BranchName, logger)
	router := api.NewRouter(handler)

	scheduler := api.NewPayrollScheduler(handler.Runner, store, cfg.PayrollCron, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start payroll scheduler", zap.Error(err))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("branch", cfg.BranchName),
			zap.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	scheduler.Stop()

	logger.Info("server stopped")
}

// newLogger builds the production JSON logger with ISO8601 timestamps.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
