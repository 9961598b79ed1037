// Package cli holds the start-up steps shared by cmd/rateio and
// cmd/rateio-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rateio/internal/backend"
	"rateio/internal/config"
	"rateio/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	return log.Setup(cfg.LogLevel, cfg.LogFormat)
}

// LoadAndValidateConfig loads configuration, sets up logging and runs
// validate against the result. Exits the process on validation failure.
func LoadAndValidateConfig(validate func(*config.Config) error) (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg)
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend creates the configured store and publisher.
// Exits the process when the store cannot be opened.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	blog := logger.WithComponent(log.ComponentBackend)
	result, err := backend.NewFactory(blog.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		blog.Error("Failed to initialize backend", log.FieldError, err, "type", bcfg.Type)
		os.Exit(1)
	}
	blog.Info("Backend ready", "type", bcfg.Type, "sync_enabled", result.Publisher != nil)
	return result
}

// GracefulShutdown returns a context cancelled on SIGINT, SIGTERM or when
// parent is done. After that, cleanup runs with a context bounded by timeout
// and the returned channel is closed when it returns.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached", "timeout", timeout)
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
