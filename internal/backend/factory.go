package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rateio/internal/amqp"
	"rateio/internal/memory"
	"rateio/internal/ports"
	"rateio/internal/storage"
	"rateio/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store selected by config.Type and, when an AMQP URL
// is set, a publisher. An unreachable broker degrades to no publisher.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, closeStore, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store}
	closers := []func() error{closeStore}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			closers = append(closers, client.Close)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", result.Publisher != nil)
	return result, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (ports.Store, func() error, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil

	case PostgresBackend:
		store, err := postgres.New(ctx, config.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return store, store.Close, nil

	case MemoryBackend:
		f.logger.Info("Using in-memory store; data is lost on restart")
		return memory.New(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
