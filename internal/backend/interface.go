// Package backend wires the configured table store and the optional AMQP
// publisher.
package backend

import (
	"context"

	"rateio/internal/ports"
	"rateio/internal/services"
)

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (t BackendType) String() string { return string(t) }

func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store, the optional publisher and a cleanup function.
type BackendResult struct {
	Store ports.Store
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}
