package backend

import (
	"context"
	"time"

	"billed/internal/services"
	"billed/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is what the web server needs from a backend.
type BackendResult struct {
	// Bills saves, lists and serves bills, publishing bill.created when
	// AMQP is configured.
	Bills *services.BillService
	// Users holds the accounts checked at login.
	Users store.UserStore
	// Ready reports backend health for /readyz; nil means always ready.
	Ready func(ctx context.Context) error
	// ImageSrc is the origin serving receipt images when it is not this
	// server.
	ImageSrc string
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Remote specific
	RemoteAPIURL      string
	RemoteAPIEmail    string
	RemoteAPIPassword string
	RemoteAPITimeout  time.Duration

	// Memory backend specific
	DataDirectory string

	// BillsCreated counts successful submissions; optional.
	BillsCreated services.Counter
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	RemoteBackend BackendType = "remote"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, RemoteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
