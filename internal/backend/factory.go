package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"billed/internal/events"
	"billed/internal/services"
	"billed/internal/store/memory"
	"billed/internal/store/remote"
	"billed/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case RemoteBackend:
		return f.createRemoteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional: without it bills are still exported by the worker's
	// periodic sweep.
	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := events.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without publishing", "error", err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	bills := services.NewBillService(repo, publisher).WithCreatedCounter(config.BillsCreated)
	bills.OnClose(repo.Close)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Bills:   bills,
		Users:   repo,
		Ready:   repo.Ping,
		Cleanup: bills.Close,
	}, nil
}

// createRemoteBackend talks to the Billed REST API for bills. Accounts are
// the demo accounts of the memory store since the API authenticates the
// server, not the employee.
func (f *DefaultFactory) createRemoteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	origin, err := apiOrigin(config.RemoteAPIURL)
	if err != nil {
		return nil, err
	}
	client := remote.New(remote.Config{
		BaseURL:  config.RemoteAPIURL,
		Email:    config.RemoteAPIEmail,
		Password: config.RemoteAPIPassword,
		Timeout:  config.RemoteAPITimeout,
	})
	bills := services.NewBillService(client, nil).WithCreatedCounter(config.BillsCreated)

	f.logger.InfoContext(ctx, "Initialized remote backend", "api_url", config.RemoteAPIURL)

	return &BackendResult{
		Bills:    bills,
		Users:    memory.NewFromFiles(dataDir(config)),
		ImageSrc: origin,
		Cleanup:  bills.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dir := dataDir(config)
	store := memory.NewFromFiles(dir)
	bills := services.NewBillService(store, nil).WithCreatedCounter(config.BillsCreated)

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dir)

	return &BackendResult{
		Bills:    bills,
		Users:    store,
		ImageSrc: receiptOrigins(ctx, store),
		Cleanup:  bills.Close,
	}, nil
}

// receiptOrigins lists the hosts of seeded receipts that live off-site,
// space separated.
func receiptOrigins(ctx context.Context, s *memory.Store) string {
	bills, err := s.List(ctx)
	if err != nil {
		return ""
	}
	var origins []string
	seen := make(map[string]bool)
	for _, b := range bills {
		origin, err := apiOrigin(b.FileURL)
		if err != nil || seen[origin] {
			continue
		}
		seen[origin] = true
		origins = append(origins, origin)
	}
	return strings.Join(origins, " ")
}

func dataDir(config Config) string {
	if config.DataDirectory == "" {
		return "data"
	}
	return config.DataDirectory
}

// apiOrigin returns scheme://host of the API, the CSP source of its
// receipt images.
func apiOrigin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid remote API URL: %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
