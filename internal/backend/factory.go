package backend

import (
	"context"
	"fmt"
	"log/slog"

	"recorridos/internal/adapters"
	"recorridos/internal/amqp"
	"recorridos/internal/apiclient"
	"recorridos/internal/auth"
	"recorridos/internal/cache"
	"recorridos/internal/memory"
	"recorridos/internal/ports"
	"recorridos/internal/services"
	"recorridos/internal/storage"
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

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAPIBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := apiclient.New(config.APIBaseURL,
		apiclient.WithTimeout(config.APITimeout),
		apiclient.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		// The API may come up after us; readiness reports it.
		f.logger.Warn("API not reachable at startup", "base_url", config.APIBaseURL, "error", err)
	}

	// Answers depend on the caller's token; no month cache.
	svc := services.NewRecorridoService(client, f.publisher(config), 0)
	b := adapters.NewBackend(string(APIBackend), client, svc, client, adapters.WithPinger(client))

	if config.CacheTTL > 0 {
		f.logger.Info("Month cache disabled for the API backend", "cache_ttl", config.CacheTTL)
	}
	f.logger.Info("Initialized API backend", "base_url", config.APIBaseURL, "timeout", config.APITimeout)
	return f.result(b, svc, nil), nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	svc := services.NewRecorridoService(repo, f.publisher(config), config.CacheTTL)
	local := auth.NewLocal(repo, config.JWTSecret, config.TokenTTL)
	b := adapters.NewBackend(string(SQLiteBackend), repo, svc, local,
		adapters.WithVerifier(local),
		adapters.WithPinger(repo))

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return f.result(b, svc, repo.Close), nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed file: %w", err)
	}

	svc := services.NewRecorridoService(store, f.publisher(config), config.CacheTTL)
	local := auth.NewLocal(store, config.JWTSecret, config.TokenTTL)
	b := adapters.NewBackend(string(MemoryBackend), store, svc, local,
		adapters.WithVerifier(local),
		adapters.WithPinger(store))

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	return f.result(b, svc, nil), nil
}

// publisher connects to the broker when configured. Events are optional,
// so a failed connection only disables them.
func (f *DefaultFactory) publisher(config Config) services.Publisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	return client
}

func (f *DefaultFactory) result(b *adapters.Backend, svc *services.RecorridoService, closeStore func() error) *BackendResult {
	res := &BackendResult{
		Backend: b,
		Caches:  map[string]cache.Cleaner{},
		Cleanup: func() error {
			err := svc.Close()
			if closeStore != nil {
				if cerr := closeStore(); cerr != nil && err == nil {
					err = cerr
				}
			}
			return err
		},
	}
	if mc := svc.MonthCache(); mc != nil {
		res.Caches["recorridos_month"] = mc
	}
	return res
}

var (
	_ Backend         = (*adapters.Backend)(nil)
	_ ports.Store     = (*apiclient.Client)(nil)
	_ ports.Store     = (*storage.SQLiteRepository)(nil)
	_ ports.Store     = (*memory.Store)(nil)
	_ adapters.Pinger = (*apiclient.Client)(nil)
)
