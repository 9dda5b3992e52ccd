package backend

import (
	"context"
	"errors"
	"fmt"

	"networth/internal/amqp"
	"networth/internal/cache"
	"networth/internal/core"
	"networth/internal/log"
	"networth/internal/services"
	"networth/internal/session"
	"networth/internal/sheets/memory"
	"networth/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	caches *cache.Manager
}

// NewFactory creates a new backend factory. Caches it creates are
// registered with caches when it is non-nil.
func NewFactory(logger *log.Logger, caches *cache.Manager) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		caches: caches,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	lru := cache.NewLRUCache[core.NetWorthCalculation](config.CacheSize, config.CacheTTL)
	if f.caches != nil {
		f.caches.Register(lru)
	}
	store := services.NewCachedStore(memory.New(), lru)

	// Initialize AMQP client (optional)
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", log.FieldError, err)
			amqpClient = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	var publisher services.Publisher
	cleanup := func() error { return nil }
	if amqpClient != nil {
		publisher = amqpClient
		cleanup = amqpClient.Close
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"cache_size", config.CacheSize,
		"cache_ttl", config.CacheTTL.String(),
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend: services.NewCalculationService(store, publisher, f.logger),
		Cleanup: cleanup,
	}, nil
}

// CreateSessionStore implements Factory.CreateSessionStore
func (f *DefaultFactory) CreateSessionStore(config Config) (*SessionResult, error) {
	if err := config.ValidateSession(); err != nil {
		return nil, err
	}

	switch config.SessionStore {
	case FileSessionStore:
		fs, err := session.NewFileStore(config.SessionDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file session store: %w", err)
		}
		f.logger.Debug("Initialized file session store", "dir", fs.Dir())
		return &SessionResult{Store: fs}, nil

	case SQLiteSessionStore:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Debug("Initialized SQLite session store", "db_path", config.SQLiteDBPath)
		return &SessionResult{Store: repo, Cleanup: repo.Close}, nil

	case MemorySessionStore:
		return &SessionResult{Store: session.NewMemoryStore()}, nil
	}
	return nil, errors.New("unreachable session store type")
}
