package backend

import (
	"fmt"
	"time"

	"networth/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Read cache in front of the calculation store
	CacheSize int
	CacheTTL  time.Duration

	// Optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Session persistence
	SessionStore SessionStoreType
	SessionDir   string
	SQLiteDBPath string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:      backendType,
		CacheSize: appConfig.CacheSize,
		CacheTTL:  appConfig.CacheTTL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		SessionStore: SessionStoreType(appConfig.SessionStore),
		SessionDir:   appConfig.SessionDir,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache size must be at least 1, got %d", c.CacheSize)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", c.CacheTTL)
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// ValidateSession validates the session store part of the configuration
func (c Config) ValidateSession() error {
	if !c.SessionStore.IsValid() {
		return fmt.Errorf("invalid session store: %s", c.SessionStore)
	}

	switch c.SessionStore {
	case SQLiteSessionStore:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite session store")
		}
	case FileSessionStore:
		if c.SessionDir == "" {
			return fmt.Errorf("session directory is required for file session store")
		}
	case MemorySessionStore:
		// Nothing to check
	}
	return nil
}

