// Package backend builds the calculation store used by the HTTP server and
// the durable session store used by the CLI from configuration.
package backend

import (
	"context"

	"networth/internal/session"
	"networth/internal/sheets"
)

// Backend is the calculation store handed to the HTTP server
type Backend interface {
	sheets.CalculationStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// SessionResult contains the durable session store and optional cleanup
type SessionResult struct {
	Store   session.DurableStore
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the calculation store for the server
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateSessionStore creates the durable store behind the session
	CreateSessionStore(config Config) (*SessionResult, error)
}

// BackendType represents the type of calculation backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend:
		return true
	default:
		return false
	}
}

// SessionStoreType selects the durable session store
type SessionStoreType string

const (
	FileSessionStore   SessionStoreType = "file"
	SQLiteSessionStore SessionStoreType = "sqlite"
	MemorySessionStore SessionStoreType = "memory"
)

// IsValid returns true if the session store type is valid
func (st SessionStoreType) IsValid() bool {
	switch st {
	case FileSessionStore, SQLiteSessionStore, MemorySessionStore:
		return true
	default:
		return false
	}
}
