// Package storage persists session snapshots in SQLite. The schema is
// managed by embedded golang-migrate migrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"networth/internal/log"
	"networth/internal/session"
)

var (
	_ session.DurableStore = (*SQLiteRepository)(nil)
	_ session.Inventory    = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements session.DurableStore.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := r.queries.GetSnapshot(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %q: %w", key, err)
	}
	return []byte(snap.Payload), nil
}

// Put implements session.DurableStore, replacing any previous payload.
func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("empty snapshot key")
	}
	err := r.queries.UpsertSnapshot(ctx, UpsertSnapshotParams{
		Key:       key,
		Payload:   string(value),
		UpdatedAt: r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("upsert snapshot %q: %w", key, err)
	}
	r.logger.DebugContext(ctx, "Snapshot stored",
		log.FieldStoreKey, key,
		log.FieldOperation, log.OpSave)
	return nil
}

// Keys lists the stored snapshot keys in order.
func (r *SQLiteRepository) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.queries.ListSnapshotKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	return keys, nil
}

// UpdatedAt reports when key was last written.
func (r *SQLiteRepository) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	snap, err := r.queries.GetSnapshot(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, session.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get snapshot %q: %w", key, err)
	}
	return time.Parse(time.RFC3339Nano, snap.UpdatedAt)
}

// Delete removes key. Deleting a missing key returns session.ErrNotFound.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	n, err := r.queries.DeleteSnapshot(ctx, key)
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}
