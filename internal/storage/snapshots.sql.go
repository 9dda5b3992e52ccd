package storage

import (
	"context"
)

type SessionSnapshot struct {
	Key       string
	Payload   string
	UpdatedAt string
}

const getSnapshot = `
SELECT key, payload, updated_at FROM session_snapshots WHERE key = ?
`

func (q *Queries) GetSnapshot(ctx context.Context, key string) (SessionSnapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot, key)
	var i SessionSnapshot
	err := row.Scan(&i.Key, &i.Payload, &i.UpdatedAt)
	return i, err
}

const upsertSnapshot = `
INSERT INTO session_snapshots (key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`

type UpsertSnapshotParams struct {
	Key       string
	Payload   string
	UpdatedAt string
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot, arg.Key, arg.Payload, arg.UpdatedAt)
	return err
}

const listSnapshotKeys = `
SELECT key FROM session_snapshots ORDER BY key
`

func (q *Queries) ListSnapshotKeys(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshotKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		items = append(items, key)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteSnapshot = `
DELETE FROM session_snapshots WHERE key = ?
`

func (q *Queries) DeleteSnapshot(ctx context.Context, key string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSnapshot, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
