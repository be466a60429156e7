package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLDB is the subset of *database.DB the SQLite backend needs.
type SQLDB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// SQLiteBackend stores blobs as rows of the storage_blobs table.
// The table is created by the embedded migrations.
type SQLiteBackend struct {
	db SQLDB
}

// NewSQLiteBackend returns a backend over db.
func NewSQLiteBackend(db SQLDB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

// Read implements Backend.
func (b *SQLiteBackend) Read(ctx context.Context, key string) (Blob, bool, error) {
	var (
		blob Blob
		data string
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT version, data FROM storage_blobs WHERE key = ?", key,
	).Scan(&blob.Version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, false, nil
	}
	if err != nil {
		return Blob{}, false, fmt.Errorf("querying storage_blobs: %w", err)
	}
	blob.Data = []byte(data)
	return blob, true, nil
}

// Write implements Backend. The upsert runs in its own transaction.
func (b *SQLiteBackend) Write(ctx context.Context, key string, blob Blob) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO storage_blobs (key, version, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		key, blob.Version, string(blob.Data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting storage_blobs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing storage_blobs: %w", err)
	}
	return nil
}
