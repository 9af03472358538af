package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// PostgresStore persists records in a single key/value table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs the store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS blob_records (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure blob_records schema: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM blob_records WHERE key = $1`
	var value string
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get blob record %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put inserts or replaces the value stored under key.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO blob_records (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("put blob record %s: %w", key, err)
	}
	return nil
}

// Keys lists keys starting with prefix.
func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	const query = `SELECT key FROM blob_records WHERE key LIKE $1 ESCAPE '\' ORDER BY key ASC`
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, query, escapeLike(prefix)+"%"); err != nil {
		return nil, fmt.Errorf("list blob record keys: %w", err)
	}
	return keys, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
