package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KVRepository is a small persistent key-value store used for process-wide
// shared state that must survive restarts and work across replicas, such as
// the revoked-token blacklist. Entries may carry an expiry.
type KVRepository struct {
	db *pgxpool.Pool
}

// NewKVRepository creates a new KVRepository.
func NewKVRepository(db *pgxpool.Pool) *KVRepository {
	return &KVRepository{db: db}
}

// Get retrieves a value by key. Expired entries read as missing.
func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT value FROM kv_store
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`
	var value string
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get kv entry: %w", err)
	}
	return value, true, nil
}

// Set inserts or updates a key. A zero ttl means the entry never expires.
func (r *KVRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires any
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	query := `
		INSERT INTO kv_store (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, key, value, expires)
	if err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

// Delete removes a key.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv entry: %w", err)
	}
	return nil
}

// PurgeExpired removes entries past their expiry.
func (r *KVRepository) PurgeExpired(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < NOW()`)
	if err != nil {
		return fmt.Errorf("failed to purge kv store: %w", err)
	}
	return nil
}
