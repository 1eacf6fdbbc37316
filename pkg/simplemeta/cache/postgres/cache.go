package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// Schema creates the cache table.
const Schema = `
CREATE TABLE IF NOT EXISTS meta_cache (
	cache_key  TEXT PRIMARY KEY,
	bag        JSONB NOT NULL,
	expires_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Cache implements simplemeta.Cache on a PostgreSQL table
type Cache struct {
	db  DBTX
	now func() time.Time
}

// New creates a new PostgreSQL cache
func New(db DBTX) *Cache {
	return &Cache{db: db, now: time.Now}
}

// NewWithPool creates a new PostgreSQL cache with connection pool
func NewWithPool(pool *pgxpool.Pool) *Cache {
	return New(pool)
}

// EnsureSchema creates the cache table when it does not exist
func (c *Cache) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("create schema", err)
	}
	return nil
}

// Get loads a bag. Expired rows are misses and are left for Purge.
func (c *Cache) Get(ctx context.Context, key string) (*simplemeta.Bag, bool, error) {
	query := `SELECT bag FROM meta_cache WHERE cache_key = $1 AND (expires_at IS NULL OR expires_at > $2)`

	var raw []byte
	err := c.db.QueryRow(ctx, query, key, c.now()).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, handlePostgresError("get cached meta", err)
	}

	bag := simplemeta.NewBag()
	if err := json.Unmarshal(raw, bag); err != nil {
		return nil, false, fmt.Errorf("decode cached meta %s: %w", key, err)
	}
	return bag, true, nil
}

// Set upserts a bag. A zero ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, bag *simplemeta.Bag, ttl time.Duration) error {
	raw, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("encode meta %s: %w", key, err)
	}

	now := c.now()
	var expiresAt *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	query := `
		INSERT INTO meta_cache (cache_key, bag, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE
		SET bag = EXCLUDED.bag, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`

	if _, err := c.db.Exec(ctx, query, key, raw, expiresAt, now); err != nil {
		return handlePostgresError("set cached meta", err)
	}
	return nil
}

// Delete removes a cached bag
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.Exec(ctx, `DELETE FROM meta_cache WHERE cache_key = $1`, key); err != nil {
		return handlePostgresError("delete cached meta", err)
	}
	return nil
}

// Purge removes expired rows and reports how many were dropped
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	tag, err := c.db.Exec(ctx, `DELETE FROM meta_cache WHERE expires_at IS NOT NULL AND expires_at <= $1`, c.now())
	if err != nil {
		return 0, handlePostgresError("purge cached meta", err)
	}
	return tag.RowsAffected(), nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("table meta_cache does not exist - run EnsureSchema: %w", err)
		case "22P02", "22023": // invalid_text_representation, invalid_parameter_value
			return fmt.Errorf("invalid cached meta in %s: %w", operation, err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s): %w", operation, pgErr.Message, pgErr.Code, err)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}
