package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-meta/pkg/simplemeta"
)

type fakeRow struct {
	raw []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.raw
	return nil
}

type storedRow struct {
	raw       []byte
	expiresAt *time.Time
}

// fakeDB understands the statements the cache issues.
type fakeDB struct {
	rows map[string]storedRow
	err  error
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[string]storedRow{}}
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if db.err != nil {
		return pgconn.CommandTag{}, db.err
	}
	sql = strings.TrimSpace(sql)
	switch {
	case strings.HasPrefix(sql, "CREATE TABLE"):
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case strings.HasPrefix(sql, "INSERT INTO meta_cache"):
		db.rows[args[0].(string)] = storedRow{raw: args[1].([]byte), expiresAt: args[2].(*time.Time)}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE FROM meta_cache WHERE cache_key"):
		delete(db.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	case strings.HasPrefix(sql, "DELETE FROM meta_cache WHERE expires_at"):
		now := args[0].(time.Time)
		var n int
		for k, row := range db.rows {
			if row.expiresAt != nil && !row.expiresAt.After(now) {
				delete(db.rows, k)
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected statement: %s", sql)
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if db.err != nil {
		return fakeRow{err: db.err}
	}
	row, ok := db.rows[args[0].(string)]
	now := args[1].(time.Time)
	if !ok || (row.expiresAt != nil && !row.expiresAt.After(now)) {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{raw: row.raw}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	cache := New(db)
	require.NoError(t, cache.EnsureSchema(ctx))

	bag := simplemeta.BagOf(
		"title", "Hello",
		"og:image", "https://cdn.example.com/a.jpg",
		"keywords", []string{"go", "seo"},
	)
	require.NoError(t, cache.Set(ctx, "k", bag, time.Hour))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bag.Keys(), got.Keys())
	assert.Equal(t, bag.Map(), got.Map())

	require.NoError(t, cache.Delete(ctx, "k"))
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheExpiryAndPurge(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	cache := New(db)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", simplemeta.BagOf("title", "a"), time.Minute))
	require.NoError(t, cache.Set(ctx, "forever", simplemeta.BagOf("title", "b"), 0))
	assert.Nil(t, db.rows["forever"].expiresAt)

	now = now.Add(2 * time.Minute)
	_, ok, err := cache.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	purged, err := cache.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, ok, err = cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "missing table",
			err:      &pgconn.PgError{Code: "42P01", Message: "relation \"meta_cache\" does not exist"},
			contains: "run EnsureSchema",
		},
		{
			name:     "other postgres error",
			err:      &pgconn.PgError{Code: "53300", Message: "too many connections"},
			contains: "too many connections (code: 53300)",
		},
		{
			name:     "connection error",
			err:      errors.New("connection refused"),
			contains: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newFakeDB()
			db.err = tt.err
			cache := New(db)

			_, _, err := cache.Get(ctx, "k")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.ErrorIs(t, err, tt.err)

			err = cache.Set(ctx, "k", simplemeta.BagOf("title", "x"), 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCacheCorruptRow(t *testing.T) {
	db := newFakeDB()
	db.rows["k"] = storedRow{raw: []byte(`["not", "an", "object"]`)}
	cache := New(db)

	_, ok, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}
