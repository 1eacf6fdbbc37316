package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-meta/pkg/simplemeta"
)

type elementRow struct {
	id      uuid.UUID
	uri     string
	site    string
	section string
	typ     string
	title   string
	fields  []byte
}

type fakeRow struct {
	row elementRow
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*uuid.UUID)) = r.row.id
	*(dest[1].(*string)) = r.row.uri
	*(dest[2].(*string)) = r.row.site
	*(dest[3].(*string)) = r.row.section
	*(dest[4].(*string)) = r.row.typ
	*(dest[5].(*string)) = r.row.title
	*(dest[6].(*[]byte)) = r.row.fields
	return nil
}

// fakeDB understands the statements the store issues.
type fakeDB struct {
	rows map[uuid.UUID]elementRow
	err  error
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[uuid.UUID]elementRow{}}
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if db.err != nil {
		return pgconn.CommandTag{}, db.err
	}
	sql = strings.TrimSpace(sql)
	switch {
	case strings.HasPrefix(sql, "CREATE TABLE"):
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case strings.HasPrefix(sql, "INSERT INTO meta_elements"):
		id := args[0].(uuid.UUID)
		db.rows[id] = elementRow{
			id:      id,
			uri:     args[1].(string),
			site:    args[2].(string),
			section: args[3].(string),
			typ:     args[4].(string),
			title:   args[5].(string),
			fields:  args[6].([]byte),
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE FROM meta_elements"):
		id := args[0].(uuid.UUID)
		if _, ok := db.rows[id]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(db.rows, id)
		return pgconn.NewCommandTag("DELETE 1"), nil
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
	switch {
	case strings.HasSuffix(sql, "WHERE id = $1"):
		if row, ok := db.rows[args[0].(uuid.UUID)]; ok {
			return fakeRow{row: row}
		}
	case strings.HasSuffix(sql, "WHERE site = $1 AND uri = $2"):
		for _, row := range db.rows {
			if row.site == args[0].(string) && row.uri == args[1].(string) {
				return fakeRow{row: row}
			}
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func sampleEntry() *simplemeta.Entry {
	return &simplemeta.Entry{
		URI:     "/blog/hello/",
		Section: "blog",
		Type:    "article",
		Title:   "Hello",
		Fields: map[string]any{
			"summary":   simplemeta.Markdown("A *short* summary"),
			"body":      simplemeta.RichText("<p>Body</p>"),
			"heroImage": &simplemeta.Image{URL: "https://cdn.example.com/hero.jpg", Width: 1200, FocalPoint: &simplemeta.FocalPoint{X: 0.5, Y: 0.25}},
			"tags":      []string{"go", "seo"},
			"url":       "https://example.com/not-an-image",
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	store := New(db, "default")
	require.NoError(t, store.EnsureSchema(ctx))

	entry := sampleEntry()
	require.NoError(t, store.Upsert(ctx, entry))
	require.NotEqual(t, uuid.Nil, entry.EntryID)
	assert.Equal(t, "blog/hello", db.rows[entry.EntryID].uri)
	assert.Equal(t, "default", db.rows[entry.EntryID].site)

	el, err := store.Element(ctx, entry.EntryID)
	require.NoError(t, err)
	got := el.(*simplemeta.Entry)

	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, []string{"blog:article", "blog"}, got.ProfileHandles())
	assert.Equal(t, simplemeta.Markdown("A *short* summary"), got.Fields["summary"])
	assert.Equal(t, simplemeta.RichText("<p>Body</p>"), got.Fields["body"])
	assert.Equal(t, []string{"go", "seo"}, got.Fields["tags"])
	assert.Equal(t, "https://example.com/not-an-image", got.Fields["url"])

	hero, ok := got.Fields["heroImage"].(*simplemeta.Image)
	require.True(t, ok)
	assert.Equal(t, 1200, hero.Width)
	require.NotNil(t, hero.FocalPoint)
	assert.Equal(t, "50% 25%", hero.FocalPoint.Position())
}

func TestStoreByURI(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	store := New(db, "default")
	require.NoError(t, store.Upsert(ctx, sampleEntry()))

	el, err := store.ElementByURI(ctx, "/blog/hello?ref=feed")
	require.NoError(t, err)
	title, _ := el.Lookup("title")
	assert.Equal(t, "Hello", title)

	other := New(db, "other")
	_, err = other.ElementByURI(ctx, "blog/hello")
	assert.ErrorIs(t, err, simplemeta.ErrElementNotFound)

	el, err = store.MatchedElement(simplemeta.WithRequestURI(ctx, "/blog/hello"))
	require.NoError(t, err)
	assert.NotNil(t, el)

	el, err = store.MatchedElement(ctx)
	require.NoError(t, err)
	assert.Nil(t, el)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := New(newFakeDB(), "default")
	entry := sampleEntry()
	require.NoError(t, store.Upsert(ctx, entry))

	require.NoError(t, store.Delete(ctx, entry.EntryID))
	assert.ErrorIs(t, store.Delete(ctx, entry.EntryID), simplemeta.ErrElementNotFound)

	_, err := store.Element(ctx, entry.EntryID)
	assert.ErrorIs(t, err, simplemeta.ErrElementNotFound)
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "missing table",
			err:      &pgconn.PgError{Code: "42P01"},
			contains: "run EnsureSchema",
		},
		{
			name:     "uri taken",
			err:      &pgconn.PgError{Code: "23505", ConstraintName: "meta_elements_uri_key"},
			contains: "already uses this uri",
		},
		{
			name:     "not null",
			err:      &pgconn.PgError{Code: "23502", ColumnName: "uri"},
			contains: "required field uri",
		},
		{
			name:     "connection error",
			err:      errors.New("connection refused"),
			contains: "database error in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newFakeDB()
			db.err = tt.err
			store := New(db, "default")

			err := store.Upsert(ctx, sampleEntry())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.ErrorIs(t, err, tt.err)

			_, err = store.Element(ctx, uuid.New())
			require.Error(t, err)
			assert.NotErrorIs(t, err, simplemeta.ErrElementNotFound)
		})
	}
}
