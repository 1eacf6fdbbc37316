package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// Schema creates the element table.
const Schema = `
CREATE TABLE IF NOT EXISTS meta_elements (
	id         UUID PRIMARY KEY,
	uri        TEXT NOT NULL,
	site       TEXT NOT NULL DEFAULT '',
	section    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	fields     JSONB NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT meta_elements_uri_key UNIQUE (site, uri)
)`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements simplemeta.ElementStore using PostgreSQL
type Store struct {
	db   DBTX
	site string
}

// New creates a new PostgreSQL element store for one site handle
func New(db DBTX, site string) *Store {
	return &Store{db: db, site: site}
}

// NewWithPool creates a new PostgreSQL element store with connection pool
func NewWithPool(pool *pgxpool.Pool, site string) *Store {
	return New(pool, site)
}

// EnsureSchema creates the element table when it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("create schema", err)
	}
	return nil
}

const selectEntry = `SELECT id, uri, site, section, type, title, fields FROM meta_elements`

func scanEntry(row pgx.Row) (*simplemeta.Entry, error) {
	var e simplemeta.Entry
	var raw []byte
	if err := row.Scan(&e.EntryID, &e.URI, &e.Site, &e.Section, &e.Type, &e.Title, &raw); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode fields of %s: %w", e.EntryID, err)
		}
		e.Fields = make(map[string]any, len(fields))
		for k, v := range fields {
			e.Fields[k] = simplemeta.NormalizeFieldValue(v)
		}
	}
	return &e, nil
}

// Element loads an entry by id
func (s *Store) Element(ctx context.Context, id uuid.UUID) (simplemeta.Element, error) {
	e, err := scanEntry(s.db.QueryRow(ctx, selectEntry+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplemeta.ErrElementNotFound
		}
		return nil, handlePostgresError("get element", err)
	}
	return e, nil
}

// ElementByURI loads the entry of this store's site served at uri
func (s *Store) ElementByURI(ctx context.Context, uri string) (simplemeta.Element, error) {
	e, err := scanEntry(s.db.QueryRow(ctx, selectEntry+` WHERE site = $1 AND uri = $2`, s.site, simplemeta.NormalizeURI(uri)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplemeta.ErrElementNotFound
		}
		return nil, handlePostgresError("get element by uri", err)
	}
	return e, nil
}

// MatchedElement routes the request URI carried by ctx
func (s *Store) MatchedElement(ctx context.Context) (simplemeta.Element, error) {
	uri, ok := simplemeta.RequestURIFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return s.ElementByURI(ctx, uri)
}

// Upsert inserts or replaces an entry. Entries without an id get one.
func (s *Store) Upsert(ctx context.Context, e *simplemeta.Entry) error {
	if e.EntryID == uuid.Nil {
		e.EntryID = uuid.New()
	}
	if e.Site == "" {
		e.Site = s.site
	}
	e.URI = simplemeta.NormalizeURI(e.URI)

	fields := make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = simplemeta.EncodeFieldValue(v)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields of %s: %w", e.EntryID, err)
	}

	query := `
		INSERT INTO meta_elements (id, uri, site, section, type, title, fields, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE
		SET uri = EXCLUDED.uri, site = EXCLUDED.site, section = EXCLUDED.section,
		    type = EXCLUDED.type, title = EXCLUDED.title, fields = EXCLUDED.fields,
		    updated_at = now()`

	if _, err := s.db.Exec(ctx, query, e.EntryID, e.URI, e.Site, e.Section, e.Type, e.Title, raw); err != nil {
		return handlePostgresError("upsert element", err)
	}
	return nil
}

// Delete removes an entry
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM meta_elements WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete element", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemeta.ErrElementNotFound
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "uri") {
				return fmt.Errorf("another element already uses this uri: %w", err)
			}
			return fmt.Errorf("duplicate element: %w", err)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing: %w", pgErr.ColumnName, err)
		case "42P01": // undefined_table
			return fmt.Errorf("table meta_elements does not exist - run EnsureSchema: %w", err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s): %w", operation, pgErr.Message, pgErr.Code, err)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}
