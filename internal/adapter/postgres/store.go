// Package postgres stores documents as jsonb rows keyed by (parent, name).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	parent     TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (parent, name)
)`

const (
	setQuery = `
		INSERT INTO documents (parent, name, body, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (parent, name) DO UPDATE
		SET body = EXCLUDED.body, updated_at = now()`

	// Shallow merge: top-level keys of the new body replace existing ones.
	updateQuery = `
		INSERT INTO documents (parent, name, body, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (parent, name) DO UPDATE
		SET body = CASE
				WHEN jsonb_typeof(documents.body) = 'object' THEN documents.body || EXCLUDED.body
				ELSE EXCLUDED.body
			END,
			updated_at = now()`

	deleteQuery   = `DELETE FROM documents WHERE parent = $1 AND name = $2`
	childrenQuery = `SELECT name, body FROM documents WHERE parent = $1`
)

// Store is a PostgreSQL-backed document store.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &Store{db: db}, nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the documents table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Set replaces the document at path.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	parent, name := domain.SplitPath(path)
	if _, err := s.db.ExecContext(ctx, setQuery, parent, name, string(data)); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Update shallow-merges fields into the document at path.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	parent, name := domain.SplitPath(path)
	if _, err := s.db.ExecContext(ctx, updateQuery, parent, name, string(data)); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Delete removes the document at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	parent, name := domain.SplitPath(path)
	if _, err := s.db.ExecContext(ctx, deleteQuery, parent, name); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Children returns the documents directly beneath path.
func (s *Store) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	parent, name := domain.SplitPath(path)
	if parent != "" {
		name = parent + "/" + name
	}
	rows, err := s.db.QueryContext(ctx, childrenQuery, name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			child string
			body  []byte
		)
		if err := rows.Scan(&child, &body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		out[child] = json.RawMessage(body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return out, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
