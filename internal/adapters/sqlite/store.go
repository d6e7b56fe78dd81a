// Package sqlite stores template sources in a SQLite table.
//
// The driver is chosen at build time: the pure-Go modernc driver by default,
// or mattn/go-sqlite3 with the cgo_sqlite build tag.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/brief/pkg/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	key        TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Store implements ports.TemplateStore on top of database/sql.
type Store struct {
	db  *sql.DB
	key string
	own bool
}

// Option configures a Store.
type Option func(*Store)

// WithKey selects the row the store reads and writes. Default: "template".
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// New wraps an existing database handle and ensures the schema exists.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, key: "template"}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create templates table: %w", err)
	}
	return s, nil
}

// Open opens the database at dataSource and prepares it.
// Closing the store closes the database.
func Open(ctx context.Context, dataSource string, opts ...Option) (*Store, error) {
	db, err := openDB(dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.own = true
	return s, nil
}

// Load returns the stored source for the configured key.
func (s *Store) Load(ctx context.Context) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx, `SELECT source FROM templates WHERE key = ?`, s.key).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrTemplateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load template %q: %w", s.key, err)
	}
	return source, nil
}

// Save upserts the source for the configured key.
func (s *Store) Save(ctx context.Context, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (key, source, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at`,
		s.key, source, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save template %q: %w", s.key, err)
	}
	return nil
}

// Keys lists every stored key, most recently updated first.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM templates ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close releases the database when the store opened it.
func (s *Store) Close() error {
	if !s.own {
		return nil
	}
	return s.db.Close()
}
