package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS providers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	category_type TEXT NOT NULL,
	criticality   TEXT NOT NULL DEFAULT '',
	contact_email TEXT NOT NULL DEFAULT '',
	slack_channel TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_providers_category ON providers(category_type);

CREATE TABLE IF NOT EXISTS evaluations (
	id                      TEXT PRIMARY KEY,
	provider_id             TEXT NOT NULL,
	evaluation_type         TEXT NOT NULL,
	criticality             TEXT NOT NULL DEFAULT '',
	criteria                TEXT NOT NULL,
	scores                  TEXT NOT NULL,
	justifications          TEXT NOT NULL DEFAULT '{}',
	total_score             TEXT NOT NULL,
	comments                TEXT NOT NULL DEFAULT '',
	evaluator_id            TEXT NOT NULL DEFAULT '',
	commitments             TEXT NOT NULL DEFAULT '{}',
	commitment              TEXT NOT NULL DEFAULT '',
	commitment_submitted_at DATETIME,
	created_at              DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_provider ON evaluations(provider_id, evaluation_type);

CREATE TABLE IF NOT EXISTS weight_overrides (
	category_type TEXT PRIMARY KEY,
	weights       TEXT NOT NULL,
	updated_by    TEXT NOT NULL DEFAULT '',
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS selection_events (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	type                 TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL,
	criteria             TEXT NOT NULL DEFAULT '[]',
	competitors          TEXT NOT NULL DEFAULT '[]',
	winner_id            TEXT NOT NULL DEFAULT '',
	winner_justification TEXT NOT NULL DEFAULT '',
	closed_at            DATETIME,
	version              INTEGER NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL
);
`

// SQLite implements Store on a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLite) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.QueryRowContext(ctx, query, args...), nil
}

func (s *SQLite) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// exists reports whether a row with the given id is present in table.
func (s *SQLite) exists(ctx context.Context, table, idColumn, id string) (bool, error) {
	row, err := s.queryRow(ctx, sq.Select("COUNT(*)").From(table).Where(sq.Eq{idColumn: id}))
	if err != nil {
		return false, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return n > 0, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode column: %w", err)
	}
	return nil
}
