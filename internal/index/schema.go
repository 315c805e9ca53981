// Package index is the SQLite-backed row store for notes, tags, links and
// import bookkeeping. Every multi-statement mutation runs in one transaction.
package index

import (
	"context"
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/lumina/internal/apperr"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL,
	is_daily_note   INTEGER NOT NULL DEFAULT 0,
	daily_note_date TEXT,
	is_encrypted    INTEGER NOT NULL DEFAULT 0,
	is_pinned       INTEGER NOT NULL DEFAULT 0,
	CHECK ((is_daily_note = 1) = (daily_note_date IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_daily_date ON notes(daily_note_date) WHERE is_daily_note = 1;

CREATE TABLE IF NOT EXISTS tags (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
	color       TEXT NOT NULL DEFAULT '#0078D4',
	parent_id   TEXT REFERENCES tags(id) ON DELETE SET NULL,
	created_at  DATETIME NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tags_parent ON tags(parent_id);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id  TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	tag_id   TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	PRIMARY KEY (note_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id);

CREATE TABLE IF NOT EXISTS links (
	id             TEXT PRIMARY KEY,
	source_note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	target_note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	created_at     DATETIME NOT NULL,
	context        TEXT NOT NULL DEFAULT '',
	link_type      TEXT NOT NULL DEFAULT '',
	UNIQUE(source_note_id, target_note_id)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_note_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_note_id);

CREATE TABLE IF NOT EXISTS imports (
	path     TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	note_id  TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE
);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB

	// lower-cased note title -> note id, purged after every note mutation.
	titleIDs *lru.Cache[string, string]
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the SQLite database and applies the schema.
//
// The pool is limited to a single connection: SQLite allows one writer, and
// the store is a single-writer design.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, apperr.Backend("index: open db", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, apperr.Backend("index: ping", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, apperr.Backend("index: apply core schema", err)
	}
	cache, err := lru.New[string, string](1024)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: title cache: %w", err)
	}
	return &DB{conn: conn, titleIDs: cache}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the backend is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperr.Backend("index: ping", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}
