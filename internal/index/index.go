// Package index provides a SQLite-backed card index with optional FTS5
// full-text search. The index mirrors the last parsed state of the vault
// and powers listing, filtering, and search; it never drives remote
// mutations.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS cards (
	id         TEXT PRIMARY KEY,
	deck       TEXT NOT NULL DEFAULT '',
	front      TEXT NOT NULL DEFAULT '',
	back       TEXT NOT NULL DEFAULT '',
	front_raw  TEXT NOT NULL DEFAULT '',
	back_raw   TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	file       TEXT NOT NULL,
	line       INTEGER NOT NULL DEFAULT 0,
	note_id    INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	card_count INTEGER NOT NULL DEFAULT 0,
	indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cards_file ON cards(file);
CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck);
`

// CardIndex defines the interface for card index operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type CardIndex interface {
	ReplaceFileCards(path, checksum string, rows []CardRow) error
	DeleteFile(path string) error
	ListCards(limit, offset int, deck, tag, file string) ([]CardRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	CountCards() (int, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies CardIndex at compile time.
var _ CardIndex = (*DB)(nil)

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
