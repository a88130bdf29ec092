// Package index provides a SQLite-backed query index over the catalogs with
// optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS catalog_files (
	name       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS hauls (
	title      TEXT PRIMARY KEY,
	alias      TEXT NOT NULL DEFAULT '',
	time_stamp TEXT NOT NULL DEFAULT '',
	year       INTEGER NOT NULL DEFAULT 0,
	week       INTEGER NOT NULL DEFAULT 0,
	data       TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS recipes (
	seq       INTEGER PRIMARY KEY,
	recipe_id TEXT NOT NULL DEFAULT '',
	alias     TEXT NOT NULL DEFAULT '',
	picture   TEXT NOT NULL DEFAULT '',
	data      TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS items (
	owner_kind TEXT NOT NULL,
	owner_key  TEXT NOT NULL,
	category   TEXT NOT NULL,
	alias      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	kind  TEXT NOT NULL,
	key   TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	body  TEXT NOT NULL DEFAULT '',
	UNIQUE(kind, key)
);

CREATE INDEX IF NOT EXISTS idx_hauls_year ON hauls(year, week);
CREATE INDEX IF NOT EXISTS idx_recipes_id ON recipes(recipe_id);
CREATE INDEX IF NOT EXISTS idx_items_alias ON items(alias);
CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_kind, owner_key);
`

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
