// Package kvstore provides durable named string-array stores used as
// expansion backends.
package kvstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS arrays (
	name       TEXT PRIMARY KEY,
	items      TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite stores arrays as JSON rows in a single table.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("kvstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kvstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kvstore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// GetArray returns the array stored under name, or nil if there is none.
func (s *SQLite) GetArray(name string) ([]string, error) {
	var raw string
	err := s.conn.QueryRow(`SELECT items FROM arrays WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: get %s: %w", name, err)
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("kvstore: decode %s: %w", name, err)
	}
	return out, nil
}

// SetArray replaces the array stored under name.
func (s *SQLite) SetArray(name string, values []string) error {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", name, err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO arrays (name, items, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			items      = excluded.items,
			updated_at = excluded.updated_at
	`, name, string(raw))
	if err != nil {
		return fmt.Errorf("kvstore: set %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
