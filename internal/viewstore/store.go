// Package viewstore persists canvas view documents in SQLite, keyed by
// selector. Documents are opaque JSON blobs to the store: a save always
// replaces the whole document, last writer wins per key.
package viewstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atlas-kb/atlas/internal/canvas"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS view_documents (
	selector_key TEXT PRIMARY KEY,
	document     TEXT NOT NULL,
	updated_at   DATETIME NOT NULL
);
`

// Store is the view document store.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the store database and applies the schema. The
// DSN may point at the same file as the note index; each package holds its
// own connection.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("viewstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("viewstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("viewstore: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Load returns the persisted document for the selector, or (nil, nil) when
// none has been saved yet.
func (s *Store) Load(sel canvas.Selector) (*canvas.ViewDocument, error) {
	var raw string
	err := s.conn.QueryRow(
		`SELECT document FROM view_documents WHERE selector_key = ?`, sel.Key(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("viewstore: load %s: %w", sel.Key(), err)
	}

	var doc canvas.ViewDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("viewstore: decode %s: %w", sel.Key(), err)
	}
	return &doc, nil
}

// Save replaces the document for the selector. The document's Updated stamp
// is set here, and an empty title is defaulted from the selector, since both
// are document-level metadata outside the sync engine's concern.
func (s *Store) Save(sel canvas.Selector, doc *canvas.ViewDocument) error {
	doc.Updated = time.Now().UTC()
	if doc.Title == "" {
		doc.Title = sel.DefaultTitle()
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("viewstore: encode %s: %w", sel.Key(), err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO view_documents (selector_key, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(selector_key) DO UPDATE SET
			document   = excluded.document,
			updated_at = excluded.updated_at
	`, sel.Key(), string(raw), doc.Updated)
	if err != nil {
		return fmt.Errorf("viewstore: save %s: %w", sel.Key(), err)
	}
	return nil
}

// Delete removes the document for the selector. Deleting an absent document
// is not an error.
func (s *Store) Delete(sel canvas.Selector) error {
	if _, err := s.conn.Exec(`DELETE FROM view_documents WHERE selector_key = ?`, sel.Key()); err != nil {
		return fmt.Errorf("viewstore: delete %s: %w", sel.Key(), err)
	}
	return nil
}

// Keys returns every selector key with a persisted document.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.conn.Query(`SELECT selector_key FROM view_documents ORDER BY selector_key`)
	if err != nil {
		return nil, fmt.Errorf("viewstore: keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
