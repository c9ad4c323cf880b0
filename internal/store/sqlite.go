package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore persists the document tree in a single SQLite table keyed by
// path. Every Write lands as one JSON document row; reading an interior path
// assembles its descendant rows back into nested maps.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Migrate creates the schema when it doesn't exist yet.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			path TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to migrate store schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Read returns the document at path, or an assembled subtree when only
// descendant rows exist, or nil when neither does.
func (s *SQLiteStore) Read(ctx context.Context, path string) (any, error) {
	path = joinPath(splitPath(path))
	if path == "" {
		return nil, fmt.Errorf("cannot read the store root")
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM nodes WHERE path = ?`, path).Scan(&raw)
	switch {
	case err == nil:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("failed to decode document at %s: %w", path, err)
		}
		return v, nil
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, value FROM nodes WHERE path LIKE ? ESCAPE '\'`, likePrefix(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read subtree %s: %w", path, err)
	}
	defer func() { _ = rows.Close() }()

	tree := make(map[string]any)
	for rows.Next() {
		var childPath, childRaw string
		if err := rows.Scan(&childPath, &childRaw); err != nil {
			return nil, fmt.Errorf("failed to scan subtree row: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(childRaw), &v); err != nil {
			return nil, fmt.Errorf("failed to decode document at %s: %w", childPath, err)
		}
		insertAt(tree, splitPath(childPath[len(path)+1:]), v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subtree %s: %w", path, err)
	}
	if len(tree) == 0 {
		return nil, nil
	}
	return tree, nil
}

// Write replaces the document at path, removing anything previously stored
// at or below it. A nil value only removes.
func (s *SQLiteStore) Write(ctx context.Context, path string, value any) error {
	path = joinPath(splitPath(path))
	if path == "" {
		return fmt.Errorf("cannot write to the store root")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM nodes WHERE path = ? OR path LIKE ? ESCAPE '\'`, path, likePrefix(path)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", path, err)
	}

	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode value for %s: %w", path, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (path, value) VALUES (?, ?)`, path, string(raw)); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit write to %s: %w", path, err)
	}
	return nil
}

// Update shallow-merges fields into the document at path. Fields set to nil
// are removed from the document.
func (s *SQLiteStore) Update(ctx context.Context, path string, fields map[string]any) error {
	path = joinPath(splitPath(path))
	if path == "" {
		return fmt.Errorf("cannot update the store root")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc := make(map[string]any)
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM nodes WHERE path = ?`, path).Scan(&raw)
	switch {
	case err == nil:
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return fmt.Errorf("failed to decode document at %s: %w", path, err)
		}
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document for %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO nodes (path, value) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		path, string(merged)); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update to %s: %w", path, err)
	}
	return nil
}

// likePrefix builds the LIKE pattern matching strict descendants of path,
// escaping SQL wildcard characters that may appear in path segments.
func likePrefix(path string) string {
	escaped := ""
	for _, r := range path {
		switch r {
		case '%', '_', '\\':
			escaped += `\` + string(r)
		default:
			escaped += string(r)
		}
	}
	return escaped + "/%"
}

func insertAt(tree map[string]any, segs []string, value any) {
	node := tree
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = value
}
