// Package state persists client state (active store, tracked operations)
// in a local SQLite database so that a later invocation can resume polling
// operations started by an earlier one.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Operation is the persisted form of a tracked indexing operation.
type Operation struct {
	ID           string
	StoreID      string
	DisplayName  string
	FriendlyName string
	Status       string
	Error        string
	DocumentPath string
}

// DB is the SQLite-backed client state store.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the state database under dataDir.
// An empty dataDir defaults to ~/.ragdex.
func Open(dataDir string) (*DB, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragdex")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// WAL so a watch session and a second invocation can coexist.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &DB{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *DB) Path() string {
	return s.path
}

// ActiveStore returns the persisted active store id, or "" if none was
// ever selected.
func (s *DB) ActiveStore(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'active_store'`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying active store: %w", err)
	}
	return id, nil
}

// SetActiveStore persists the active store id.
func (s *DB) SetActiveStore(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ('active_store', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, id)
	if err != nil {
		return fmt.Errorf("saving active store: %w", err)
	}
	return nil
}

// SaveOperation inserts or updates a tracked operation.
func (s *DB) SaveOperation(ctx context.Context, op Operation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations (id, store_id, display_name, friendly_name, status, error, document_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			document_path = excluded.document_path,
			display_name = excluded.display_name
	`, op.ID, op.StoreID, op.DisplayName, op.FriendlyName, op.Status, op.Error, op.DocumentPath)
	if err != nil {
		return fmt.Errorf("saving operation %s: %w", op.ID, err)
	}
	return nil
}

// DeleteOperation removes one tracked operation.
func (s *DB) DeleteOperation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting operation %s: %w", id, err)
	}
	return nil
}

// ClearOperations removes every tracked operation for a store.
func (s *DB) ClearOperations(ctx context.Context, storeID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE store_id = ?`, storeID)
	if err != nil {
		return fmt.Errorf("clearing operations for %s: %w", storeID, err)
	}
	return nil
}

// Operations returns all tracked operations for a store, oldest first.
func (s *DB) Operations(ctx context.Context, storeID string) ([]Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, display_name, friendly_name, status, error, document_path
		FROM operations WHERE store_id = ? ORDER BY created_at, id
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("querying operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.ID, &op.StoreID, &op.DisplayName, &op.FriendlyName,
			&op.Status, &op.Error, &op.DocumentPath); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return ops, nil
}

// Operation returns a single tracked operation or ErrNotFound.
func (s *DB) Operation(ctx context.Context, id string) (*Operation, error) {
	var op Operation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, display_name, friendly_name, status, error, document_path
		FROM operations WHERE id = ?
	`, id).Scan(&op.ID, &op.StoreID, &op.DisplayName, &op.FriendlyName,
		&op.Status, &op.Error, &op.DocumentPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying operation %s: %w", id, err)
	}
	return &op, nil
}
