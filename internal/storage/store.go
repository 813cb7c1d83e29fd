// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// Fixed credential keys.
const (
	KeyToken  = "pocketllm_token"
	KeyUserID = "pocketllm_user_id"
	KeyEmail  = "pocketllm_user_email"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
) WITHOUT ROWID;
`

const upsertSQL = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite-backed key/value store.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the credential database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if path != ":memory:" {
		// Best effort; the token is a bearer credential.
		_ = os.Chmod(path, 0600)
	}
	return &Store{db: db, path: path}, nil
}

// NewWithDB wraps an existing database handle. The caller owns the schema.
func NewWithDB(db *sql.DB, path string) *Store {
	return &Store{db: db, path: path}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or model.ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("key %s: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(upsertSQL, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// CREDENTIALS
// =============================================================================

func (s *Store) getOrEmpty(key string) string {
	v, err := s.Get(key)
	if err != nil {
		return ""
	}
	return v
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token() string {
	return s.getOrEmpty(KeyToken)
}

// UserID returns the stored user id.
func (s *Store) UserID() string {
	return s.getOrEmpty(KeyUserID)
}

// Email returns the stored user email.
func (s *Store) Email() string {
	return s.getOrEmpty(KeyEmail)
}

// Identity returns all stored credentials.
func (s *Store) Identity() (model.Identity, error) {
	rows, err := s.db.Query(`SELECT key, value FROM kv WHERE key IN (?, ?, ?)`, KeyToken, KeyUserID, KeyEmail)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	defer rows.Close()

	var id model.Identity
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return model.Identity{}, fmt.Errorf("failed to read credentials: %w", err)
		}
		switch k {
		case KeyToken:
			id.Token = v
		case KeyUserID:
			id.UserID = v
		case KeyEmail:
			id.Email = v
		}
	}
	if err := rows.Err(); err != nil {
		return model.Identity{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	return id, nil
}

// IsLoggedIn reports whether a token is stored.
func (s *Store) IsLoggedIn() bool {
	return s.Token() != ""
}

// SaveCredentials stores token, user id and email atomically.
func (s *Store) SaveCredentials(id model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	now := time.Now().Unix()
	for _, kv := range [][2]string{{KeyToken, id.Token}, {KeyUserID, id.UserID}, {KeyEmail, id.Email}} {
		if _, err := tx.Exec(upsertSQL, kv[0], kv[1], now); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save credentials: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Clear removes all stored credentials.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM kv WHERE key IN (?, ?, ?)`, KeyToken, KeyUserID, KeyEmail)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
