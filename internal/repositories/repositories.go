// package repositories provides persistence layer implementations for local client state.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/marquee/internal/shared"
)

// StoreRepository persists string values under fixed keys in the session_store table.
type StoreRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a new [StoreRepository] with the given database connection
func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// Get returns the value stored under key and whether it exists.
func (r *StoreRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM session_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorage, key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (r *StoreRepository) Set(key, value string) error {
	query := `
		INSERT INTO session_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}

// Remove deletes the given keys in one transaction. Missing keys are not an error.
func (r *StoreRepository) Remove(keys ...string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec(`DELETE FROM session_store WHERE key = ?`, key); err != nil {
			return fmt.Errorf("%w: failed to remove %s: %v", shared.ErrStorage, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit removal: %v", shared.ErrStorage, err)
	}
	return nil
}

// UpdatedAt returns when key was last written.
func (r *StoreRepository) UpdatedAt(key string) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRow(`SELECT updated_at FROM session_store WHERE key = ?`, key).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorage, key, err)
	}
	return at, nil
}
