package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ottx/internal/shared"
)

// PersistRepository implements [Persister] on the persisted_items table.
type PersistRepository struct {
	db *sql.DB
}

// NewPersistRepository creates a new [PersistRepository] with the given database connection
func NewPersistRepository(db *sql.DB) *PersistRepository {
	return &PersistRepository{db: db}
}

// GetItem returns the stored value or [shared.ErrNotFound].
func (r *PersistRepository) GetItem(key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(`SELECT value FROM persisted_items WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item %s: %w", key, err)
	}
	return value, nil
}

// SetItem inserts or replaces the value stored under key.
func (r *PersistRepository) SetItem(key string, value []byte) error {
	query := `
		INSERT INTO persisted_items (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now()
	if _, err := r.db.Exec(query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to store item %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (r *PersistRepository) RemoveItem(key string) error {
	if _, err := r.db.Exec(`DELETE FROM persisted_items WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove item %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (r *PersistRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM persisted_items ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
