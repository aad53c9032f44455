// package repositories provides persistence layer implementations
package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/ottx/internal/shared"
)

// Persister is a durable key/value store.
type Persister interface {
	GetItem(key string) ([]byte, error)
	SetItem(key string, value []byte) error
	RemoveItem(key string) error
}

// GetJSON reads key and decodes it into T. found is false when the key does not exist.
func GetJSON[T any](p Persister, key string) (value T, found bool, err error) {
	raw, err := p.GetItem(key)
	if errors.Is(err, shared.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("%w: %s: %v", shared.ErrInvalidInput, key, err)
	}
	return value, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(p Persister, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return p.SetItem(key, raw)
}

// NewPersister returns the key/value backend selected in cfg. The sqlite backend uses db.
func NewPersister(cfg shared.StorageConfig, db *sql.DB) (Persister, error) {
	switch cfg.Backend {
	case "", "sqlite":
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite backend requires a database", shared.ErrMissingConfig)
		}
		return NewPersistRepository(db), nil
	case "bolt":
		return OpenBoltStore(cfg.BoltPath)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}
