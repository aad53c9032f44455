package repositories

import (
	"fmt"

	"github.com/desertthunder/ottx/internal/shared"
	"go.etcd.io/bbolt"
)

var itemsBucket = []byte("persisted_items")

// BoltStore implements [Persister] on a single bbolt bucket.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore wraps an open bbolt database.
func NewBoltStore(db *bbolt.DB) *BoltStore {
	return &BoltStore{db: db}
}

// OpenBoltStore opens (or creates) the bbolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: storage.bolt_path", shared.ErrMissingConfig)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewBoltStore(db), nil
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) GetItem(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		if b == nil {
			return fmt.Errorf("%w: %s", shared.ErrNotFound, key)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s", shared.ErrNotFound, key)
		}
		value = append([]byte(nil), data...)
		return nil
	})
	return value, err
}

func (s *BoltStore) SetItem(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(itemsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *BoltStore) RemoveItem(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
