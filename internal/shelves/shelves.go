// Package shelves holds the personal shelves (favorites and watch history).
//
// A shelf is restored from the signed-in customer's externalData, or from the
// local persister when nobody is signed in. Anonymous changes are written back
// to the persister immediately; signed-in changes are pushed to the backend by
// the session controller through [Favorites.Serialize] and [WatchHistory.Serialize].
package shelves

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/repositories"
)

// Persist keys for the anonymous shelves.
const (
	FavoritesKey = "favorites"
	HistoryKey   = "history"
)

// MaxHistoryItems bounds the watch history; the oldest entries are dropped first.
const MaxHistoryItems = 48

type shelf[T any] struct {
	mu        sync.RWMutex
	items     []T
	anonymous bool

	key     string
	limit   int
	id      func(T) string
	extract func(*models.ExternalData) []T

	persist repositories.Persister
	logger  *log.Logger
}

// Restore replaces the shelf contents with the customer's stored items, or the local
// items when user is nil.
func (s *shelf[T]) Restore(ctx context.Context, user *models.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var items []T
	anonymous := user == nil

	if anonymous {
		stored, _, err := repositories.GetJSON[[]T](s.persist, s.key)
		if err != nil {
			s.logger.Warn("discarding unreadable local shelf", "key", s.key, "error", err)
		}
		items = stored
	} else if user.ExternalData != nil {
		items = slices.Clone(s.extract(user.ExternalData))
	}

	if s.limit > 0 && len(items) > s.limit {
		items = items[:s.limit]
	}

	s.mu.Lock()
	s.items = items
	s.anonymous = anonymous
	s.mu.Unlock()

	s.logger.Debug("shelf restored", "key", s.key, "items", len(items), "anonymous", anonymous)
	return nil
}

// Serialize returns a copy of the items in transport form.
func (s *shelf[T]) Serialize() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of items.
func (s *shelf[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Has reports whether mediaID is on the shelf.
func (s *shelf[T]) Has(mediaID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(mediaID) >= 0
}

func (s *shelf[T]) index(mediaID string) int {
	return slices.IndexFunc(s.items, func(item T) bool { return s.id(item) == mediaID })
}

// upsert moves item to the front, replacing any entry with the same media id.
func (s *shelf[T]) upsert(item T) error {
	s.mu.Lock()
	if i := s.index(s.id(item)); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.items = slices.Insert(s.items, 0, item)
	if s.limit > 0 && len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}
	s.mu.Unlock()

	return s.save()
}

func (s *shelf[T]) remove(mediaID string) (bool, error) {
	s.mu.Lock()
	i := s.index(mediaID)
	if i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.mu.Unlock()

	if i < 0 {
		return false, nil
	}
	return true, s.save()
}

// save writes anonymous shelves through to the persister.
func (s *shelf[T]) save() error {
	s.mu.RLock()
	anonymous := s.anonymous
	items := slices.Clone(s.items)
	s.mu.RUnlock()

	if !anonymous {
		return nil
	}
	return repositories.SetJSON(s.persist, s.key, items)
}
