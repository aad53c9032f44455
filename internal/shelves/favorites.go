package shelves

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/repositories"
)

// Favorites is the customer's favorites shelf, newest first.
type Favorites struct {
	shelf[models.SerializedFavorite]
}

// NewFavorites creates an empty anonymous favorites shelf.
func NewFavorites(persist repositories.Persister, logger *log.Logger) *Favorites {
	return &Favorites{shelf[models.SerializedFavorite]{
		anonymous: true,
		key:       FavoritesKey,
		id:        func(f models.SerializedFavorite) string { return f.MediaID },
		extract:   func(d *models.ExternalData) []models.SerializedFavorite { return d.Favorites },
		persist:   persist,
		logger:    logger,
	}}
}

// Add puts mediaID at the front of the shelf.
func (f *Favorites) Add(mediaID, title string) error {
	return f.upsert(models.SerializedFavorite{MediaID: mediaID, Title: title})
}

// Remove drops mediaID and reports whether it was present.
func (f *Favorites) Remove(mediaID string) (bool, error) {
	return f.remove(mediaID)
}
