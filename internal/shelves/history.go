package shelves

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/repositories"
)

// WatchHistory tracks playback progress, most recently watched first.
type WatchHistory struct {
	shelf[models.SerializedWatchHistoryItem]
}

// NewWatchHistory creates an empty anonymous watch history.
func NewWatchHistory(persist repositories.Persister, logger *log.Logger) *WatchHistory {
	return &WatchHistory{shelf[models.SerializedWatchHistoryItem]{
		anonymous: true,
		key:       HistoryKey,
		limit:     MaxHistoryItems,
		id:        func(h models.SerializedWatchHistoryItem) string { return h.MediaID },
		extract:   func(d *models.ExternalData) []models.SerializedWatchHistoryItem { return d.History },
		persist:   persist,
		logger:    logger,
	}}
}

// Save records progress (clamped to [0, 1]) for item and moves it to the front.
func (h *WatchHistory) Save(item models.SerializedWatchHistoryItem) error {
	item.Progress = min(max(item.Progress, 0), 1)
	return h.upsert(item)
}

// Progress returns the recorded progress for mediaID.
func (h *WatchHistory) Progress(mediaID string) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i := h.index(mediaID); i >= 0 {
		return h.items[i].Progress, true
	}
	return 0, false
}

// Remove drops mediaID and reports whether it was present.
func (h *WatchHistory) Remove(mediaID string) (bool, error) {
	return h.remove(mediaID)
}
