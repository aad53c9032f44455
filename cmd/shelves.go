package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ShelvesList prints favorites and watch history.
func (r *Runner) ShelvesList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.start(ctx); err != nil {
		return err
	}

	data := models.ExternalData{
		Favorites: r.favorites.Serialize(),
		History:   r.history.Serialize(),
	}
	if cmd.Bool("json") {
		return r.writeJSON(data, true)
	}

	r.writePlainHeader(fmt.Sprintf("Favorites (%d)", len(data.Favorites)))
	for _, f := range data.Favorites {
		r.writePlain("%-12s %s\n", f.MediaID, f.Title)
	}
	r.writePlainln("Watch history (%d)", len(data.History))
	for _, h := range data.History {
		r.writePlain("%-12s %3.0f%%  %s\n", h.MediaID, h.Progress*100, h.Title)
	}
	return nil
}

// ShelvesFavorite adds a media item to favorites.
func (r *Runner) ShelvesFavorite(ctx context.Context, cmd *cli.Command) error {
	mediaID, err := mediaIDArg(cmd)
	if err != nil {
		return err
	}
	if _, err := r.start(ctx); err != nil {
		return err
	}

	if err := r.favorites.Add(mediaID, cmd.String("title")); err != nil {
		return err
	}
	if err := r.syncShelves(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Added %s to favorites\n", mediaID)
}

// ShelvesUnfavorite removes a media item from favorites.
func (r *Runner) ShelvesUnfavorite(ctx context.Context, cmd *cli.Command) error {
	mediaID, err := mediaIDArg(cmd)
	if err != nil {
		return err
	}
	if _, err := r.start(ctx); err != nil {
		return err
	}

	removed, err := r.favorites.Remove(mediaID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s is not a favorite", shared.ErrNotFound, mediaID)
	}
	if err := r.syncShelves(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from favorites\n", mediaID)
}

// ShelvesWatch records watch progress for a media item.
func (r *Runner) ShelvesWatch(ctx context.Context, cmd *cli.Command) error {
	mediaID, err := mediaIDArg(cmd)
	if err != nil {
		return err
	}
	progress := cmd.Float("progress")
	if progress < 0 || progress > 1 {
		return fmt.Errorf("%w: progress must be between 0 and 1", shared.ErrInvalidArgument)
	}
	if _, err := r.start(ctx); err != nil {
		return err
	}

	if err := r.history.Save(models.SerializedWatchHistoryItem{
		MediaID:  mediaID,
		Progress: progress,
		Title:    cmd.String("title"),
	}); err != nil {
		return err
	}
	if err := r.syncShelves(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Saved progress %.0f%% for %s\n", progress*100, mediaID)
}

// ShelvesSync uploads favorites and watch history to the account.
func (r *Runner) ShelvesSync(ctx context.Context, cmd *cli.Command) error {
	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if _, err := ctrl.UpdatePersonalShelves(ctx); err != nil {
		return r.reportFormErrors(err)
	}
	return r.writePlain("✓ Synced %d favorites and %d history items\n", r.favorites.Len(), r.history.Len())
}

// syncShelves pushes signed-in shelves to the account; anonymous shelves are already persisted locally.
func (r *Runner) syncShelves(ctx context.Context) error {
	if !r.store.State().LoggedIn() {
		return nil
	}
	if _, err := r.ctrl.UpdatePersonalShelves(ctx); err != nil {
		return r.reportFormErrors(err)
	}
	return nil
}

func mediaIDArg(cmd *cli.Command) (string, error) {
	mediaID := cmd.StringArg("media-id")
	if mediaID == "" {
		return "", fmt.Errorf("%w: media-id", shared.ErrMissingArgument)
	}
	return mediaID, nil
}
