package usecase

import (
	"context"

	"signage/internal/domain/entity"
)

// PlaylistItemInput is one positioned media reference in a replace request.
// Position is taken from slice order.
type PlaylistItemInput struct {
	MediaID         int64 `json:"media_id"`
	DurationSeconds int   `json:"duration_seconds"`
}

// PlaylistUsecase defines playlist management. Every mutation invalidates the
// reconciliation cache for all devices whose schedules reference the
// playlist.
type PlaylistUsecase interface {
	// Create adds a playlist with its initial items.
	Create(ctx context.Context, name string, items []PlaylistItemInput) (*entity.Playlist, error)

	// Rename changes the playlist name.
	Rename(ctx context.Context, id int64, name string) error

	// ReplaceItems swaps the playlist membership atomically.
	ReplaceItems(ctx context.Context, id int64, items []PlaylistItemInput) error

	// Delete removes a playlist and its items.
	Delete(ctx context.Context, id int64) error

	// Get retrieves a playlist with its ordered items and media.
	Get(ctx context.Context, id int64) (*entity.Playlist, error)
}
