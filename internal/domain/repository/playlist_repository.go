package repository

import (
	"context"

	"signage/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrPlaylistNotFound is returned when a playlist is not found.
var ErrPlaylistNotFound = errors.New("playlist not found")

// PlaylistRepository defines the interface for playlist-related database operations.
type PlaylistRepository interface {
	// Create persists a new playlist.
	Create(ctx context.Context, playlist *entity.Playlist) error

	// Rename updates the playlist name and advances its last-modified time.
	Rename(ctx context.Context, id int64, name string) error

	// ReplaceItems swaps the playlist membership atomically and advances the
	// playlist's last-modified time, so devices notice the content change.
	ReplaceItems(ctx context.Context, id int64, items []entity.PlaylistItem) error

	// Delete removes a playlist and its items.
	Delete(ctx context.Context, id int64) error

	// FindByID retrieves a playlist with its ordered items and media.
	FindByID(ctx context.Context, id int64) (*entity.Playlist, error)

	// DeviceIDsUsing returns the ids of devices with at least one schedule
	// referencing the playlist. Used to scope cache invalidation.
	DeviceIDsUsing(ctx context.Context, playlistID int64) ([]int64, error)
}
