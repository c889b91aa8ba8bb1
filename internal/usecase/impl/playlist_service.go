package impl

import (
	"context"
	"fmt"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/domain/service"
	"signage/internal/usecase"
)

type playlistService struct {
	playlistRepo repository.PlaylistRepository
	cache        service.ReconciliationCache
}

// NewPlaylistService creates the playlist management service.
func NewPlaylistService(
	playlistRepo repository.PlaylistRepository,
	cache service.ReconciliationCache,
) usecase.PlaylistUsecase {
	return &playlistService{
		playlistRepo: playlistRepo,
		cache:        cache,
	}
}

// Create adds a playlist with its initial items. No schedule can reference
// the playlist yet, so no cache invalidation is needed.
func (s *playlistService) Create(ctx context.Context, name string, items []usecase.PlaylistItemInput) (*entity.Playlist, error) {
	playlist := &entity.Playlist{
		Name:  name,
		Items: toPlaylistItems(items),
	}
	if err := s.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	return playlist, nil
}

// Rename changes the playlist name and invalidates every device whose
// schedules reference the playlist.
func (s *playlistService) Rename(ctx context.Context, id int64, name string) error {
	if err := s.playlistRepo.Rename(ctx, id, name); err != nil {
		return err
	}

	return s.invalidateUsers(ctx, id)
}

// ReplaceItems swaps the playlist membership and invalidates dependent
// devices, so the content change surfaces on their next heartbeat.
func (s *playlistService) ReplaceItems(ctx context.Context, id int64, items []usecase.PlaylistItemInput) error {
	if err := s.playlistRepo.ReplaceItems(ctx, id, toPlaylistItems(items)); err != nil {
		return err
	}

	return s.invalidateUsers(ctx, id)
}

// Delete removes a playlist. Dependent devices are invalidated first; the
// delete fails while schedules still reference the playlist.
func (s *playlistService) Delete(ctx context.Context, id int64) error {
	deviceIDs, err := s.playlistRepo.DeviceIDsUsing(ctx, id)
	if err != nil {
		return err
	}

	if err := s.playlistRepo.Delete(ctx, id); err != nil {
		return err
	}

	for _, deviceID := range deviceIDs {
		s.cache.Invalidate(deviceID)
	}

	return nil
}

// Get retrieves a playlist with its ordered items and media.
func (s *playlistService) Get(ctx context.Context, id int64) (*entity.Playlist, error) {
	playlist, err := s.playlistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return playlist, nil
}

func (s *playlistService) invalidateUsers(ctx context.Context, playlistID int64) error {
	deviceIDs, err := s.playlistRepo.DeviceIDsUsing(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to scope cache invalidation: %w", err)
	}

	for _, deviceID := range deviceIDs {
		s.cache.Invalidate(deviceID)
	}

	return nil
}

func toPlaylistItems(items []usecase.PlaylistItemInput) []entity.PlaylistItem {
	converted := make([]entity.PlaylistItem, 0, len(items))
	for position, item := range items {
		converted = append(converted, entity.PlaylistItem{
			MediaID:         item.MediaID,
			Position:        position,
			DurationSeconds: item.DurationSeconds,
		})
	}

	return converted
}
