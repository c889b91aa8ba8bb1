package impl

import (
	"context"
	"testing"

	"signage/internal/domain/entity"
	"signage/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistService_ReplaceItemsInvalidatesDependentDevices(t *testing.T) {
	cache := newFakeCache()

	var replaced []entity.PlaylistItem
	repo := &fakePlaylistRepo{
		replaceItems: func(_ context.Context, _ int64, items []entity.PlaylistItem) error {
			replaced = items

			return nil
		},
		deviceIDsUsed: func(_ context.Context, _ int64) ([]int64, error) {
			return []int64{1, 4}, nil
		},
	}
	service := NewPlaylistService(repo, cache)

	err := service.ReplaceItems(context.Background(), 10, []usecase.PlaylistItemInput{
		{MediaID: 100, DurationSeconds: 15},
		{MediaID: 200, DurationSeconds: 30},
	})
	require.NoError(t, err)

	require.Len(t, replaced, 2)
	assert.Equal(t, 0, replaced[0].Position)
	assert.Equal(t, 1, replaced[1].Position)
	assert.ElementsMatch(t, []int64{1, 4}, cache.invalidated)
}

func TestPlaylistService_RenameInvalidatesDependentDevices(t *testing.T) {
	cache := newFakeCache()
	repo := &fakePlaylistRepo{
		rename: func(_ context.Context, _ int64, name string) error {
			assert.Equal(t, "evening loop", name)

			return nil
		},
		deviceIDsUsed: func(_ context.Context, _ int64) ([]int64, error) {
			return []int64{3}, nil
		},
	}
	service := NewPlaylistService(repo, cache)

	require.NoError(t, service.Rename(context.Background(), 10, "evening loop"))
	assert.Equal(t, []int64{3}, cache.invalidated)
}

func TestPlaylistService_DeleteInvalidatesFormerUsers(t *testing.T) {
	cache := newFakeCache()
	repo := &fakePlaylistRepo{
		deviceIDsUsed: func(_ context.Context, _ int64) ([]int64, error) {
			return []int64{2}, nil
		},
		delete: func(_ context.Context, _ int64) error {
			return nil
		},
	}
	service := NewPlaylistService(repo, cache)

	require.NoError(t, service.Delete(context.Background(), 10))
	assert.Equal(t, []int64{2}, cache.invalidated)
}

func TestPlaylistService_CreateDoesNotInvalidate(t *testing.T) {
	cache := newFakeCache()
	repo := &fakePlaylistRepo{
		create: func(_ context.Context, playlist *entity.Playlist) error {
			playlist.ID = 10

			return nil
		},
	}
	service := NewPlaylistService(repo, cache)

	playlist, err := service.Create(context.Background(), "fresh", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), playlist.ID)
	assert.Empty(t, cache.invalidated)
}
