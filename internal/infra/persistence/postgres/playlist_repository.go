package postgres

import (
	"context"
	"time"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// playlistRepository implements the repository.PlaylistRepository interface.
type playlistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository is the constructor for playlistRepository.
func NewPlaylistRepository(db *gorm.DB) repository.PlaylistRepository {
	return &playlistRepository{
		db: db,
	}
}

// Create persists a new playlist with its initial items.
func (repo *playlistRepository) Create(ctx context.Context, playlist *entity.Playlist) error {
	playlistM := fromPlaylistDomain(playlist)

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(playlistM).Error; err != nil {
			return err
		}

		for i := range playlistM.Items {
			playlistM.Items[i].PlaylistID = playlistM.ID
		}
		if len(playlistM.Items) > 0 {
			if err := tx.Create(&playlistM.Items).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to create playlist")
	}

	playlist.ID = playlistM.ID
	playlist.UpdatedAt = playlistM.UpdatedAt

	return nil
}

// Rename changes a playlist's name. The write advances updated_at, which is
// the playlist's version clock.
func (repo *playlistRepository) Rename(ctx context.Context, id int64, name string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PlaylistModel{}).
		Where("id = ?", id).
		Update("name", name)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to rename playlist")
	}

	if result.RowsAffected == 0 {
		return repository.ErrPlaylistNotFound
	}

	return nil
}

// ReplaceItems swaps the playlist membership atomically and advances the
// playlist's last-modified time so dependent devices observe a version change.
func (repo *playlistRepository) ReplaceItems(ctx context.Context, id int64, items []entity.PlaylistItem) error {
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var playlistM model.PlaylistModel
		if err := tx.Where("id = ?", id).First(&playlistM).Error; err != nil {
			return err
		}

		if err := tx.Where("playlist_id = ?", id).
			Delete(&model.PlaylistItemModel{}).Error; err != nil {
			return err
		}

		if len(items) > 0 {
			itemModels := make([]*model.PlaylistItemModel, 0, len(items))
			for position, item := range items {
				itemModels = append(itemModels, &model.PlaylistItemModel{
					PlaylistID:      id,
					MediaID:         item.MediaID,
					Position:        position,
					DurationSeconds: item.DurationSeconds,
				})
			}
			if err := tx.Create(&itemModels).Error; err != nil {
				return err
			}
		}

		return tx.Model(&model.PlaylistModel{}).
			Where("id = ?", id).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrPlaylistNotFound
		}

		return errors.Wrap(err, "failed to replace playlist items")
	}

	return nil
}

// Delete removes a playlist and its items.
func (repo *playlistRepository) Delete(ctx context.Context, id int64) error {
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).
			Delete(&model.PlaylistItemModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&model.PlaylistModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrPlaylistNotFound
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return repository.ErrPlaylistNotFound
		}
		if isForeignKeyConstraintViolation(err) {
			return errors.Wrap(err, "playlist is still referenced by schedules")
		}

		return errors.Wrap(err, "failed to delete playlist")
	}

	return nil
}

// FindByID retrieves a playlist with its items in position order, each item
// carrying its media row.
func (repo *playlistRepository) FindByID(ctx context.Context, id int64) (*entity.Playlist, error) {
	var playlistM model.PlaylistModel

	err := repo.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("playlist_items.position ASC")
		}).
		Preload("Items.Media").
		Where("id = ?", id).
		First(&playlistM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPlaylistNotFound
		}

		return nil, errors.Wrap(err, "failed to find playlist by ID")
	}

	return toPlaylistDomain(&playlistM), nil
}

// DeviceIDsUsing returns the ids of devices with at least one schedule that
// references the playlist. Used for targeted cache invalidation.
func (repo *playlistRepository) DeviceIDsUsing(ctx context.Context, playlistID int64) ([]int64, error) {
	var ids []int64

	err := repo.db.WithContext(ctx).
		Model(&model.ScheduleModel{}).
		Where("playlist_id = ?", playlistID).
		Distinct().
		Pluck("device_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices using playlist")
	}

	return ids, nil
}

// --- Mapper Functions ---

func toPlaylistDomain(data *model.PlaylistModel) *entity.Playlist {
	if data == nil {
		return nil
	}

	items := make([]entity.PlaylistItem, 0, len(data.Items))
	for _, itemM := range data.Items {
		item := entity.PlaylistItem{
			ID:              itemM.ID,
			PlaylistID:      itemM.PlaylistID,
			MediaID:         itemM.MediaID,
			Position:        itemM.Position,
			DurationSeconds: itemM.DurationSeconds,
		}
		if itemM.Media != nil {
			item.Media = &entity.Media{
				ID:        itemM.Media.ID,
				Filename:  itemM.Media.Filename,
				SizeBytes: itemM.Media.SizeBytes,
				CreatedAt: itemM.Media.CreatedAt,
			}
		}
		items = append(items, item)
	}

	return &entity.Playlist{
		ID:        data.ID,
		Name:      data.Name,
		Items:     items,
		UpdatedAt: data.UpdatedAt,
	}
}

func fromPlaylistDomain(data *entity.Playlist) *model.PlaylistModel {
	if data == nil {
		return nil
	}

	items := make([]model.PlaylistItemModel, 0, len(data.Items))
	for position, item := range data.Items {
		items = append(items, model.PlaylistItemModel{
			MediaID:         item.MediaID,
			Position:        position,
			DurationSeconds: item.DurationSeconds,
		})
	}

	return &model.PlaylistModel{
		ID:    data.ID,
		Name:  data.Name,
		Items: items,
	}
}
