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

// scheduleRepository implements the repository.ScheduleRepository interface.
type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository is the constructor for scheduleRepository.
func NewScheduleRepository(db *gorm.DB) repository.ScheduleRepository {
	return &scheduleRepository{
		db: db,
	}
}

// Create persists a new schedule.
func (repo *scheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	scheduleM := fromScheduleDomain(schedule)

	if err := repo.db.WithContext(ctx).Create(scheduleM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrPlaylistNotFound
		}

		return errors.Wrap(err, "failed to create schedule")
	}

	schedule.ID = scheduleM.ID
	schedule.UpdatedAt = scheduleM.UpdatedAt

	return nil
}

// Update persists schedule changes. GORM advances updated_at, which is the
// schedule's version clock.
func (repo *scheduleRepository) Update(ctx context.Context, schedule *entity.Schedule) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ScheduleModel{}).
		Where("id = ?", schedule.ID).
		Updates(map[string]any{
			"playlist_id":  schedule.PlaylistID,
			"name":         schedule.Name,
			"days":         schedule.Days,
			"start_minute": schedule.StartMinute,
			"end_minute":   schedule.EndMinute,
			"valid_from":   schedule.ValidFrom,
			"valid_until":  schedule.ValidUntil,
			"enabled":      schedule.Enabled,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update schedule")
	}

	if result.RowsAffected == 0 {
		return repository.ErrScheduleNotFound
	}

	return nil
}

// Delete removes a schedule.
func (repo *scheduleRepository) Delete(ctx context.Context, id int64) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ScheduleModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete schedule")
	}

	if result.RowsAffected == 0 {
		return repository.ErrScheduleNotFound
	}

	return nil
}

// FindByID retrieves a schedule by id.
func (repo *scheduleRepository) FindByID(ctx context.Context, id int64) (*entity.Schedule, error) {
	var row scheduleRow

	err := repo.db.WithContext(ctx).
		Table("schedules").
		Select("schedules.*, playlists.updated_at AS playlist_updated_at").
		Joins("LEFT JOIN playlists ON playlists.id = schedules.playlist_id").
		Where("schedules.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrScheduleNotFound
		}

		return nil, errors.Wrap(err, "failed to find schedule by ID")
	}

	return row.toDomain(), nil
}

// FindByDevice retrieves every schedule for a device with its playlist's
// last-modified time, ordered by time-slot start for the resolver tie-break.
func (repo *scheduleRepository) FindByDevice(ctx context.Context, deviceID int64) ([]*entity.Schedule, error) {
	var rows []scheduleRow

	err := repo.db.WithContext(ctx).
		Table("schedules").
		Select("schedules.*, playlists.updated_at AS playlist_updated_at").
		Joins("LEFT JOIN playlists ON playlists.id = schedules.playlist_id").
		Where("schedules.device_id = ?", deviceID).
		Order("schedules.start_minute ASC, schedules.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find schedules by device")
	}

	schedules := make([]*entity.Schedule, 0, len(rows))
	for i := range rows {
		schedules = append(schedules, rows[i].toDomain())
	}

	return schedules, nil
}

// scheduleRow is the join shape of a schedule with its playlist version.
type scheduleRow struct {
	ID                int64
	DeviceID          int64
	PlaylistID        int64
	Name              string
	Days              string
	StartMinute       int
	EndMinute         int
	ValidFrom         string
	ValidUntil        string
	Enabled           bool
	UpdatedAt         time.Time
	PlaylistUpdatedAt time.Time
}

func (row *scheduleRow) toDomain() *entity.Schedule {
	return &entity.Schedule{
		ID:                row.ID,
		DeviceID:          row.DeviceID,
		PlaylistID:        row.PlaylistID,
		Name:              row.Name,
		Days:              row.Days,
		StartMinute:       row.StartMinute,
		EndMinute:         row.EndMinute,
		ValidFrom:         row.ValidFrom,
		ValidUntil:        row.ValidUntil,
		Enabled:           row.Enabled,
		UpdatedAt:         row.UpdatedAt,
		PlaylistUpdatedAt: row.PlaylistUpdatedAt,
	}
}

// fromScheduleDomain converts a domain Schedule entity to a GORM ScheduleModel.
func fromScheduleDomain(data *entity.Schedule) *model.ScheduleModel {
	if data == nil {
		return nil
	}

	return &model.ScheduleModel{
		ID:          data.ID,
		DeviceID:    data.DeviceID,
		PlaylistID:  data.PlaylistID,
		Name:        data.Name,
		Days:        data.Days,
		StartMinute: data.StartMinute,
		EndMinute:   data.EndMinute,
		ValidFrom:   data.ValidFrom,
		ValidUntil:  data.ValidUntil,
		Enabled:     data.Enabled,
	}
}
