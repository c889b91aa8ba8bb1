// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"signage/internal/domain/entity"
	domainerrors "signage/internal/domain/errors"
	"signage/internal/domain/repository"
	"signage/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// deviceRepository implements the repository.DeviceRepository interface.
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository is the constructor for deviceRepository.
func NewDeviceRepository(db *gorm.DB) repository.DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

// Upsert creates a device or refreshes an existing row matched by UUID.
func (repo *deviceRepository) Upsert(ctx context.Context, device *entity.Device) error {
	var existing model.DeviceModel

	err := repo.db.WithContext(ctx).
		Where("uuid = ?", device.UUID).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "failed to look up device by UUID")
		}

		deviceM := fromDeviceDomain(device)
		deviceM.Status = string(entity.DeviceOffline)
		if createErr := repo.db.WithContext(ctx).Create(deviceM).Error; createErr != nil {
			if isNotNullConstraintViolation(createErr) {
				return domainerrors.ErrDeviceNotFound.WrapMessage("missing required device information")
			}

			return domainerrors.NewDatabaseExecuteError(createErr, "failed to create device")
		}

		device.ID = deviceM.ID
		device.Status = entity.DeviceStatus(deviceM.Status)
		device.CreatedAt = deviceM.CreatedAt
		device.UpdatedAt = deviceM.UpdatedAt

		return nil
	}

	fields := map[string]any{}
	if device.Name != "" {
		fields["name"] = device.Name
	}
	if device.IP != "" {
		fields["ip"] = device.IP
	}
	if device.AppVersion != "" {
		fields["app_version"] = device.AppVersion
	}
	if len(fields) > 0 {
		if updateErr := repo.db.WithContext(ctx).
			Model(&model.DeviceModel{}).
			Where("id = ?", existing.ID).
			Updates(fields).Error; updateErr != nil {
			return errors.Wrap(updateErr, "failed to refresh device registration")
		}
	}

	refreshed, err := repo.FindByID(ctx, existing.ID)
	if err != nil {
		return err
	}
	*device = *refreshed

	return nil
}

// FindByID retrieves a device by its integer id.
func (repo *deviceRepository) FindByID(ctx context.Context, id int64) (*entity.Device, error) {
	var deviceM model.DeviceModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&deviceM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDeviceNotFound
		}

		return nil, errors.Wrap(err, "failed to find device by ID")
	}

	return toDeviceDomain(&deviceM), nil
}

// FindByUUID retrieves a device by its durable UUID.
func (repo *deviceRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*entity.Device, error) {
	var deviceM model.DeviceModel

	if err := repo.db.WithContext(ctx).
		Where("uuid = ?", id).
		First(&deviceM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDeviceNotFound
		}

		return nil, errors.Wrap(err, "failed to find device by UUID")
	}

	return toDeviceDomain(&deviceM), nil
}

// List retrieves the whole fleet.
func (repo *deviceRepository) List(ctx context.Context) ([]*entity.Device, error) {
	var deviceModels []*model.DeviceModel

	if err := repo.db.WithContext(ctx).
		Order("name ASC").
		Find(&deviceModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}

	devices := make([]*entity.Device, 0, len(deviceModels))
	for _, deviceM := range deviceModels {
		devices = append(devices, toDeviceDomain(deviceM))
	}

	return devices, nil
}

// ListIDs retrieves all device ids.
func (repo *deviceRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64

	if err := repo.db.WithContext(ctx).
		Model(&model.DeviceModel{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list device ids")
	}

	return ids, nil
}

// Delete removes a device.
func (repo *deviceRepository) Delete(ctx context.Context, id int64) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.DeviceModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete device")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDeviceNotFound
	}

	return nil
}

// ApplyPings applies one coalesced liveness update per device in a single
// transaction. A device deleted mid-window simply matches zero rows.
func (repo *deviceRepository) ApplyPings(ctx context.Context, updates []entity.PingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			fields := map[string]any{
				"status":    string(entity.DeviceOnline),
				"last_ping": update.ObservedAt,
			}
			if update.Name != "" {
				fields["name"] = update.Name
			}
			if update.IP != "" {
				fields["ip"] = update.IP
			}
			if update.CurrentMedia != "" {
				fields["current_media"] = update.CurrentMedia
				fields["current_position_ms"] = update.PositionMS
			}

			if err := tx.Model(&model.DeviceModel{}).
				Where("id = ?", update.DeviceID).
				Updates(fields).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to apply ping batch")
	}

	return nil
}

// MarkOfflineSince transitions silent devices to offline.
func (repo *deviceRepository) MarkOfflineSince(ctx context.Context, cutoff time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.DeviceModel{}).
		Where("status = ? AND last_ping < ?", string(entity.DeviceOnline), cutoff).
		Update("status", string(entity.DeviceOffline))

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to mark devices offline")
	}

	return result.RowsAffected, nil
}

// RecordAppVersion stores a reported app version, optionally clearing the
// update-requested flag in the same write.
func (repo *deviceRepository) RecordAppVersion(ctx context.Context, id int64, version string, clearUpdateRequested bool) error {
	fields := map[string]any{"app_version": version}
	if clearUpdateRequested {
		fields["update_requested"] = false
	}

	result := repo.db.WithContext(ctx).
		Model(&model.DeviceModel{}).
		Where("id = ?", id).
		Updates(fields)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to record app version")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDeviceNotFound
	}

	return nil
}

// SetUpdateRequested flips the server-only update flag.
func (repo *deviceRepository) SetUpdateRequested(ctx context.Context, id int64, requested bool) error {
	result := repo.db.WithContext(ctx).
		Model(&model.DeviceModel{}).
		Where("id = ?", id).
		Update("update_requested", requested)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to set update flag")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDeviceNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toDeviceDomain converts a GORM DeviceModel to a domain Device entity.
func toDeviceDomain(data *model.DeviceModel) *entity.Device {
	if data == nil {
		return nil
	}

	return &entity.Device{
		ID:                data.ID,
		UUID:              data.UUID,
		Name:              data.Name,
		IP:                data.IP,
		Status:            entity.DeviceStatus(data.Status),
		LastPing:          data.LastPing,
		CurrentMedia:      data.CurrentMedia,
		CurrentPositionMS: data.CurrentPositionMS,
		AppVersion:        data.AppVersion,
		UpdateRequested:   data.UpdateRequested,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

// fromDeviceDomain converts a domain Device entity to a GORM DeviceModel.
func fromDeviceDomain(data *entity.Device) *model.DeviceModel {
	if data == nil {
		return nil
	}

	return &model.DeviceModel{
		ID:                data.ID,
		UUID:              data.UUID,
		Name:              data.Name,
		IP:                data.IP,
		Status:            string(data.Status),
		LastPing:          data.LastPing,
		CurrentMedia:      data.CurrentMedia,
		CurrentPositionMS: data.CurrentPositionMS,
		AppVersion:        data.AppVersion,
		UpdateRequested:   data.UpdateRequested,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}
