package postgres

import (
	"context"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// commandRepository implements the repository.CommandRepository interface.
type commandRepository struct {
	db *gorm.DB
}

// NewCommandRepository is the constructor for commandRepository.
func NewCommandRepository(db *gorm.DB) repository.CommandRepository {
	return &commandRepository{
		db: db,
	}
}

// Enqueue appends a command to the device's inbox.
func (repo *commandRepository) Enqueue(ctx context.Context, command *entity.Command) error {
	commandM := &model.DeviceCommandModel{
		DeviceID:  command.DeviceID,
		Type:      command.Type,
		RequestID: command.RequestID,
		Status:    string(entity.CommandPending),
	}

	if err := repo.db.WithContext(ctx).Create(commandM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrDeviceNotFound
		}

		return errors.Wrap(err, "failed to enqueue command")
	}

	command.ID = commandM.ID
	command.Status = entity.CommandStatus(commandM.Status)
	command.CreatedAt = commandM.CreatedAt

	return nil
}

// PopOldestPending atomically claims the oldest pending command for the
// device, transitioning it to processing. Returns nil when the inbox is
// empty. SKIP LOCKED keeps concurrent heartbeats from claiming the same row.
func (repo *commandRepository) PopOldestPending(ctx context.Context, deviceID int64) (*entity.Command, error) {
	var claimed *model.DeviceCommandModel

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commandM model.DeviceCommandModel

		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("device_id = ? AND status = ?", deviceID, string(entity.CommandPending)).
			Order("id ASC").
			Take(&commandM).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}

			return err
		}

		if err := tx.Model(&model.DeviceCommandModel{}).
			Where("id = ?", commandM.ID).
			Update("status", string(entity.CommandProcessing)).Error; err != nil {
			return err
		}

		commandM.Status = string(entity.CommandProcessing)
		claimed = &commandM

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to pop pending command")
	}

	if claimed == nil {
		return nil, nil
	}

	return &entity.Command{
		ID:        claimed.ID,
		DeviceID:  claimed.DeviceID,
		Type:      claimed.Type,
		RequestID: claimed.RequestID,
		Status:    entity.CommandStatus(claimed.Status),
		CreatedAt: claimed.CreatedAt,
	}, nil
}
