package repository

import (
	"context"

	"signage/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrScheduleNotFound is returned when a schedule is not found.
var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleRepository defines the interface for schedule-related database operations.
type ScheduleRepository interface {
	// Create persists a new schedule.
	Create(ctx context.Context, schedule *entity.Schedule) error

	// Update persists schedule changes and advances its last-modified time.
	Update(ctx context.Context, schedule *entity.Schedule) error

	// Delete removes a schedule.
	Delete(ctx context.Context, id int64) error

	// FindByID retrieves a schedule by id.
	FindByID(ctx context.Context, id int64) (*entity.Schedule, error)

	// FindByDevice retrieves every schedule for a device, each carrying its
	// playlist's last-modified time for aggregate-version computation.
	FindByDevice(ctx context.Context, deviceID int64) ([]*entity.Schedule, error)
}
