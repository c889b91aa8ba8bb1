package usecase

import (
	"context"

	"signage/internal/domain/entity"
)

// ScheduleInput carries the mutable fields of a schedule.
type ScheduleInput struct {
	DeviceID    int64  `json:"device_id"`
	PlaylistID  int64  `json:"playlist_id"`
	Name        string `json:"name"`
	Days        string `json:"days"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	ValidFrom   string `json:"valid_from"`
	ValidUntil  string `json:"valid_until"`
	Enabled     bool   `json:"enabled"`
}

// DeviceScheduleSet is the full-schedule-list payload a device uses to
// refresh its local cache when the aggregate version moved.
type DeviceScheduleSet struct {
	Schedules        []*entity.Schedule `json:"schedules"`
	AggregateVersion int64              `json:"aggregate_version"`
}

// ScheduleUsecase defines schedule management. Every mutation invalidates the
// affected device's reconciliation cache entry as a side effect.
type ScheduleUsecase interface {
	// Create adds a schedule for a device.
	Create(ctx context.Context, input *ScheduleInput) (*entity.Schedule, error)

	// Update replaces a schedule's mutable fields.
	Update(ctx context.Context, id int64, input *ScheduleInput) (*entity.Schedule, error)

	// Delete removes a schedule.
	Delete(ctx context.Context, id int64) error

	// Get retrieves one schedule.
	Get(ctx context.Context, id int64) (*entity.Schedule, error)

	// ListForDevice returns every schedule for a device plus the aggregate
	// version.
	ListForDevice(ctx context.Context, deviceID int64) (*DeviceScheduleSet, error)
}
