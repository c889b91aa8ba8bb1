package impl

import (
	"context"
	"fmt"
	"time"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/usecase"
)

type scheduleResolver struct {
	scheduleRepo repository.ScheduleRepository
}

// NewScheduleResolver creates the active-schedule resolver.
func NewScheduleResolver(scheduleRepo repository.ScheduleRepository) usecase.ScheduleResolver {
	return &scheduleResolver{
		scheduleRepo: scheduleRepo,
	}
}

// Resolve selects the schedule a device should be playing at the given
// instant and derives the version vector. The aggregate component spans every
// schedule of the device, active or not, so edits behind an inactive schedule
// still surface.
func (r *scheduleResolver) Resolve(ctx context.Context, deviceID int64, now time.Time) (*usecase.Resolution, error) {
	schedules, err := r.scheduleRepo.FindByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules for device: %w", err)
	}

	resolution := &usecase.Resolution{
		Active: entity.ActiveScheduleAt(schedules, now),
		Vector: entity.VersionVector{
			AllSchedules: entity.AggregateVersion(schedules),
		},
	}

	if resolution.Active != nil {
		resolution.Vector.Schedule = entity.VersionFromTime(resolution.Active.UpdatedAt)
		resolution.Vector.Playlist = entity.VersionFromTime(resolution.Active.PlaylistUpdatedAt)
	}

	return resolution, nil
}
