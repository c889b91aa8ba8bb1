package impl

import (
	"context"
	"fmt"

	"signage/internal/domain/entity"
	domainerrors "signage/internal/domain/errors"
	"signage/internal/domain/repository"
	"signage/internal/domain/service"
	"signage/internal/usecase"
)

const minutesPerDay = 24 * 60

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	cache        service.ReconciliationCache
}

// NewScheduleService creates the schedule management service.
func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	cache service.ReconciliationCache,
) usecase.ScheduleUsecase {
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		cache:        cache,
	}
}

func validateWindow(input *usecase.ScheduleInput) error {
	if input.StartMinute < 0 || input.EndMinute >= minutesPerDay || input.StartMinute > input.EndMinute {
		return domainerrors.ErrInvalidScheduleWindow
	}

	return nil
}

// Create adds a schedule and drops the device's cached reconciliation entry
// so the next heartbeat re-resolves.
func (s *scheduleService) Create(ctx context.Context, input *usecase.ScheduleInput) (*entity.Schedule, error) {
	if err := validateWindow(input); err != nil {
		return nil, err
	}

	schedule := &entity.Schedule{
		DeviceID:    input.DeviceID,
		PlaylistID:  input.PlaylistID,
		Name:        input.Name,
		Days:        input.Days,
		StartMinute: input.StartMinute,
		EndMinute:   input.EndMinute,
		ValidFrom:   input.ValidFrom,
		ValidUntil:  input.ValidUntil,
		Enabled:     input.Enabled,
	}
	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.cache.Invalidate(schedule.DeviceID)

	return schedule, nil
}

// Update replaces a schedule's mutable fields. When the schedule moves to a
// different device, both devices' cache entries are dropped.
func (s *scheduleService) Update(ctx context.Context, id int64, input *usecase.ScheduleInput) (*entity.Schedule, error) {
	if err := validateWindow(input); err != nil {
		return nil, err
	}

	existing, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	schedule := &entity.Schedule{
		ID:          id,
		DeviceID:    input.DeviceID,
		PlaylistID:  input.PlaylistID,
		Name:        input.Name,
		Days:        input.Days,
		StartMinute: input.StartMinute,
		EndMinute:   input.EndMinute,
		ValidFrom:   input.ValidFrom,
		ValidUntil:  input.ValidUntil,
		Enabled:     input.Enabled,
	}
	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.cache.Invalidate(input.DeviceID)
	if existing.DeviceID != input.DeviceID {
		s.cache.Invalidate(existing.DeviceID)
	}

	updated, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a schedule and invalidates the owning device.
func (s *scheduleService) Delete(ctx context.Context, id int64) error {
	existing, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(existing.DeviceID)

	return nil
}

// Get retrieves one schedule.
func (s *scheduleService) Get(ctx context.Context, id int64) (*entity.Schedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return schedule, nil
}

// ListForDevice returns every schedule for a device plus the aggregate
// version the device compares against its all_schedules component.
func (s *scheduleService) ListForDevice(ctx context.Context, deviceID int64) (*usecase.DeviceScheduleSet, error) {
	schedules, err := s.scheduleRepo.FindByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules for device: %w", err)
	}

	return &usecase.DeviceScheduleSet{
		Schedules:        schedules,
		AggregateVersion: entity.AggregateVersion(schedules),
	}, nil
}
