// Package impl provides concrete implementations of the usecase interfaces.
package impl

import (
	"context"
	"fmt"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/domain/service"
	"signage/internal/usecase"
)

type deviceService struct {
	deviceRepo  repository.DeviceRepository
	commandRepo repository.CommandRepository
	cache       service.ReconciliationCache
	snapshots   usecase.SnapshotStore
}

// NewDeviceService creates the fleet management service.
func NewDeviceService(
	deviceRepo repository.DeviceRepository,
	commandRepo repository.CommandRepository,
	cache service.ReconciliationCache,
	snapshots usecase.SnapshotStore,
) usecase.DeviceUsecase {
	return &deviceService{
		deviceRepo:  deviceRepo,
		commandRepo: commandRepo,
		cache:       cache,
		snapshots:   snapshots,
	}
}

// Register creates or refreshes a device by its durable UUID.
func (s *deviceService) Register(ctx context.Context, input *usecase.RegistrationInput) (*entity.Device, error) {
	device := &entity.Device{
		UUID:       input.UUID,
		Name:       input.Name,
		IP:         input.IP,
		AppVersion: input.AppVersion,
	}

	if err := s.deviceRepo.Upsert(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	return device, nil
}

// Get retrieves one device.
func (s *deviceService) Get(ctx context.Context, id int64) (*entity.Device, error) {
	device, err := s.deviceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return device, nil
}

// List retrieves the whole fleet.
func (s *deviceService) List(ctx context.Context) ([]*entity.Device, error) {
	devices, err := s.deviceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return devices, nil
}

// Delete removes a device together with its cached reconciliation state.
func (s *deviceService) Delete(ctx context.Context, id int64) error {
	if err := s.deviceRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(id)
	s.snapshots.Forget(id)

	return nil
}

// RequestUpdate flags a device for an app update on its next heartbeat.
func (s *deviceService) RequestUpdate(ctx context.Context, id int64) error {
	if err := s.deviceRepo.SetUpdateRequested(ctx, id, true); err != nil {
		return err
	}

	return nil
}

// EnqueueCommand appends an out-of-band instruction to the device inbox.
func (s *deviceService) EnqueueCommand(ctx context.Context, deviceID int64, commandType, requestID string) (*entity.Command, error) {
	if _, err := s.deviceRepo.FindByID(ctx, deviceID); err != nil {
		return nil, err
	}

	command := &entity.Command{
		DeviceID:  deviceID,
		Type:      commandType,
		RequestID: requestID,
	}
	if err := s.commandRepo.Enqueue(ctx, command); err != nil {
		return nil, fmt.Errorf("failed to enqueue command: %w", err)
	}

	return command, nil
}
