package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/domain/service"
	"signage/internal/usecase"
)

type heartbeatService struct {
	deviceRepo  repository.DeviceRepository
	commandRepo repository.CommandRepository
	resolver    usecase.ScheduleResolver
	cache       service.ReconciliationCache
	snapshots   usecase.SnapshotStore
	pings       usecase.PingQueue
	logger      *slog.Logger

	now func() time.Time
}

// NewHeartbeatService creates the heartbeat reconciler.
func NewHeartbeatService(
	deviceRepo repository.DeviceRepository,
	commandRepo repository.CommandRepository,
	resolver usecase.ScheduleResolver,
	cache service.ReconciliationCache,
	snapshots usecase.SnapshotStore,
	pings usecase.PingQueue,
	logger *slog.Logger,
) usecase.HeartbeatUsecase {
	return &heartbeatService{
		deviceRepo:  deviceRepo,
		commandRepo: commandRepo,
		resolver:    resolver,
		cache:       cache,
		snapshots:   snapshots,
		pings:       pings,
		logger:      logger,
		now:         time.Now,
	}
}

// Reconcile compares the device's reported vector against authoritative
// state. Resolution happens before any side effect, so a failed request
// leaves the cache, snapshot store and ping buffer untouched.
func (s *heartbeatService) Reconcile(ctx context.Context, input *usecase.ReconcileInput) (*usecase.ReconcileResult, error) {
	device, err := s.deviceRepo.FindByID(ctx, input.DeviceID)
	if err != nil {
		// ErrDeviceNotFound passes through untouched; the 404 tells the
		// device to re-register rather than retry.
		return nil, err
	}

	result, err := s.reconcileVersions(ctx, input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.pings.Enqueue(entity.PingUpdate{
		DeviceID:     device.ID,
		Name:         input.Metadata.Name,
		IP:           input.Metadata.IP,
		CurrentMedia: input.Metadata.CurrentMedia,
		PositionMS:   input.Metadata.CurrentPositionMS,
		ObservedAt:   now,
	})

	result.UpdateRequested = device.UpdateRequested
	if input.Metadata.AppVersion != "" && input.Metadata.AppVersion != device.AppVersion {
		// A new app version means any previously requested update completed.
		if err := s.deviceRepo.RecordAppVersion(ctx, device.ID, input.Metadata.AppVersion, device.UpdateRequested); err != nil {
			return nil, fmt.Errorf("failed to record app version: %w", err)
		}
		if device.UpdateRequested {
			s.logger.InfoContext(ctx, "update request fulfilled by reported app version",
				slog.Int64("deviceId", device.ID),
				slog.String("appVersion", input.Metadata.AppVersion),
			)
			result.UpdateRequested = false
		}
	}

	command, err := s.commandRepo.PopOldestPending(ctx, device.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to pop pending command: %w", err)
	}
	if command != nil {
		result.Commands = append(result.Commands, command)
	}

	return result, nil
}

// reconcileVersions answers "what changed" for the device, consulting the
// cache before paying for a resolver call.
func (s *heartbeatService) reconcileVersions(ctx context.Context, input *usecase.ReconcileInput) (*usecase.ReconcileResult, error) {
	// A hit is only valid when the client's reported vector equals the last
	// resolved one; a mismatch forces a fresh resolution even inside the TTL.
	if entry, hit := s.cache.Get(input.DeviceID); hit && entry.Vector.Equal(input.ClientVector) {
		return &usecase.ReconcileResult{
			NewVector:        entry.Vector,
			ActivePlaylistID: entry.ActivePlaylistID,
			Commands:         []*entity.Command{},
		}, nil
	}

	resolution, err := s.resolver.Resolve(ctx, input.DeviceID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active schedule: %w", err)
	}

	hasActive := resolution.Active != nil
	transition := false
	if previous, ok := s.snapshots.Load(input.DeviceID); ok {
		transition = previous.HadActiveSchedule != hasActive
	}

	scheduleChanged := resolution.Vector.Schedule != input.ClientVector.Schedule ||
		resolution.Vector.AllSchedules != input.ClientVector.AllSchedules ||
		transition
	playlistChanged := resolution.Vector.Playlist != input.ClientVector.Playlist

	s.snapshots.Store(input.DeviceID, usecase.ResolutionSnapshot{
		ScheduleVersion:   resolution.Vector.Schedule,
		PlaylistVersion:   resolution.Vector.Playlist,
		HadActiveSchedule: hasActive,
	})
	s.cache.Put(input.DeviceID, &entity.CacheEntry{
		Vector:           resolution.Vector,
		ActivePlaylistID: resolution.ActivePlaylistID(),
		WrittenAt:        s.now(),
	})

	return &usecase.ReconcileResult{
		ScheduleChanged:  scheduleChanged,
		PlaylistChanged:  playlistChanged,
		NewVector:        resolution.Vector,
		ActivePlaylistID: resolution.ActivePlaylistID(),
		Commands:         []*entity.Command{},
	}, nil
}
