package impl

import (
	"context"
	"fmt"
	"time"

	"signage/config"
	"signage/internal/domain/repository"
	"signage/internal/usecase"
)

type maintenanceService struct {
	deviceRepo      repository.DeviceRepository
	pings           usecase.PingQueue
	snapshots       usecase.SnapshotStore
	livenessTimeout time.Duration

	now func() time.Time
}

// NewMaintenanceService creates the service backing the periodic background
// jobs.
func NewMaintenanceService(
	cfg *config.Config,
	deviceRepo repository.DeviceRepository,
	pings usecase.PingQueue,
	snapshots usecase.SnapshotStore,
) usecase.MaintenanceUsecase {
	return &maintenanceService{
		deviceRepo:      deviceRepo,
		pings:           pings,
		snapshots:       snapshots,
		livenessTimeout: cfg.Sync.LivenessTimeout,
		now:             time.Now,
	}
}

// FlushPings applies the coalesced liveness writes gathered since the last
// flush.
func (s *maintenanceService) FlushPings(ctx context.Context) error {
	return s.pings.Flush(ctx)
}

// SweepOffline marks devices silent past the liveness timeout as offline.
// Running on its own interval keeps offline detection independent of the
// heartbeat path: a burst of heartbeat failures cannot mask a dead device.
func (s *maintenanceService) SweepOffline(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.livenessTimeout)

	swept, err := s.deviceRepo.MarkOfflineSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep offline devices: %w", err)
	}

	return swept, nil
}

// CleanupSnapshots sheds resolution snapshots of deleted devices.
func (s *maintenanceService) CleanupSnapshots(ctx context.Context) error {
	ids, err := s.deviceRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices for snapshot cleanup: %w", err)
	}

	keep := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	s.snapshots.Retain(keep)

	return nil
}
