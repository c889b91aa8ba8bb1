package impl

import (
	"context"
	"testing"
	"time"

	"signage/config"
	"signage/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMaintenanceConfig() *config.Config {
	return &config.Config{
		Sync: &config.SyncConfig{
			LivenessTimeout: 45 * time.Second,
		},
	}
}

func TestMaintenanceService_SweepUsesLivenessCutoff(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	var cutoff time.Time
	repo := &fakeDeviceRepo{
		markOfflineSince: func(_ context.Context, c time.Time) (int64, error) {
			cutoff = c

			return 3, nil
		},
	}

	service := NewMaintenanceService(newMaintenanceConfig(), repo, &fakePingQueue{}, NewSnapshotStore())
	service.(*maintenanceService).now = func() time.Time { return now }

	swept, err := service.SweepOffline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), swept)
	assert.Equal(t, now.Add(-45*time.Second), cutoff)
}

func TestMaintenanceService_FlushDelegatesToQueue(t *testing.T) {
	pings := &fakePingQueue{}
	service := NewMaintenanceService(newMaintenanceConfig(), &fakeDeviceRepo{}, pings, NewSnapshotStore())

	require.NoError(t, service.FlushPings(context.Background()))
	assert.Equal(t, 1, pings.flushes)
}

func TestMaintenanceService_CleanupDropsDeletedDevices(t *testing.T) {
	repo := &fakeDeviceRepo{
		listIDs: func(_ context.Context) ([]int64, error) {
			return []int64{1, 3}, nil
		},
	}
	snapshots := NewSnapshotStore()
	for _, id := range []int64{1, 2, 3} {
		snapshots.Store(id, usecase.ResolutionSnapshot{HadActiveSchedule: true})
	}

	service := NewMaintenanceService(newMaintenanceConfig(), repo, &fakePingQueue{}, snapshots)
	require.NoError(t, service.CleanupSnapshots(context.Background()))

	_, ok := snapshots.Load(1)
	assert.True(t, ok)
	_, ok = snapshots.Load(2)
	assert.False(t, ok, "snapshot of deleted device 2 should be gone")
	_, ok = snapshots.Load(3)
	assert.True(t, ok)
}
