package impl

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heartbeatFixtures holds all test dependencies for heartbeat service tests.
type heartbeatFixtures struct {
	service     usecase.HeartbeatUsecase
	deviceRepo  *fakeDeviceRepo
	commandRepo *fakeCommandRepo
	resolver    *fakeResolver
	cache       *fakeCache
	snapshots   usecase.SnapshotStore
	pings       *fakePingQueue
	now         time.Time
}

func createTestHeartbeatService(t *testing.T) *heartbeatFixtures {
	t.Helper()

	fixtures := &heartbeatFixtures{
		deviceRepo: &fakeDeviceRepo{
			recordAppVersion: func(_ context.Context, _ int64, _ string, _ bool) error {
				t.Fatal("unexpected RecordAppVersion call")

				return nil
			},
		},
		commandRepo: &fakeCommandRepo{
			popOldestPending: func(_ context.Context, _ int64) (*entity.Command, error) {
				return nil, nil
			},
		},
		resolver:  &fakeResolver{resolution: &usecase.Resolution{}},
		cache:     newFakeCache(),
		snapshots: NewSnapshotStore(),
		pings:     &fakePingQueue{},
		now:       time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	fixtures.deviceRepo.findByID = func(_ context.Context, id int64) (*entity.Device, error) {
		return &entity.Device{ID: id, Name: "lobby", AppVersion: "1.0.0"}, nil
	}

	service := NewHeartbeatService(
		fixtures.deviceRepo,
		fixtures.commandRepo,
		fixtures.resolver,
		fixtures.cache,
		fixtures.snapshots,
		fixtures.pings,
		slog.Default(),
	)
	service.(*heartbeatService).now = func() time.Time { return fixtures.now }
	fixtures.service = service

	return fixtures
}

func TestHeartbeatService_UnknownDevice(t *testing.T) {
	fixtures := createTestHeartbeatService(t)
	fixtures.deviceRepo.findByID = func(_ context.Context, _ int64) (*entity.Device, error) {
		return nil, repository.ErrDeviceNotFound
	}

	_, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{DeviceID: 99})
	require.ErrorIs(t, err, repository.ErrDeviceNotFound)

	// A failed request leaves no side effects.
	assert.Empty(t, fixtures.pings.enqueued)
	assert.Zero(t, fixtures.resolver.calls)
}

func TestHeartbeatService_CacheHitShortCircuits(t *testing.T) {
	fixtures := createTestHeartbeatService(t)

	vector := entity.VersionVector{Schedule: 1, Playlist: 2, AllSchedules: 3}
	playlistID := int64(42)
	fixtures.cache.Put(1, &entity.CacheEntry{
		Vector:           vector,
		ActivePlaylistID: &playlistID,
		WrittenAt:        fixtures.now,
	})

	result, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{
		DeviceID:     1,
		ClientVector: vector,
	})
	require.NoError(t, err)

	assert.False(t, result.ScheduleChanged)
	assert.False(t, result.PlaylistChanged)
	assert.Equal(t, vector, result.NewVector)
	require.NotNil(t, result.ActivePlaylistID)
	assert.Equal(t, playlistID, *result.ActivePlaylistID)
	assert.Zero(t, fixtures.resolver.calls, "cache hit must not invoke the resolver")

	// Liveness is still recorded asynchronously.
	require.Len(t, fixtures.pings.enqueued, 1)
	assert.Equal(t, int64(1), fixtures.pings.enqueued[0].DeviceID)
}

func TestHeartbeatService_StaleClientVectorForcesResolve(t *testing.T) {
	fixtures := createTestHeartbeatService(t)

	cached := entity.VersionVector{Schedule: 1, Playlist: 2, AllSchedules: 3}
	fixtures.cache.Put(1, &entity.CacheEntry{Vector: cached, WrittenAt: fixtures.now})

	fresh := entity.VersionVector{Schedule: 10, Playlist: 20, AllSchedules: 30}
	fixtures.resolver.resolution = &usecase.Resolution{
		Active: &entity.Schedule{ID: 5, PlaylistID: 7},
		Vector: fresh,
	}

	// Client lags behind the cached vector: the unexpired entry is not enough.
	result, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{
		DeviceID:     1,
		ClientVector: entity.VersionVector{},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fixtures.resolver.calls)
	assert.True(t, result.ScheduleChanged)
	assert.True(t, result.PlaylistChanged)
	assert.Equal(t, fresh, result.NewVector)

	// The resolve refreshed the cache entry.
	entry, hit := fixtures.cache.Get(1)
	require.True(t, hit)
	assert.Equal(t, fresh, entry.Vector)
}

func TestHeartbeatService_UnchangedVectorOnSecondHeartbeat(t *testing.T) {
	fixtures := createTestHeartbeatService(t)

	vector := entity.VersionVector{Schedule: 10, Playlist: 20, AllSchedules: 30}
	fixtures.resolver.resolution = &usecase.Resolution{
		Active: &entity.Schedule{ID: 5, PlaylistID: 7},
		Vector: vector,
	}

	input := &usecase.ReconcileInput{DeviceID: 1, ClientVector: vector}

	first, err := fixtures.service.Reconcile(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.ScheduleChanged)
	assert.False(t, first.PlaylistChanged)
	assert.Equal(t, 1, fixtures.resolver.calls)

	second, err := fixtures.service.Reconcile(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, second.ScheduleChanged)
	assert.False(t, second.PlaylistChanged)
	assert.Equal(t, 1, fixtures.resolver.calls, "second heartbeat must be a cache hit")
}

func TestHeartbeatService_TransitionToNoScheduleDetected(t *testing.T) {
	fixtures := createTestHeartbeatService(t)

	// Previous resolution had an active schedule.
	fixtures.snapshots.Store(1, usecase.ResolutionSnapshot{
		ScheduleVersion:   0,
		PlaylistVersion:   0,
		HadActiveSchedule: true,
	})

	// Versions are identical, only the active flag flips. A pure version
	// comparison would miss this.
	fixtures.resolver.resolution = &usecase.Resolution{Active: nil, Vector: entity.VersionVector{}}

	result, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{
		DeviceID:     1,
		ClientVector: entity.VersionVector{},
	})
	require.NoError(t, err)

	assert.True(t, result.ScheduleChanged)
	assert.False(t, result.PlaylistChanged)
	assert.Nil(t, result.ActivePlaylistID)

	snapshot, ok := fixtures.snapshots.Load(1)
	require.True(t, ok)
	assert.False(t, snapshot.HadActiveSchedule)
}

func TestHeartbeatService_AppVersionSelfHeal(t *testing.T) {
	fixtures := createTestHeartbeatService(t)
	fixtures.deviceRepo.findByID = func(_ context.Context, id int64) (*entity.Device, error) {
		return &entity.Device{ID: id, AppVersion: "1.0.0", UpdateRequested: true}, nil
	}

	var recordedVersion string
	var clearedFlag bool
	fixtures.deviceRepo.recordAppVersion = func(_ context.Context, _ int64, version string, clear bool) error {
		recordedVersion = version
		clearedFlag = clear

		return nil
	}

	result, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{
		DeviceID: 1,
		Metadata: usecase.HeartbeatMetadata{AppVersion: "1.1.0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", recordedVersion)
	assert.True(t, clearedFlag, "a new app version cancels the pending update")
	assert.False(t, result.UpdateRequested)
}

func TestHeartbeatService_UpdateRequestedIsServerDerived(t *testing.T) {
	fixtures := createTestHeartbeatService(t)
	fixtures.deviceRepo.findByID = func(_ context.Context, id int64) (*entity.Device, error) {
		return &entity.Device{ID: id, AppVersion: "1.0.0", UpdateRequested: true}, nil
	}

	// Same app version as stored: no self-heal, the flag stays up.
	result, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{
		DeviceID: 1,
		Metadata: usecase.HeartbeatMetadata{AppVersion: "1.0.0"},
	})
	require.NoError(t, err)
	assert.True(t, result.UpdateRequested)
}

func TestHeartbeatService_PopsAtMostOneCommand(t *testing.T) {
	fixtures := createTestHeartbeatService(t)

	command := &entity.Command{
		ID:       7,
		DeviceID: 1,
		Type:     entity.CommandCaptureScreenshot,
		Status:   entity.CommandProcessing,
	}
	fixtures.commandRepo.popOldestPending = func(_ context.Context, deviceID int64) (*entity.Command, error) {
		assert.Equal(t, int64(1), deviceID)

		return command, nil
	}

	result, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{DeviceID: 1})
	require.NoError(t, err)

	require.Len(t, result.Commands, 1)
	assert.Equal(t, command, result.Commands[0])
}

func TestHeartbeatService_MetadataFlowsIntoPingBatch(t *testing.T) {
	fixtures := createTestHeartbeatService(t)

	_, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{
		DeviceID: 1,
		Metadata: usecase.HeartbeatMetadata{
			Name:              "lobby-screen",
			IP:                "10.0.0.5",
			CurrentMedia:      "a.mp4",
			CurrentPositionMS: 4500,
		},
	})
	require.NoError(t, err)

	// Reported name, address and playback position all land on the device row
	// through the next batch flush.
	require.Len(t, fixtures.pings.enqueued, 1)
	update := fixtures.pings.enqueued[0]
	assert.Equal(t, "lobby-screen", update.Name)
	assert.Equal(t, "10.0.0.5", update.IP)
	assert.Equal(t, "a.mp4", update.CurrentMedia)
	assert.Equal(t, int64(4500), update.PositionMS)
	assert.Equal(t, fixtures.now, update.ObservedAt)
}

func TestHeartbeatService_ResolverErrorLeavesNoSideEffects(t *testing.T) {
	fixtures := createTestHeartbeatService(t)
	fixtures.resolver.err = assert.AnError

	_, err := fixtures.service.Reconcile(context.Background(), &usecase.ReconcileInput{DeviceID: 1})
	require.Error(t, err)

	assert.Empty(t, fixtures.pings.enqueued)
	_, hit := fixtures.cache.Get(1)
	assert.False(t, hit)
	_, ok := fixtures.snapshots.Load(1)
	assert.False(t, ok)
}
