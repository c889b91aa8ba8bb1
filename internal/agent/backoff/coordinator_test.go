package backoff

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"signage/internal/agent/state"
	"signage/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWakeLock struct {
	acquired int
	released int
}

func (w *recordingWakeLock) Acquire() error {
	w.acquired++

	return nil
}

func (w *recordingWakeLock) Release() error {
	w.released++

	return nil
}

type coordinatorFixtures struct {
	store     *state.Store
	wakeLock  *recordingWakeLock
	online    bool
	scheduled []time.Duration
	fired     []func()
}

func createTestCoordinator(t *testing.T) (*Coordinator, *coordinatorFixtures) {
	t.Helper()

	store, err := state.NewStore(t.TempDir())
	require.NoError(t, err)

	fixtures := &coordinatorFixtures{
		store:    store,
		wakeLock: &recordingWakeLock{},
		online:   true,
	}

	coordinator := NewCoordinator(
		store,
		fixtures.wakeLock,
		func(context.Context) bool { return fixtures.online },
		5*time.Second,
		slog.Default(),
	)
	coordinator.schedule = func(delay time.Duration, fn func()) {
		fixtures.scheduled = append(fixtures.scheduled, delay)
		fixtures.fired = append(fixtures.fired, fn)
	}
	coordinator.sleep = func(context.Context, time.Duration) {}

	return coordinator, fixtures
}

func TestDelay_FollowsBackoffCurve(t *testing.T) {
	expected := map[int]time.Duration{
		1:  0,
		2:  0,
		3:  60 * time.Second,
		4:  60 * time.Second,
		5:  60 * time.Second,
		6:  120 * time.Second,
		7:  120 * time.Second,
		8:  120 * time.Second,
		9:  180 * time.Second,
		15: 300 * time.Second,
		99: 300 * time.Second,
	}

	for failures, want := range expected {
		assert.Equal(t, want, Delay(failures), "failureCount=%d", failures)
	}
}

func TestCoordinator_RecordFailure_SchedulesSingleRetry(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)

	coordinator.RecordFailure(context.Background(), func(context.Context) error { return nil })

	require.Len(t, fixtures.scheduled, 1)
	assert.Equal(t, time.Duration(0), fixtures.scheduled[0])
	assert.True(t, fixtures.store.Snapshot().RetryInFlight)
	assert.Equal(t, 1, fixtures.store.Snapshot().FailureCount)
}

func TestCoordinator_RecordFailure_SuppressesConcurrentRetry(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	coordinator.RecordFailure(ctx, noop)
	coordinator.RecordFailure(ctx, noop)
	coordinator.RecordFailure(ctx, noop)

	// Every failure is counted but only the first schedules a retry.
	assert.Len(t, fixtures.scheduled, 1)
	assert.Equal(t, 3, fixtures.store.Snapshot().FailureCount)
}

func TestCoordinator_ScheduledRetrySuccess_ResetsCounter(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)

	coordinator.RecordFailure(context.Background(), func(context.Context) error { return nil })
	require.Len(t, fixtures.fired, 1)
	fixtures.fired[0]()

	snapshot := fixtures.store.Snapshot()
	assert.Zero(t, snapshot.FailureCount)
	assert.False(t, snapshot.RetryInFlight)
	assert.False(t, snapshot.LastSuccess.IsZero())
}

func TestCoordinator_ScheduledRetryFailure_ChainsLongerBackoff(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)

	fail := func(context.Context) error { return errors.New("unreachable") }
	coordinator.RecordFailure(context.Background(), fail)

	// Drive the chain: each fired retry fails and schedules the next one.
	for i := 0; i < 5; i++ {
		require.Len(t, fixtures.fired, i+1)
		fixtures.fired[i]()
	}

	assert.Equal(t, []time.Duration{
		0, 0, 60 * time.Second, 60 * time.Second, 60 * time.Second, 120 * time.Second,
	}, fixtures.scheduled)
	assert.Equal(t, 6, fixtures.store.Snapshot().FailureCount)
}

func TestCoordinator_RetrySkippedWhileOffline(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)
	fixtures.online = false

	attempts := 0
	coordinator.RecordFailure(context.Background(), func(context.Context) error {
		attempts++

		return nil
	})
	require.Len(t, fixtures.fired, 1)
	fixtures.fired[0]()

	assert.Zero(t, attempts)
	assert.False(t, fixtures.store.Snapshot().RetryInFlight)
	// The failure count is untouched, the next failure keeps escalating.
	assert.Equal(t, 1, fixtures.store.Snapshot().FailureCount)
}

func TestCoordinator_TenthFailure_EscalatesToRecovery(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)
	require.NoError(t, fixtures.store.Update(func(st *state.SyncState) {
		st.FailureCount = 9
	}))

	probed := make(chan struct{})
	coordinator.RecordFailure(context.Background(), func(context.Context) error {
		close(probed)

		return nil
	})

	select {
	case <-probed:
	case <-time.After(time.Second):
		t.Fatal("recovery probe never ran")
	}

	assert.Empty(t, fixtures.scheduled, "escalation replaces the normal retry")
	assert.Equal(t, 1, fixtures.wakeLock.released)
	assert.Equal(t, 1, fixtures.wakeLock.acquired)

	assert.Eventually(t, func() bool {
		snapshot := fixtures.store.Snapshot()

		return snapshot.FailureCount == 0 && !snapshot.RetryInFlight
	}, time.Second, 10*time.Millisecond)
}

func TestCoordinator_EscalationRespectsCooldown(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)
	require.NoError(t, fixtures.store.Update(func(st *state.SyncState) {
		st.FailureCount = 9
		st.LastEscalation = time.Now().Add(-time.Minute)
	}))

	coordinator.RecordFailure(context.Background(), func(context.Context) error { return nil })

	// Within the cooldown a plain retry is scheduled instead.
	require.Len(t, fixtures.scheduled, 1)
	assert.Equal(t, 180*time.Second, fixtures.scheduled[0])
}

func TestCoordinator_FailedProbe_KeepsFailureCount(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)
	require.NoError(t, fixtures.store.Update(func(st *state.SyncState) {
		st.FailureCount = 9
	}))

	probed := make(chan struct{})
	coordinator.RecordFailure(context.Background(), func(context.Context) error {
		close(probed)

		return errors.New("still unreachable")
	})

	select {
	case <-probed:
	case <-time.After(time.Second):
		t.Fatal("recovery probe never ran")
	}

	assert.Eventually(t, func() bool {
		snapshot := fixtures.store.Snapshot()

		return snapshot.FailureCount == 10 && !snapshot.RetryInFlight
	}, time.Second, 10*time.Millisecond)
}

func TestCoordinator_RecordSuccess_ClearsRetryState(t *testing.T) {
	coordinator, fixtures := createTestCoordinator(t)
	require.NoError(t, fixtures.store.Update(func(st *state.SyncState) {
		st.FailureCount = 7
	}))
	fixtures.store.Mutate(func(st *state.SyncState) {
		st.RetryInFlight = true
	})

	coordinator.RecordSuccess()

	snapshot := fixtures.store.Snapshot()
	assert.Zero(t, snapshot.FailureCount)
	assert.False(t, snapshot.RetryInFlight)
	assert.False(t, snapshot.LastSuccess.IsZero())
}
