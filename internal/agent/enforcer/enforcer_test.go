package enforcer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"signage/config"
	"signage/internal/agent/media"
	"signage/internal/agent/state"
	"signage/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	plays []int64
	files [][]string
	stops int
}

func (p *recordingPlayer) Play(playlistID int64, files []string) error {
	p.plays = append(p.plays, playlistID)
	p.files = append(p.files, files)

	return nil
}

func (p *recordingPlayer) Stop() error {
	p.stops++

	return nil
}

type enforcerFixtures struct {
	store  *state.Store
	media  *media.Store
	player *recordingPlayer
}

// Monday 2026-03-02 10:00 UTC, inside a 08:00-17:00 weekday window.
var tickInstant = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func createTestEnforcer(t *testing.T) (*Enforcer, *enforcerFixtures) {
	t.Helper()

	store, err := state.NewStore(t.TempDir())
	require.NoError(t, err)

	mediaDir := t.TempDir()
	mediaStore, err := media.NewStore(mediaDir, slog.Default())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "a.mp4"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "b.mp4"), []byte("b"), 0o600))

	fixtures := &enforcerFixtures{
		store:  store,
		media:  mediaStore,
		player: &recordingPlayer{},
	}

	cfg := &config.Config{Agent: &config.AgentConfig{EnforcerTick: time.Second}}
	enforcer := New(cfg, store, mediaStore, fixtures.player, slog.Default())
	enforcer.now = func() time.Time { return tickInstant }

	return enforcer, fixtures
}

func seedSchedule(t *testing.T, store *state.Store, playlistID int64, items ...string) {
	t.Helper()

	playlistItems := make([]entity.PlaylistItem, 0, len(items))
	for i, filename := range items {
		playlistItems = append(playlistItems, entity.PlaylistItem{
			MediaID:  int64(i + 1),
			Position: i,
			Media:    &entity.Media{ID: int64(i + 1), Filename: filename},
		})
	}

	require.NoError(t, store.Update(func(st *state.SyncState) {
		st.Schedules = []*entity.Schedule{{
			ID:          1,
			DeviceID:    1,
			PlaylistID:  playlistID,
			Days:        "mon,tue,wed,thu,fri",
			StartMinute: 480,
			EndMinute:   1020,
			Enabled:     true,
		}}
		st.Playlists[playlistID] = &entity.Playlist{ID: playlistID, Items: playlistItems}
	}))
}

func TestEnforcer_Tick_StartsPlaybackInsideWindow(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4", "b.mp4")

	enforcer.Tick()

	require.Equal(t, []int64{7}, fixtures.player.plays)
	assert.Len(t, fixtures.player.files[0], 2)
	assert.Equal(t, "[PLAYING] playlist 7", enforcer.Status())

	playing, playlistID := enforcer.Playing()
	assert.True(t, playing)
	assert.Equal(t, int64(7), playlistID)
	assert.True(t, fixtures.store.Snapshot().IsPlaylistActive)
}

func TestEnforcer_Tick_IsIdempotent(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4")

	enforcer.Tick()
	enforcer.Tick()
	enforcer.Tick()

	assert.Len(t, fixtures.player.plays, 1)
	assert.Zero(t, fixtures.player.stops)
}

func TestEnforcer_Tick_StandbyOutsideWindow(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4")

	enforcer.Tick()
	require.Len(t, fixtures.player.plays, 1)

	// 17:01 is one minute past the inclusive end.
	enforcer.now = func() time.Time {
		return time.Date(2026, 3, 2, 17, 1, 0, 0, time.UTC)
	}
	enforcer.Tick()

	assert.Equal(t, 1, fixtures.player.stops)
	assert.Equal(t, "[STANDBY] no schedule active", enforcer.Status())
	assert.False(t, fixtures.store.Snapshot().IsPlaylistActive)
}

func TestEnforcer_Tick_InclusiveWindowEnd(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4")

	// 17:00 exactly is still inside the window.
	enforcer.now = func() time.Time {
		return time.Date(2026, 3, 2, 17, 0, 59, 0, time.UTC)
	}
	enforcer.Tick()

	assert.Len(t, fixtures.player.plays, 1)
}

func TestEnforcer_Tick_NoLocalMediaFallsBackToStandby(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "missing.mp4")

	enforcer.Tick()

	assert.Empty(t, fixtures.player.plays)
	assert.Equal(t, "[STANDBY] no media available for playlist 7", enforcer.Status())
}

func TestEnforcer_Tick_SkipsMissingFilesButPlaysRest(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4", "missing.mp4", "b.mp4")

	enforcer.Tick()

	require.Len(t, fixtures.player.files, 1)
	assert.Len(t, fixtures.player.files[0], 2)
}

func TestEnforcer_CurrentMediaTracksPlayback(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4", "b.mp4")

	enforcer.Tick()
	assert.Equal(t, "a.mp4", enforcer.CurrentMedia())

	enforcer.now = func() time.Time {
		return time.Date(2026, 3, 2, 17, 1, 0, 0, time.UTC)
	}
	enforcer.Tick()
	assert.Empty(t, enforcer.CurrentMedia())
}

func TestEnforcer_Shutdown_ReleasesPlayback(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4")
	enforcer.Tick()

	enforcer.Shutdown()

	// The player is stopped synchronously, not left looping.
	assert.Equal(t, 1, fixtures.player.stops)
	assert.Equal(t, "[STANDBY] shutting down", enforcer.Status())
	assert.Empty(t, enforcer.CurrentMedia())
	assert.False(t, fixtures.store.Snapshot().IsPlaylistActive)
}

func TestEnforcer_Serve_ReturnsAfterShutdown(t *testing.T) {
	enforcer, _ := createTestEnforcer(t)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- enforcer.Serve(context.Background())
	}()

	enforcer.Shutdown()

	select {
	case err := <-serveDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestEnforcer_Tick_RestartsWhenPlaylistContentChanges(t *testing.T) {
	enforcer, fixtures := createTestEnforcer(t)
	seedSchedule(t, fixtures.store, 7, "a.mp4")

	enforcer.Tick()
	seedSchedule(t, fixtures.store, 7, "a.mp4", "b.mp4")
	enforcer.Tick()

	assert.Equal(t, []int64{7, 7}, fixtures.player.plays)
	assert.Len(t, fixtures.player.files[1], 2)
}
