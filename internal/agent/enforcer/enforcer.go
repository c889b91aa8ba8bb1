// Package enforcer turns the synced schedule set into playback. Every tick it
// evaluates what should be on screen right now and converges the player to it.
package enforcer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"signage/config"
	"signage/internal/agent/media"
	"signage/internal/agent/state"
	"signage/internal/domain/entity"
)

const (
	modeStandby = "STANDBY"
	modePlaying = "PLAYING"
)

// Player renders content on screen. The enforcer only ever tells it which
// playlist and which local files to loop; rendering details live behind it.
type Player interface {
	Play(playlistID int64, files []string) error
	Stop() error
}

// LogPlayer is the headless Player used when no renderer is wired in. It logs
// transitions, which is also what integration environments run against.
type LogPlayer struct {
	logger *slog.Logger
}

// NewLogPlayer creates the logging player.
func NewLogPlayer(logger *slog.Logger) *LogPlayer {
	return &LogPlayer{logger: logger}
}

func (p *LogPlayer) Play(playlistID int64, files []string) error {
	p.logger.Info("playback started",
		slog.Int64("playlistID", playlistID),
		slog.Int("files", len(files)),
	)

	return nil
}

func (p *LogPlayer) Stop() error {
	p.logger.Info("playback stopped")

	return nil
}

// Enforcer is the playback state machine. Schedules decide, ticks converge:
// a tick that observes the already-enforced state is a no-op.
type Enforcer struct {
	store  *state.Store
	media  *media.Store
	player Player
	tick   time.Duration
	logger *slog.Logger

	now func() time.Time

	done     chan struct{}
	stopOnce sync.Once

	mu           sync.Mutex
	mode         string
	playlistID   int64
	files        []string
	currentMedia string
	status       string
}

// New creates the enforcer.
func New(
	cfg *config.Config,
	store *state.Store,
	mediaStore *media.Store,
	player Player,
	logger *slog.Logger,
) *Enforcer {
	return &Enforcer{
		store:  store,
		media:  mediaStore,
		player: player,
		tick:   cfg.Agent.EnforcerTick,
		logger: logger,
		now:    time.Now,
		done:   make(chan struct{}),
		mode:   modeStandby,
		status: fmt.Sprintf("[%s] starting", modeStandby),
	}
}

// Status reports the current playback state for diagnostics, in the
// "[STATE] message" form surfaced on the device.
func (e *Enforcer) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.status
}

// Playing reports the enforced playback state for heartbeats.
func (e *Enforcer) Playing() (bool, int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.mode == modePlaying, e.playlistID
}

// CurrentMedia reports the media file the player was last started on, empty
// while in standby. Devices echo it on heartbeats for fleet visibility.
func (e *Enforcer) CurrentMedia() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.currentMedia
}

// Shutdown ends the enforcement loop and releases playback synchronously, so
// the player is stopped even if the Serve goroutine never runs again.
func (e *Enforcer) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.done)
	})
	e.standby("shutting down")
}

// Restart drops the enforced playback so the next tick starts it afresh.
// Used for the restart_playback server command.
func (e *Enforcer) Restart() {
	e.mu.Lock()
	wasPlaying := e.mode == modePlaying
	e.mode = modeStandby
	e.playlistID = 0
	e.files = nil
	e.currentMedia = ""
	e.status = fmt.Sprintf("[%s] restarting playback", modeStandby)
	e.mu.Unlock()

	if !wasPlaying {
		return
	}
	if err := e.player.Stop(); err != nil {
		e.logger.Error("player failed to stop", slog.String("error", err.Error()))
	}
}

// Serve runs the enforcement loop until the context ends, then stops
// playback so the screen never keeps looping a stale playlist.
func (e *Enforcer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	e.Tick()
	for {
		select {
		case <-ctx.Done():
			e.standby("shutting down")

			return nil
		case <-e.done:
			e.standby("shutting down")

			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick evaluates the schedule set at the current instant and converges the
// player. All evaluation is UTC with inclusive window ends.
func (e *Enforcer) Tick() {
	now := e.now()
	snapshot := e.store.Snapshot()

	active := entity.ActiveScheduleAt(snapshot.Schedules, now)
	if active == nil {
		e.standby("no schedule active")

		return
	}

	files := e.media.PlayableFiles(snapshot.Playlist(active.PlaylistID))
	if len(files) == 0 {
		// The schedule wants playback but nothing is locally playable. Standby
		// with an explicit error beats looping a black screen.
		e.standby(fmt.Sprintf("no media available for playlist %d", active.PlaylistID))

		return
	}

	e.play(active.PlaylistID, files)
}

func (e *Enforcer) play(playlistID int64, files []string) {
	e.mu.Lock()
	alreadyPlaying := e.mode == modePlaying && e.playlistID == playlistID && slices.Equal(e.files, files)
	e.mu.Unlock()

	if alreadyPlaying {
		return
	}

	if err := e.player.Play(playlistID, files); err != nil {
		e.logger.Error("player failed to start",
			slog.Int64("playlistID", playlistID),
			slog.String("error", err.Error()),
		)

		return
	}

	e.mu.Lock()
	e.mode = modePlaying
	e.playlistID = playlistID
	e.files = files
	e.currentMedia = filepath.Base(files[0])
	e.status = fmt.Sprintf("[%s] playlist %d", modePlaying, playlistID)
	e.mu.Unlock()

	e.store.Mutate(func(st *state.SyncState) {
		st.IsPlaylistActive = true
		st.CurrentPlaylistID = playlistID
	})
}

func (e *Enforcer) standby(reason string) {
	e.mu.Lock()
	wasPlaying := e.mode == modePlaying
	e.mode = modeStandby
	e.playlistID = 0
	e.files = nil
	e.currentMedia = ""
	e.status = fmt.Sprintf("[%s] %s", modeStandby, reason)
	e.mu.Unlock()

	if !wasPlaying {
		return
	}

	if err := e.player.Stop(); err != nil {
		e.logger.Error("player failed to stop", slog.String("error", err.Error()))
	}

	e.store.Mutate(func(st *state.SyncState) {
		st.IsPlaylistActive = false
		st.CurrentPlaylistID = 0
	})
}
