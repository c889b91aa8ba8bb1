// Package sync runs the device's heartbeat loop: register once, then
// reconcile with the server on a fixed cadence and apply whatever deltas the
// server reports.
package sync

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"signage/config"
	"signage/internal/agent/api"
	"signage/internal/agent/backoff"
	"signage/internal/agent/media"
	"signage/internal/agent/state"
	"signage/internal/domain/entity"
	"signage/internal/errors"
)

// ServerClient is the slice of the server API the coordinator needs.
type ServerClient interface {
	Register(ctx context.Context, req *api.RegistrationRequest) (*entity.Device, error)
	Heartbeat(ctx context.Context, deviceID int64, req *api.HeartbeatRequest) (*api.HeartbeatResponse, error)
	FetchSchedules(ctx context.Context, deviceID int64) (*api.ScheduleSet, error)
	FetchPlaylist(ctx context.Context, playlistID int64) (*entity.Playlist, error)
	DownloadMedia(ctx context.Context, filename, destPath string) error
}

// PlaybackReporter exposes the enforced playback state for heartbeats and
// lets the restart_playback command bounce it.
type PlaybackReporter interface {
	Playing() (bool, int64)
	CurrentMedia() string
	Restart()
}

// Coordinator drives registration, heartbeats and delta application. Loop
// errors are handed to the retry coordinator, never allowed to kill the loop.
type Coordinator struct {
	client   ServerClient
	store    *state.Store
	media    *media.Store
	retries  *backoff.Coordinator
	playback PlaybackReporter
	logger   *slog.Logger

	name       string
	appVersion string
	interval   time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// NewCoordinator creates the sync coordinator. appVersion is what the device
// reports on every heartbeat; the server uses it to settle update requests.
func NewCoordinator(
	cfg *config.Config,
	client ServerClient,
	store *state.Store,
	mediaStore *media.Store,
	retries *backoff.Coordinator,
	playback PlaybackReporter,
	appVersion string,
	logger *slog.Logger,
) *Coordinator {
	name := cfg.Agent.Name
	if name == "" {
		name, _ = os.Hostname()
	}

	return &Coordinator{
		client:     client,
		store:      store,
		media:      mediaStore,
		retries:    retries,
		playback:   playback,
		logger:     logger,
		name:       name,
		appVersion: appVersion,
		interval:   cfg.Agent.HeartbeatInterval,
		done:       make(chan struct{}),
	}
}

// Shutdown ends the heartbeat loop.
func (c *Coordinator) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// Serve runs the heartbeat loop until the context ends.
func (c *Coordinator) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case <-ticker.C:
			c.cycle(ctx)
		}
	}
}

func (c *Coordinator) cycle(ctx context.Context) {
	if err := c.SyncOnce(ctx); err != nil {
		c.logger.Warn("sync cycle failed", slog.String("error", err.Error()))
		c.retries.RecordFailure(ctx, c.probe)

		return
	}

	c.retries.RecordSuccess()
}

// SyncOnce performs one full cycle: register when the device holds no server
// identity, then heartbeat and apply the reported deltas.
func (c *Coordinator) SyncOnce(ctx context.Context) error {
	snapshot := c.store.Snapshot()
	if !snapshot.Registered() {
		if err := c.register(ctx); err != nil {
			return err
		}
	}

	return c.heartbeat(ctx)
}

// probe is the minimal recovery operation used by retries and escalation:
// re-register when unregistered, otherwise a plain heartbeat.
func (c *Coordinator) probe(ctx context.Context) error {
	snapshot := c.store.Snapshot()
	if !snapshot.Registered() {
		return c.register(ctx)
	}

	return c.heartbeat(ctx)
}

func (c *Coordinator) register(ctx context.Context) error {
	snapshot := c.store.Snapshot()

	device, err := c.client.Register(ctx, &api.RegistrationRequest{
		UUID:       snapshot.DeviceUUID,
		Name:       c.name,
		AppVersion: c.appVersion,
	})
	if err != nil {
		return err
	}

	c.logger.Info("device registered", slog.Int64("deviceID", device.ID))

	return c.store.Update(func(st *state.SyncState) {
		st.DeviceID = device.ID
	})
}

func (c *Coordinator) heartbeat(ctx context.Context) error {
	snapshot := c.store.Snapshot()

	playing, _ := c.playback.Playing()
	playbackState := "standby"
	if playing {
		playbackState = "playing"
	}

	resp, err := c.client.Heartbeat(ctx, snapshot.DeviceID, &api.HeartbeatRequest{
		PlaybackState: playbackState,
		Versions:      snapshot.Versions,
		Name:          c.name,
		UUID:          snapshot.DeviceUUID.String(),
		AppVersion:    c.appVersion,
		CurrentMedia:  c.playback.CurrentMedia(),
	})
	if errors.Is(err, api.ErrDeviceNotRegistered) {
		// The server forgot us. Drop the identity so the next cycle
		// re-registers; the durable UUID survives.
		c.logger.Warn("server no longer knows this device, re-registering")
		if updateErr := c.store.Update(func(st *state.SyncState) {
			st.ResetIdentity()
		}); updateErr != nil {
			c.logger.Warn("failed to persist sync state", slog.String("error", updateErr.Error()))
		}

		return err
	}
	if err != nil {
		return err
	}

	return c.apply(ctx, snapshot.DeviceID, resp)
}

// apply folds the server's reconciliation delta into local state. The version
// vector advances only after the corresponding refresh succeeded, so a failed
// fetch is retried on the next heartbeat.
func (c *Coordinator) apply(ctx context.Context, deviceID int64, resp *api.HeartbeatResponse) error {
	if resp.ScheduleChanged {
		if err := c.refreshSchedules(ctx, deviceID); err != nil {
			return err
		}
	}

	if resp.PlaylistChanged && resp.ActivePlaylistID != nil {
		if err := c.refreshPlaylist(ctx, *resp.ActivePlaylistID); err != nil {
			return err
		}
	}

	c.runCommands(resp.Commands)

	if resp.UpdateRequested {
		c.logger.Info("app update requested by server")
	}

	return c.store.Update(func(st *state.SyncState) {
		st.Versions = resp.NewVersions
	})
}

// refreshSchedules replaces the local schedule set and makes sure every
// referenced playlist and its media are available locally.
func (c *Coordinator) refreshSchedules(ctx context.Context, deviceID int64) error {
	set, err := c.client.FetchSchedules(ctx, deviceID)
	if err != nil {
		return err
	}

	playlistIDs := make(map[int64]struct{})
	for _, schedule := range set.Schedules {
		playlistIDs[schedule.PlaylistID] = struct{}{}
	}
	for playlistID := range playlistIDs {
		if err := c.refreshPlaylist(ctx, playlistID); err != nil {
			return err
		}
	}

	c.logger.Info("schedules refreshed",
		slog.Int("schedules", len(set.Schedules)),
		slog.Int64("aggregateVersion", set.AggregateVersion),
	)

	return c.store.Update(func(st *state.SyncState) {
		st.Schedules = set.Schedules
		st.Versions.AllSchedules = set.AggregateVersion
	})
}

func (c *Coordinator) refreshPlaylist(ctx context.Context, playlistID int64) error {
	playlist, err := c.client.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}

	c.media.Sync(ctx, c.client, playlist)

	return c.store.Update(func(st *state.SyncState) {
		st.Playlists[playlistID] = playlist
	})
}

// runCommands executes inbox commands. The server hands out each command at
// most once, so execution here is best effort with logging.
func (c *Coordinator) runCommands(commands []api.HeartbeatCommand) {
	for _, command := range commands {
		switch command.Type {
		case entity.CommandRestartPlayback:
			c.logger.Info("restarting playback on server command",
				slog.Int64("commandID", command.ID),
			)
			c.playback.Restart()
		case entity.CommandCaptureScreenshot:
			c.logger.Info("screenshot requested",
				slog.Int64("commandID", command.ID),
				slog.String("requestID", command.RequestID),
			)
		default:
			c.logger.Warn("unknown command ignored",
				slog.Int64("commandID", command.ID),
				slog.String("type", command.Type),
			)
		}
	}
}
