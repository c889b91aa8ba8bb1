// Package api is the agent's HTTP client for the fleet server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"signage/config"
	"signage/internal/domain/entity"
	"signage/internal/errors"

	"github.com/google/uuid"
)

// ErrDeviceNotRegistered signals the server no longer knows this device. The
// agent must re-register from scratch, not retry the failed call.
var ErrDeviceNotRegistered = errors.New("device is not registered")

const requestTimeout = 15 * time.Second

// Client talks to the fleet server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates the server client from the agent configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.Agent.ServerURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// HeartbeatRequest mirrors the server's heartbeat wire format.
type HeartbeatRequest struct {
	PlaybackState     string               `json:"playback_state"`
	Versions          entity.VersionVector `json:"versions"`
	Name              string               `json:"name,omitempty"`
	IP                string               `json:"ip,omitempty"`
	UUID              string               `json:"uuid,omitempty"`
	AppVersion        string               `json:"app_version,omitempty"`
	CurrentMedia      string               `json:"current_media,omitempty"`
	CurrentPositionMS int64                `json:"current_position_ms,omitempty"`
}

// HeartbeatCommand is one inbox command delivered with a heartbeat.
type HeartbeatCommand struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
}

// HeartbeatResponse is the server's reconciliation delta.
type HeartbeatResponse struct {
	ScheduleChanged  bool                 `json:"schedule_changed"`
	PlaylistChanged  bool                 `json:"playlist_changed"`
	NewVersions      entity.VersionVector `json:"new_versions"`
	ActivePlaylistID *int64               `json:"active_playlist_id"`
	Commands         []HeartbeatCommand   `json:"commands"`
	UpdateRequested  bool                 `json:"update_requested"`
}

// RegistrationRequest announces the device to the server.
type RegistrationRequest struct {
	UUID       uuid.UUID `json:"uuid"`
	Name       string    `json:"name"`
	IP         string    `json:"ip,omitempty"`
	AppVersion string    `json:"app_version,omitempty"`
}

// ScheduleSet is the full-schedule-list payload.
type ScheduleSet struct {
	Schedules        []*entity.Schedule `json:"schedules"`
	AggregateVersion int64              `json:"aggregate_version"`
}

// envelope is the management API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Register creates or refreshes the device's server identity.
func (c *Client) Register(ctx context.Context, req *RegistrationRequest) (*entity.Device, error) {
	var device entity.Device
	if err := c.postEnveloped(ctx, "/api/devices/register", req, &device); err != nil {
		return nil, errors.Wrap(err, "failed to register device")
	}

	return &device, nil
}

// Heartbeat reconciles with the server. Unlike the management endpoints, the
// response body is the bare wire format.
func (c *Client) Heartbeat(ctx context.Context, deviceID int64, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal heartbeat")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/devices/%d/heartbeat", c.baseURL, deviceID), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build heartbeat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "heartbeat request failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, ErrDeviceNotRegistered
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("heartbeat returned status %d", httpResp.StatusCode)
	}

	var resp HeartbeatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode heartbeat response")
	}

	return &resp, nil
}

// FetchSchedules retrieves every schedule for the device plus the aggregate
// version, refreshing the local cache after an all_schedules mismatch.
func (c *Client) FetchSchedules(ctx context.Context, deviceID int64) (*ScheduleSet, error) {
	var set ScheduleSet
	if err := c.getEnveloped(ctx, fmt.Sprintf("/api/devices/%d/schedules/all", deviceID), &set); err != nil {
		return nil, errors.Wrap(err, "failed to fetch schedules")
	}

	return &set, nil
}

// FetchPlaylist retrieves a playlist with its ordered items and media.
func (c *Client) FetchPlaylist(ctx context.Context, playlistID int64) (*entity.Playlist, error) {
	var playlist entity.Playlist
	if err := c.getEnveloped(ctx, fmt.Sprintf("/api/playlists/%d", playlistID), &playlist); err != nil {
		return nil, errors.Wrap(err, "failed to fetch playlist")
	}

	return &playlist, nil
}

// DownloadMedia streams a media file to destPath via a temp-file rename, so
// a dropped connection never leaves a half-written file in the library.
func (c *Client) DownloadMedia(ctx context.Context, filename, destPath string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/media/%s", c.baseURL, filename), nil)
	if err != nil {
		return errors.Wrap(err, "failed to build media request")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "media download failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return errors.Errorf("media download returned status %d", httpResp.StatusCode)
	}

	tmp := destPath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to create media file")
	}

	if _, err := io.Copy(file, httpResp.Body); err != nil {
		file.Close()
		os.Remove(tmp)

		return errors.Wrap(err, "failed to write media file")
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)

		return errors.Wrap(err, "failed to close media file")
	}

	return errors.Wrap(os.Rename(tmp, destPath), "failed to move media file")
}

// Healthy probes the server's health endpoint. Used as the connectivity
// check before firing a scheduled retry.
func (c *Client) Healthy(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer httpResp.Body.Close()

	return httpResp.StatusCode == http.StatusOK
}

func (c *Client) postEnveloped(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.doEnveloped(httpReq, out)
}

func (c *Client) getEnveloped(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	return c.doEnveloped(httpReq, out)
}

func (c *Client) doEnveloped(httpReq *http.Request, out any) error {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return ErrDeviceNotRegistered
	}
	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("request returned status %d", httpResp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(httpResp.Body).Decode(&env); err != nil {
		return errors.Wrap(err, "failed to decode response envelope")
	}
	if !env.Success {
		return errors.Errorf("server rejected request: %s", env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}

	return errors.Wrap(json.Unmarshal(env.Data, out), "failed to decode response data")
}
