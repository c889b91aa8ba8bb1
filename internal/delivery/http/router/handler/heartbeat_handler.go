package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"signage/internal/delivery/http/response"
	"signage/internal/domain/entity"
	"signage/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// HeartbeatHandlerParams holds dependencies for HeartbeatHandler, injected by Fx.
type HeartbeatHandlerParams struct {
	fx.In

	HeartbeatUC usecase.HeartbeatUsecase
	Logger      *slog.Logger
}

// HeartbeatHandler serves the device heartbeat endpoint.
type HeartbeatHandler struct {
	heartbeatUC usecase.HeartbeatUsecase
	logger      *slog.Logger
}

// NewHeartbeatHandler is the constructor for HeartbeatHandler
func NewHeartbeatHandler(params HeartbeatHandlerParams) *HeartbeatHandler {
	return &HeartbeatHandler{
		heartbeatUC: params.HeartbeatUC,
		logger:      params.Logger,
	}
}

// HeartbeatRequest is the device-facing wire format. There is deliberately no
// update_requested field: the flag is server-controlled and any client-sent
// value is dropped during binding.
type HeartbeatRequest struct {
	PlaybackState     string               `json:"playback_state" validate:"omitempty,oneof=playing standby"`
	Versions          entity.VersionVector `json:"versions"`
	Name              string               `json:"name,omitempty"`
	IP                string               `json:"ip,omitempty"`
	UUID              string               `json:"uuid,omitempty"`
	AppVersion        string               `json:"app_version,omitempty"`
	CurrentMedia      string               `json:"current_media,omitempty"`
	CurrentPositionMS int64                `json:"current_position_ms,omitempty"`
}

// HeartbeatCommand is one popped inbox command on the wire.
type HeartbeatCommand struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
}

// HeartbeatResponse is the compact delta returned to the device. Unlike the
// management endpoints this is sent bare, without the response envelope.
type HeartbeatResponse struct {
	ScheduleChanged  bool                 `json:"schedule_changed"`
	PlaylistChanged  bool                 `json:"playlist_changed"`
	NewVersions      entity.VersionVector `json:"new_versions"`
	ActivePlaylistID *int64               `json:"active_playlist_id"`
	Commands         []HeartbeatCommand   `json:"commands"`
	UpdateRequested  bool                 `json:"update_requested"`
}

// Heartbeat reconciles one device heartbeat. A 404 tells the device its local
// identity is invalid and it must re-register from scratch.
func (h *HeartbeatHandler) Heartbeat(c echo.Context) error {
	deviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid device ID")
	}

	var req HeartbeatRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid heartbeat input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	result, err := h.heartbeatUC.Reconcile(c.Request().Context(), &usecase.ReconcileInput{
		DeviceID:      deviceID,
		ClientVector:  req.Versions,
		PlaybackState: req.PlaybackState,
		Metadata: usecase.HeartbeatMetadata{
			Name:              req.Name,
			IP:                req.IP,
			AppVersion:        req.AppVersion,
			CurrentMedia:      req.CurrentMedia,
			CurrentPositionMS: req.CurrentPositionMS,
		},
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	commands := make([]HeartbeatCommand, 0, len(result.Commands))
	for _, command := range result.Commands {
		commands = append(commands, HeartbeatCommand{
			ID:        command.ID,
			Type:      command.Type,
			RequestID: command.RequestID,
		})
	}

	return c.JSON(http.StatusOK, HeartbeatResponse{
		ScheduleChanged:  result.ScheduleChanged,
		PlaylistChanged:  result.PlaylistChanged,
		NewVersions:      result.NewVector,
		ActivePlaylistID: result.ActivePlaylistID,
		Commands:         commands,
		UpdateRequested:  result.UpdateRequested,
	})
}
