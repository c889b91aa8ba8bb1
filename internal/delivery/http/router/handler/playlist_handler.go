package handler

import (
	"log/slog"
	"net/http"

	"signage/internal/delivery/http/response"
	"signage/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// PlaylistHandlerParams holds dependencies for PlaylistHandler, injected by Fx.
type PlaylistHandlerParams struct {
	fx.In

	PlaylistUC usecase.PlaylistUsecase
	Logger     *slog.Logger
}

// PlaylistHandler holds dependencies for playlist-related handlers
type PlaylistHandler struct {
	playlistUC usecase.PlaylistUsecase
	logger     *slog.Logger
}

// NewPlaylistHandler is the constructor for PlaylistHandler
func NewPlaylistHandler(params PlaylistHandlerParams) *PlaylistHandler {
	return &PlaylistHandler{
		playlistUC: params.PlaylistUC,
		logger:     params.Logger,
	}
}

// PlaylistItemRequest is one positioned media reference; position comes from
// slice order.
type PlaylistItemRequest struct {
	MediaID         int64 `json:"media_id" validate:"required"`
	DurationSeconds int   `json:"duration_seconds" validate:"min=0"`
}

// CreatePlaylistRequest represents the request body for creating a playlist
type CreatePlaylistRequest struct {
	Name  string                `json:"name" validate:"required"`
	Items []PlaylistItemRequest `json:"items" validate:"dive"`
}

// RenamePlaylistRequest represents the request body for renaming a playlist
type RenamePlaylistRequest struct {
	Name string `json:"name" validate:"required"`
}

// ReplaceItemsRequest represents the request body for replacing playlist items
type ReplaceItemsRequest struct {
	Items []PlaylistItemRequest `json:"items" validate:"dive"`
}

func toItemInputs(items []PlaylistItemRequest) []usecase.PlaylistItemInput {
	inputs := make([]usecase.PlaylistItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, usecase.PlaylistItemInput{
			MediaID:         item.MediaID,
			DurationSeconds: item.DurationSeconds,
		})
	}

	return inputs
}

// Create handles playlist creation
func (h *PlaylistHandler) Create(c echo.Context) error {
	var req CreatePlaylistRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid playlist input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	playlist, err := h.playlistUC.Create(c.Request().Context(), req.Name, toItemInputs(req.Items))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, playlist, "Playlist created successfully")
}

// Rename handles playlist renaming
func (h *PlaylistHandler) Rename(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid playlist ID")
	}

	var req RenamePlaylistRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid playlist input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	if err := h.playlistUC.Rename(c.Request().Context(), id, req.Name); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Playlist renamed successfully")
}

// ReplaceItems handles swapping the playlist membership
func (h *PlaylistHandler) ReplaceItems(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid playlist ID")
	}

	var req ReplaceItemsRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid playlist input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	if err := h.playlistUC.ReplaceItems(c.Request().Context(), id, toItemInputs(req.Items)); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Playlist items replaced successfully")
}

// Delete handles playlist removal
func (h *PlaylistHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid playlist ID")
	}

	if err := h.playlistUC.Delete(c.Request().Context(), id); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Playlist deleted successfully")
}

// Get handles retrieving a playlist with its ordered items
func (h *PlaylistHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid playlist ID")
	}

	playlist, err := h.playlistUC.Get(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, playlist, "Playlist retrieved successfully")
}
