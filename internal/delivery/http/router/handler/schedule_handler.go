package handler

import (
	"log/slog"
	"net/http"

	"signage/internal/delivery/http/response"
	"signage/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ScheduleHandlerParams holds dependencies for ScheduleHandler, injected by Fx.
type ScheduleHandlerParams struct {
	fx.In

	ScheduleUC usecase.ScheduleUsecase
	Logger     *slog.Logger
}

// ScheduleHandler holds dependencies for schedule-related handlers
type ScheduleHandler struct {
	scheduleUC usecase.ScheduleUsecase
	logger     *slog.Logger
}

// NewScheduleHandler is the constructor for ScheduleHandler
func NewScheduleHandler(params ScheduleHandlerParams) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleUC: params.ScheduleUC,
		logger:     params.Logger,
	}
}

// ScheduleRequest represents the request body for creating or updating a schedule
type ScheduleRequest struct {
	DeviceID    int64  `json:"device_id" validate:"required"`
	PlaylistID  int64  `json:"playlist_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Days        string `json:"days" validate:"required"`
	StartMinute int    `json:"start_minute" validate:"min=0,max=1439"`
	EndMinute   int    `json:"end_minute" validate:"min=0,max=1439"`
	ValidFrom   string `json:"valid_from"`
	ValidUntil  string `json:"valid_until"`
	Enabled     bool   `json:"enabled"`
}

func (req *ScheduleRequest) toInput() *usecase.ScheduleInput {
	return &usecase.ScheduleInput{
		DeviceID:    req.DeviceID,
		PlaylistID:  req.PlaylistID,
		Name:        req.Name,
		Days:        req.Days,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		Enabled:     req.Enabled,
	}
}

// Create handles schedule creation
func (h *ScheduleHandler) Create(c echo.Context) error {
	var req ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid schedule input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	schedule, err := h.scheduleUC.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, schedule, "Schedule created successfully")
}

// Update handles schedule updates
func (h *ScheduleHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid schedule ID")
	}

	var req ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid schedule input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	schedule, err := h.scheduleUC.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, schedule, "Schedule updated successfully")
}

// Delete handles schedule removal
func (h *ScheduleHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid schedule ID")
	}

	if err := h.scheduleUC.Delete(c.Request().Context(), id); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Schedule deleted successfully")
}

// Get handles retrieving one schedule
func (h *ScheduleHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid schedule ID")
	}

	schedule, err := h.scheduleUC.Get(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, schedule, "Schedule retrieved successfully")
}

// ListForDevice returns every schedule of a device plus the aggregate version.
// Devices call this when the all_schedules component of their vector moved.
func (h *ScheduleHandler) ListForDevice(c echo.Context) error {
	deviceID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid device ID")
	}

	set, err := h.scheduleUC.ListForDevice(c.Request().Context(), deviceID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, set, "Schedules retrieved successfully")
}
