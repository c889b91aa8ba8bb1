// Package handler contains the HTTP request handlers.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"signage/internal/delivery/http/response"
	"signage/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// DeviceHandlerParams holds dependencies for DeviceHandler, injected by Fx.
type DeviceHandlerParams struct {
	fx.In

	DeviceUC usecase.DeviceUsecase
	Logger   *slog.Logger
}

// DeviceHandler holds dependencies for device-related handlers
type DeviceHandler struct {
	deviceUC usecase.DeviceUsecase
	logger   *slog.Logger
}

// NewDeviceHandler is the constructor for DeviceHandler
func NewDeviceHandler(params DeviceHandlerParams) *DeviceHandler {
	return &DeviceHandler{
		deviceUC: params.DeviceUC,
		logger:   params.Logger,
	}
}

// RegisterDeviceRequest represents the request body for registering a device
type RegisterDeviceRequest struct {
	UUID       string `json:"uuid" validate:"required,uuid"`
	Name       string `json:"name" validate:"required"`
	IP         string `json:"ip" validate:"omitempty,ip"`
	AppVersion string `json:"app_version"`
}

// EnqueueCommandRequest represents the request body for queueing a command
type EnqueueCommandRequest struct {
	Type      string `json:"type" validate:"required,oneof=capture_screenshot restart_playback"`
	RequestID string `json:"request_id"`
}

// Register handles device registration and re-registration
func (h *DeviceHandler) Register(c echo.Context) error {
	var req RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	deviceUUID, err := uuid.Parse(req.UUID)
	if err != nil {
		return response.BadRequest(c, "INVALID_UUID", "Invalid device UUID")
	}

	device, err := h.deviceUC.Register(c.Request().Context(), &usecase.RegistrationInput{
		UUID:       deviceUUID,
		Name:       req.Name,
		IP:         req.IP,
		AppVersion: req.AppVersion,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, device, "Device registered successfully")
}

// List handles retrieving the whole fleet
func (h *DeviceHandler) List(c echo.Context) error {
	devices, err := h.deviceUC.List(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, devices, "Devices retrieved successfully")
}

// Get handles retrieving a single device
func (h *DeviceHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid device ID")
	}

	device, err := h.deviceUC.Get(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, device, "Device retrieved successfully")
}

// Delete handles removing a device
func (h *DeviceHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid device ID")
	}

	if err := h.deviceUC.Delete(c.Request().Context(), id); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Device deleted successfully")
}

// RequestUpdate flags a device for an app update on its next heartbeat
func (h *DeviceHandler) RequestUpdate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid device ID")
	}

	if err := h.deviceUC.RequestUpdate(c.Request().Context(), id); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nil, "Update requested successfully")
}

// EnqueueCommand appends an out-of-band instruction to the device inbox
func (h *DeviceHandler) EnqueueCommand(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid device ID")
	}

	var req EnqueueCommandRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid command input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	command, err := h.deviceUC.EnqueueCommand(c.Request().Context(), id, req.Type, req.RequestID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, command, "Command queued successfully")
}

// parseID parses the ":id" path parameter shared by the device-scoped routes.
func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
