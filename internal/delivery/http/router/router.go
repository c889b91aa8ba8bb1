// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"signage/config"
	"signage/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	Config           *config.Config
	HeartbeatHandler *handler.HeartbeatHandler
	DeviceHandler    *handler.DeviceHandler
	ScheduleHandler  *handler.ScheduleHandler
	PlaylistHandler  *handler.PlaylistHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	cfg              *config.Config
	heartbeatHandler *handler.HeartbeatHandler
	deviceHandler    *handler.DeviceHandler
	scheduleHandler  *handler.ScheduleHandler
	playlistHandler  *handler.PlaylistHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		cfg:              params.Config,
		heartbeatHandler: params.HeartbeatHandler,
		deviceHandler:    params.DeviceHandler,
		scheduleHandler:  params.ScheduleHandler,
		playlistHandler:  params.PlaylistHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api")

	deviceGroup := api.Group("/devices")
	{
		deviceGroup.POST("/register", r.deviceHandler.Register)
		deviceGroup.GET("", r.deviceHandler.List)
		deviceGroup.GET("/:id", r.deviceHandler.Get)
		deviceGroup.DELETE("/:id", r.deviceHandler.Delete)
		deviceGroup.POST("/:id/heartbeat", r.heartbeatHandler.Heartbeat)
		deviceGroup.GET("/:id/schedules/all", r.scheduleHandler.ListForDevice)
		deviceGroup.POST("/:id/update", r.deviceHandler.RequestUpdate)
		deviceGroup.POST("/:id/commands", r.deviceHandler.EnqueueCommand)
	}

	scheduleGroup := api.Group("/schedules")
	{
		scheduleGroup.POST("", r.scheduleHandler.Create)
		scheduleGroup.GET("/:id", r.scheduleHandler.Get)
		scheduleGroup.PUT("/:id", r.scheduleHandler.Update)
		scheduleGroup.DELETE("/:id", r.scheduleHandler.Delete)
	}

	playlistGroup := api.Group("/playlists")
	{
		playlistGroup.POST("", r.playlistHandler.Create)
		playlistGroup.GET("/:id", r.playlistHandler.Get)
		playlistGroup.PUT("/:id/name", r.playlistHandler.Rename)
		playlistGroup.PUT("/:id/items", r.playlistHandler.ReplaceItems)
		playlistGroup.DELETE("/:id", r.playlistHandler.Delete)
	}

	// Devices download content by filename.
	e.Static("/media", r.cfg.Media.Dir)
}
