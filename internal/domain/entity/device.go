// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// DeviceStatus is the liveness state of a playback device.
type DeviceStatus string

const (
	// DeviceOnline means the device heartbeated within the liveness timeout.
	DeviceOnline DeviceStatus = "online"
	// DeviceOffline means the device has been silent past the liveness timeout.
	DeviceOffline DeviceStatus = "offline"
)

// Device represents an unattended playback device in the fleet.
type Device struct {
	ID   int64     `json:"id"`   // Server-assigned integer id.
	UUID uuid.UUID `json:"uuid"` // Durable identity that survives re-registration.

	Name string `json:"name"`
	IP   string `json:"ip"` // Last-known address, reported on heartbeat.

	Status       DeviceStatus `json:"status"`
	LastPing     time.Time    `json:"last_ping"`
	CurrentMedia string       `json:"current_media"` // Last-reported playing media label.
	// CurrentPositionMS is the last-reported playback position within the
	// current media, for fleet monitoring.
	CurrentPositionMS int64  `json:"current_position_ms"`
	AppVersion        string `json:"app_version"`

	// UpdateRequested is server-controlled only; cleared when the device
	// reports a new app version.
	UpdateRequested bool `json:"update_requested"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PingUpdate is one coalesced liveness write for a device. Last writer before
// each flush wins. Name and IP refresh the device's last-known metadata when
// the heartbeat reported them.
type PingUpdate struct {
	DeviceID     int64
	Name         string
	IP           string
	CurrentMedia string
	PositionMS   int64
	ObservedAt   time.Time
}
