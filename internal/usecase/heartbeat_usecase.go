// Package usecase defines the application service interfaces and their DTOs.
package usecase

import (
	"context"

	"signage/internal/domain/entity"
)

// HeartbeatMetadata carries the optional self-reported device fields of a
// heartbeat. UpdateRequested is deliberately absent: it is server-controlled
// and any client-supplied value is dropped at the wire boundary.
type HeartbeatMetadata struct {
	Name              string
	IP                string
	AppVersion        string
	CurrentMedia      string
	CurrentPositionMS int64
}

// ReconcileInput is one device heartbeat as seen by the reconciler.
type ReconcileInput struct {
	DeviceID      int64
	ClientVector  entity.VersionVector
	PlaybackState string
	Metadata      HeartbeatMetadata
}

// ReconcileResult is the compact delta returned to the device.
type ReconcileResult struct {
	ScheduleChanged  bool
	PlaylistChanged  bool
	NewVector        entity.VersionVector
	ActivePlaylistID *int64
	Commands         []*entity.Command
	UpdateRequested  bool
}

// HeartbeatUsecase defines the heartbeat reconciliation use case.
type HeartbeatUsecase interface {
	// Reconcile compares the device's reported version vector against
	// authoritative state and returns what changed. Liveness is recorded
	// asynchronously through the ping queue, never in the request path.
	// Returns repository.ErrDeviceNotFound when the device must re-register.
	Reconcile(ctx context.Context, input *ReconcileInput) (*ReconcileResult, error)
}
