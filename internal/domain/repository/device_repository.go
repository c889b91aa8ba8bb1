// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"time"

	"signage/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for device persistence.
var (
	// ErrDeviceNotFound is returned when a device is not found.
	ErrDeviceNotFound = errors.New("device not found")
)

// DeviceRepository defines the interface for device-related database operations.
type DeviceRepository interface {
	// Upsert creates a device or, when the UUID is already registered,
	// refreshes its name/ip/app version and returns the existing row.
	Upsert(ctx context.Context, device *entity.Device) error

	// FindByID retrieves a device by its integer id.
	FindByID(ctx context.Context, id int64) (*entity.Device, error)

	// FindByUUID retrieves a device by its durable UUID.
	FindByUUID(ctx context.Context, id uuid.UUID) (*entity.Device, error)

	// List retrieves the whole fleet.
	List(ctx context.Context) ([]*entity.Device, error)

	// ListIDs retrieves all device ids (used by snapshot cleanup).
	ListIDs(ctx context.Context) ([]int64, error)

	// Delete removes a device.
	Delete(ctx context.Context, id int64) error

	// ApplyPings applies one coalesced liveness update per device:
	// status online, last ping, reported name/ip and current media with its
	// playback position from the batch entry.
	ApplyPings(ctx context.Context, updates []entity.PingUpdate) error

	// MarkOfflineSince transitions devices whose last ping is older than the
	// cutoff to offline, returning how many rows changed.
	MarkOfflineSince(ctx context.Context, cutoff time.Time) (int64, error)

	// RecordAppVersion stores a newly reported app version and optionally
	// clears the update-requested flag in the same write.
	RecordAppVersion(ctx context.Context, id int64, version string, clearUpdateRequested bool) error

	// SetUpdateRequested flips the server-only update flag.
	SetUpdateRequested(ctx context.Context, id int64, requested bool) error
}
