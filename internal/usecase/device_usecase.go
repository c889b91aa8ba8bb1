package usecase

import (
	"context"

	"signage/internal/domain/entity"

	"github.com/google/uuid"
)

// RegistrationInput is a device announcing itself. The UUID is the durable
// identity; re-registration with a known UUID refreshes the row instead of
// creating a duplicate.
type RegistrationInput struct {
	UUID       uuid.UUID `json:"uuid"`
	Name       string    `json:"name"`
	IP         string    `json:"ip"`
	AppVersion string    `json:"app_version"`
}

// DeviceUsecase defines fleet management use cases.
type DeviceUsecase interface {
	// Register creates or refreshes a device by UUID.
	Register(ctx context.Context, input *RegistrationInput) (*entity.Device, error)

	// Get retrieves one device.
	Get(ctx context.Context, id int64) (*entity.Device, error)

	// List retrieves the whole fleet.
	List(ctx context.Context) ([]*entity.Device, error)

	// Delete removes a device and drops its reconciliation state.
	Delete(ctx context.Context, id int64) error

	// RequestUpdate flags a device for an app update on its next heartbeat.
	RequestUpdate(ctx context.Context, id int64) error

	// EnqueueCommand appends an out-of-band instruction to the device inbox.
	// Delivery is at-most-once, one command per heartbeat, oldest first.
	EnqueueCommand(ctx context.Context, deviceID int64, commandType, requestID string) (*entity.Command, error)
}
