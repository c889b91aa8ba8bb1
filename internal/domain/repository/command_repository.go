package repository

import (
	"context"

	"signage/internal/domain/entity"
)

// CommandRepository defines the interface for the per-device command inbox.
type CommandRepository interface {
	// Enqueue appends a pending command to a device's inbox.
	Enqueue(ctx context.Context, command *entity.Command) error

	// PopOldestPending atomically claims the oldest pending command for a
	// device, transitioning it to processing. Returns nil when the inbox is
	// empty.
	PopOldestPending(ctx context.Context, deviceID int64) (*entity.Command, error)
}
