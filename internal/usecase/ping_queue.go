package usecase

import (
	"context"

	"signage/internal/domain/entity"
)

// PingQueue coalesces device liveness writes across a flush window. Heartbeats
// enqueue; a periodic flush drains the buffer and applies at most one write
// per device. Observed liveness therefore lags true heartbeat time by at most
// the flush interval.
type PingQueue interface {
	// Enqueue records the latest liveness observation for a device,
	// overwriting any unflushed one. Never blocks on storage.
	Enqueue(update entity.PingUpdate)

	// Flush drains the buffer and applies the coalesced updates.
	Flush(ctx context.Context) error
}
