package impl

import (
	"context"
	"fmt"
	"sync"

	"signage/internal/domain/entity"
	"signage/internal/domain/repository"
	"signage/internal/usecase"
)

// pingBatcher buffers the latest liveness observation per device between
// flushes. Heartbeats overwrite rather than append, so a flush applies at
// most one write per device no matter how often the device heartbeated in
// the window.
type pingBatcher struct {
	deviceRepo repository.DeviceRepository

	mu      sync.Mutex
	pending map[int64]entity.PingUpdate
}

// NewPingBatcher creates the coalescing liveness write buffer.
func NewPingBatcher(deviceRepo repository.DeviceRepository) usecase.PingQueue {
	return &pingBatcher{
		deviceRepo: deviceRepo,
		pending:    make(map[int64]entity.PingUpdate),
	}
}

func (b *pingBatcher) Enqueue(update entity.PingUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[update.DeviceID] = update
}

// Flush swaps the buffer out under the lock and applies the drained updates
// outside it, so concurrent heartbeats never wait on the database.
func (b *pingBatcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	drained := b.pending
	b.pending = make(map[int64]entity.PingUpdate)
	b.mu.Unlock()

	if len(drained) == 0 {
		return nil
	}

	updates := make([]entity.PingUpdate, 0, len(drained))
	for _, update := range drained {
		updates = append(updates, update)
	}

	if err := b.deviceRepo.ApplyPings(ctx, updates); err != nil {
		return fmt.Errorf("failed to flush ping batch: %w", err)
	}

	return nil
}
