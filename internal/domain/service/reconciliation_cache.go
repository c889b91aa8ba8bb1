// Package service defines infrastructure-facing service interfaces consumed
// by the usecase layer.
package service

import "signage/internal/domain/entity"

// ReconciliationCache stores the last resolved version vector and active
// playlist per device so heartbeats can short-circuit resolution. Entries
// expire on a TTL as a backstop; mutations to schedules or playlists must
// invalidate explicitly. Implementations degrade to "always miss" when the
// backend misbehaves; they never block or fail a request.
type ReconciliationCache interface {
	// Get returns the cached entry for a device, or a miss.
	Get(deviceID int64) (*entity.CacheEntry, bool)

	// Put records the last resolved state for a device.
	Put(deviceID int64, entry *entity.CacheEntry)

	// Invalidate drops a device's entry. Called by every schedule/playlist
	// mutation touching the device.
	Invalidate(deviceID int64)

	// InvalidateAll drops every entry.
	InvalidateAll()
}
