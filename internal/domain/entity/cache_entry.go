package entity

import "time"

// CacheEntry is the last resolved reconciliation state for a device. A hit is
// only valid when the client's reported vector equals the cached one; the
// entry records what was resolved, not a promise that the client is current.
type CacheEntry struct {
	Vector           VersionVector
	ActivePlaylistID *int64
	WrittenAt        time.Time
}
