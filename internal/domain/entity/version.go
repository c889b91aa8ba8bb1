package entity

import "time"

// VersionFromTime derives a monotonically increasing integer version from an
// entity's last-modified timestamp (milliseconds since epoch). A zero time
// yields version 0. Versions are compared for equality only: devices echo back
// the versions they last saw, they never order them.
func VersionFromTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}

// VersionVector is the triple a device uses to ask "has anything changed
// since I last synced".
type VersionVector struct {
	Schedule     int64 `json:"schedule"`
	Playlist     int64 `json:"playlist"`
	AllSchedules int64 `json:"all_schedules"`
}

// Equal reports whether two vectors are identical in all components.
func (v VersionVector) Equal(other VersionVector) bool {
	return v == other
}
