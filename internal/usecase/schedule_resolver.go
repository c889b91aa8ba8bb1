package usecase

import (
	"context"
	"time"

	"signage/internal/domain/entity"
)

// Resolution is the output of active-schedule resolution for one device at
// one instant.
type Resolution struct {
	// Active is the schedule that should be playing now, nil when none
	// qualifies.
	Active *entity.Schedule

	// Vector holds the active schedule/playlist versions plus the aggregate
	// version across every schedule of the device.
	Vector entity.VersionVector
}

// ActivePlaylistID returns the active schedule's playlist id, or nil.
func (r *Resolution) ActivePlaylistID() *int64 {
	if r.Active == nil {
		return nil
	}
	id := r.Active.PlaylistID

	return &id
}

// ScheduleResolver selects the schedule a device should be playing at an
// instant and derives its version vector.
type ScheduleResolver interface {
	Resolve(ctx context.Context, deviceID int64, now time.Time) (*Resolution, error)
}
