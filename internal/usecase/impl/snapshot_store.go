package impl

import (
	"signage/internal/usecase"

	"github.com/puzpuzpuz/xsync/v4"
)

// snapshotStore keeps per-device previous resolutions in a concurrent map.
// Contention is per-device key, matching the heartbeat access pattern.
type snapshotStore struct {
	snapshots *xsync.Map[int64, usecase.ResolutionSnapshot]
}

// NewSnapshotStore creates the in-memory resolution snapshot store.
func NewSnapshotStore() usecase.SnapshotStore {
	return &snapshotStore{
		snapshots: xsync.NewMap[int64, usecase.ResolutionSnapshot](),
	}
}

func (s *snapshotStore) Load(deviceID int64) (usecase.ResolutionSnapshot, bool) {
	return s.snapshots.Load(deviceID)
}

func (s *snapshotStore) Store(deviceID int64, snapshot usecase.ResolutionSnapshot) {
	s.snapshots.Store(deviceID, snapshot)
}

func (s *snapshotStore) Forget(deviceID int64) {
	s.snapshots.Delete(deviceID)
}

func (s *snapshotStore) Retain(keep map[int64]struct{}) {
	s.snapshots.Range(func(deviceID int64, _ usecase.ResolutionSnapshot) bool {
		if _, ok := keep[deviceID]; !ok {
			s.snapshots.Delete(deviceID)
		}

		return true
	})
}
