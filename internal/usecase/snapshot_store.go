package usecase

// ResolutionSnapshot is the previous resolution outcome kept per device so
// the reconciler can detect transitions (no-schedule to active-schedule and
// back) that a pure version comparison would miss.
type ResolutionSnapshot struct {
	ScheduleVersion   int64
	PlaylistVersion   int64
	HadActiveSchedule bool
}

// SnapshotStore is the keyed per-device store for resolution snapshots. It is
// injected rather than held as a package global so tests can substitute a
// fake.
type SnapshotStore interface {
	// Load returns the previous snapshot for a device, or ok=false on the
	// first resolution.
	Load(deviceID int64) (ResolutionSnapshot, bool)

	// Store records the latest resolution outcome for a device.
	Store(deviceID int64, snapshot ResolutionSnapshot)

	// Forget drops a device's snapshot.
	Forget(deviceID int64)

	// Retain drops every snapshot whose device id is not in keep. Used by the
	// periodic cleanup to shed deleted devices.
	Retain(keep map[int64]struct{})
}
