package usecase

import "context"

// MaintenanceUsecase groups the periodic background jobs. Each operation is
// one isolated iteration; the caller owns scheduling and never lets a failed
// iteration stop the next.
type MaintenanceUsecase interface {
	// FlushPings drains the ping queue and applies the coalesced liveness
	// writes.
	FlushPings(ctx context.Context) error

	// SweepOffline marks devices silent past the liveness timeout as offline,
	// returning how many transitioned.
	SweepOffline(ctx context.Context) (int64, error)

	// CleanupSnapshots drops resolution snapshots for devices that no longer
	// exist.
	CleanupSnapshots(ctx context.Context) error
}
