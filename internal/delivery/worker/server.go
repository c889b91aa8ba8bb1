// Package worker runs the periodic background jobs: ping flush, offline
// sweep and snapshot cleanup.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"signage/config"
	"signage/internal/delivery"
	"signage/internal/usecase"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

type workerServer struct {
	cfg           *config.Config
	logger        *slog.Logger
	maintenanceUC usecase.MaintenanceUsecase
	cron          *cron.Cron
	done          chan struct{}
}

// ServerParams holds dependencies for the background worker
type ServerParams struct {
	fx.In

	Lc            fx.Lifecycle
	Cfg           *config.Config
	Logger        *slog.Logger
	MaintenanceUC usecase.MaintenanceUsecase
}

// NewServer creates the background job worker. Each job runs on its own
// interval; a failed iteration logs and leaves the next one untouched, so a
// burst of database errors never stops liveness tracking.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &workerServer{
		cfg:           params.Cfg,
		logger:        params.Logger,
		maintenanceUC: params.MaintenanceUC,
		cron:          cron.New(),
		done:          make(chan struct{}),
	}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) error
	}{
		{"ping flush", params.Cfg.Sync.PingFlushInterval, srv.maintenanceUC.FlushPings},
		{"offline sweep", params.Cfg.Sync.OfflineSweepInterval, srv.sweepOffline},
		{"snapshot cleanup", params.Cfg.Sync.SnapshotCleanupInterval, srv.maintenanceUC.CleanupSnapshots},
	}
	for _, job := range jobs {
		spec := fmt.Sprintf("@every %s", job.interval)
		if _, err := srv.cron.AddFunc(spec, srv.wrap(job.name, job.run)); err != nil {
			return nil, errors.Wrapf(err, "failed to schedule %s job", job.name)
		}
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// Serve starts the job scheduler and blocks until shutdown.
func (s *workerServer) Serve(ctx context.Context) error {
	s.logger.Info("Starting background worker",
		slog.Duration("pingFlushInterval", s.cfg.Sync.PingFlushInterval),
		slog.Duration("offlineSweepInterval", s.cfg.Sync.OfflineSweepInterval),
		slog.Duration("snapshotCleanupInterval", s.cfg.Sync.SnapshotCleanupInterval),
	)
	s.cron.Start()

	select {
	case <-ctx.Done():
	case <-s.done:
	}

	return nil
}

func (s *workerServer) stop(ctx context.Context) error {
	s.logger.Info("Shutting down background worker")
	close(s.done)

	// Wait for in-flight jobs, bounded by the shutdown context.
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}

	return nil
}

// wrap isolates one job iteration: errors are logged, never propagated to
// the scheduler.
func (s *workerServer) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		if err := run(context.Background()); err != nil {
			s.logger.Error("Background job failed",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *workerServer) sweepOffline(ctx context.Context) error {
	swept, err := s.maintenanceUC.SweepOffline(ctx)
	if err != nil {
		return err
	}
	if swept > 0 {
		s.logger.Info("Marked silent devices offline", slog.Int64("count", swept))
	}

	return nil
}
