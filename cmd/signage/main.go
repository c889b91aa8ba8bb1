package main

import (
	"context"
	"log/slog"
	"os"

	"signage/config"
	"signage/internal/delivery"
	"signage/internal/delivery/http"
	"signage/internal/delivery/http/middleware"
	"signage/internal/delivery/http/router/handler"
	"signage/internal/delivery/worker"
	"signage/internal/infra/cache"
	logs "signage/internal/infra/log"
	"signage/internal/infra/persistence/postgres"
	"signage/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		cache.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewDeviceRepository,
			postgres.NewScheduleRepository,
			postgres.NewPlaylistRepository,
			postgres.NewCommandRepository,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSnapshotStore,
			impl.NewPingBatcher,
			impl.NewScheduleResolver,
			impl.NewHeartbeatService,
			impl.NewDeviceService,
			impl.NewScheduleService,
			impl.NewPlaylistService,
			impl.NewMaintenanceService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewHeartbeatHandler,
			handler.NewDeviceHandler,
			handler.NewScheduleHandler,
			handler.NewPlaylistHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
