package main

import (
	"context"
	"log/slog"
	"os"

	"signage/config"
	"signage/internal/agent/api"
	"signage/internal/agent/backoff"
	"signage/internal/agent/enforcer"
	"signage/internal/agent/media"
	"signage/internal/agent/state"
	agentsync "signage/internal/agent/sync"
	"signage/internal/delivery"
	logs "signage/internal/infra/log"

	"go.uber.org/fx"
)

// appVersion is stamped at build time and reported on every heartbeat.
var appVersion = "dev"

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectAgent(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		// Lifecycle-scoped root context: cancelled on shutdown so every agent
		// loop's Serve returns.
		func(lc fx.Lifecycle) context.Context {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()

					return nil
				},
			})

			return ctx
		},
		func(cfg *config.Config) (*state.Store, error) {
			return state.NewStore(cfg.Agent.StateDir)
		},
		func(cfg *config.Config, logger *slog.Logger) (*media.Store, error) {
			return media.NewStore(cfg.Agent.MediaDir, logger)
		},
		api.NewClient,
	)
}

func injectAgent() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				enforcer.NewLogPlayer,
				fx.As(new(enforcer.Player)),
			),
			enforcer.New,
			func(
				lc fx.Lifecycle,
				cfg *config.Config,
				store *state.Store,
				client *api.Client,
				logger *slog.Logger,
			) *backoff.Coordinator {
				wakeLock := backoff.NoopWakeLock{}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						return wakeLock.Release()
					},
				})

				return backoff.NewCoordinator(
					store,
					wakeLock,
					client.Healthy,
					cfg.Agent.SettleDelay,
					logger,
				)
			},
			func(
				cfg *config.Config,
				client *api.Client,
				store *state.Store,
				mediaStore *media.Store,
				retries *backoff.Coordinator,
				playback *enforcer.Enforcer,
				logger *slog.Logger,
			) *agentsync.Coordinator {
				return agentsync.NewCoordinator(
					cfg, client, store, mediaStore, retries, playback, appVersion, logger,
				)
			},
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(lc fx.Lifecycle, e *enforcer.Enforcer) delivery.Delivery {
					// Stop playback synchronously on shutdown; the screen never
					// keeps looping after the process is told to exit.
					lc.Append(fx.Hook{
						OnStop: func(context.Context) error {
							e.Shutdown()

							return nil
						},
					})

					return e
				},
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				func(lc fx.Lifecycle, c *agentsync.Coordinator) delivery.Delivery {
					lc.Append(fx.Hook{
						OnStop: func(context.Context) error {
							c.Shutdown()

							return nil
						},
					})

					return c
				},
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

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
