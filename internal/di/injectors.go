//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"enduro/internal"
	"enduro/internal/controllers"
	"enduro/internal/providers"
	"enduro/internal/services"
	"enduro/internal/store"
	"enduro/internal/strava"
	"enduro/internal/structures"
	"enduro/internal/syncer"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		store.NewZstdCompressor,
		store.NewFileSnapshotStore,
		strava.NewClient,
		services.NewSyncService,
		services.NewSessionService,
		syncer.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
