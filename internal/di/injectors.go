//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"timekeeper/internal"
	"timekeeper/internal/backup"
	"timekeeper/internal/controllers"
	"timekeeper/internal/providers"
	"timekeeper/internal/services"
	"timekeeper/internal/storage"
	"timekeeper/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewStoreProvider,
		wire.Bind(new(providers.EventCounter), new(storage.Store)),
		wire.Bind(new(controllers.Pinger), new(storage.Store)),
		providers.NewMetricsProvider,
		providers.NewInstrumentedFlowCacheProvider,

		services.NewClock,
		services.NewEventService,
		services.NewUserService,
		services.NewQuotaService,
		services.NewImportService,
		services.NewExportService,
		services.NewConvertService,
		services.NewStatsService,

		backup.NewZstdCompressor,
		backup.NewFileManager,
		backup.NewScheduler,

		controllers.NewEventController,
		controllers.NewUserController,
		controllers.NewConvertController,
		controllers.NewAdminController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil, nil
}
