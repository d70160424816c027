//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"glucolog/internal"
	"glucolog/internal/backup"
	"glucolog/internal/controllers"
	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/services"
	"glucolog/internal/store"
	"glucolog/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewCacheProvider,
		providers.NewMetricsProvider,
		providers.NewFsProvider,

		models.NewReadingStore,
		store.NewZstdCompressor,
		store.NewFileManager,

		backup.NewDirManagedIndex,
		backup.NewFolderRepair,
		backup.NewLocator,
		backup.NewRanker,
		backup.NewRestoreEngine,
		backup.NewWriter,
		backup.NewScheduler,

		services.NewReadingsService,
		services.NewBackupService,
		wire.Bind(new(backup.DirtyTracker), new(services.ReadingsServiceInterface)),

		controllers.NewReadingsController,
		controllers.NewBackupController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
