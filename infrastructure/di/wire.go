//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"warrantboard/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideRandom,
	ProvideLoader,
	ProvideDefinition,
	ProvideCatalog,
	ProvideDatabase,
	ProvideFusionEngine,
	ProvideAWSConfig,
	ProvideStorage,
	ProvideSaveRepository,
	ProvideInventoryRepository,
	ProvideCollector,
	ProvideMetrics,
	ProvideBoardCache,
	ProvideEventPublisher,
	ProvideTracing,
	ProvideSessionOptions,
	ProvideManager,
	ProvideContentWatcher,
	ProvideRouterConfig,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup releases
// storage, the content watcher and the tracer in reverse order.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
