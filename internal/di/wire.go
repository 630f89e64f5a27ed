//go:build wireinject
// +build wireinject

package di

import (
	"SignalFlow/pkg/config"
	"SignalFlow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideCacheService,

		// Repositories
		ProvideSignalStore,
		ProvideContextManager,

		// Services
		ProvideNormalizer,
		ProvideAnalyzers,
		ProvideChatSender,
		ProvideDeliveryQueue,
		ProvideQueuedSender,

		// Use cases
		ProvideDispatcher,
		ProvideIngestor,
		ProvideRouter,
		ProvideInteractor,
		ProvideKafkaConsumer,
		ProvideFeedCollector,

		// Application
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
