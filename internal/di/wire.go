//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"SmartFolio/pkg/config"
	"SmartFolio/pkg/server"
)

// InitializeApp assembles the full application from configuration.
// Regenerate with `wire ./internal/di`.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideDB,
		ProvideCache,
		ProvideSignalArchive,
		ProvideHub,
		ProvidePublisher,
		ProvideGateways,
		ProvideQuotes,
		ProvideVolatility,
		ProvideOrchestrator,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
