// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"SmartFolio/pkg/config"
	"SmartFolio/pkg/server"
)

// Injectors from wire.go:

// InitializeApp assembles the full application from configuration.
// Regenerate with `wire ./internal/di`.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	db, err := ProvideDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger := ProvideLogger(cfg)
	v, err := ProvideGateways(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	service, cleanup, err := ProvideCache(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	volatilitySource := ProvideVolatility(cfg, service)
	quoteSource := ProvideQuotes(cfg, service)
	signalArchive, cleanup2, err := ProvideSignalArchive(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	hub := ProvideHub(logger)
	eventPublisher, cleanup3 := ProvidePublisher(cfg, hub, logger)
	sessionOrchestrator := ProvideOrchestrator(cfg, db, v, volatilitySource, quoteSource, signalArchive, eventPublisher, service, logger)
	httpServer := ProvideHTTPServer(cfg, db, sessionOrchestrator, hub, logger)
	app := ProvideApp(cfg, httpServer, sessionOrchestrator, hub, logger)
	return app, func() {
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
