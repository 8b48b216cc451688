package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SmartFolio/pkg/logger"
)

// Component is anything with a blocking start and a graceful stop.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// App supervises a set of components: it starts them all, waits for a
// termination signal or a component failure, then shuts everything down.
type App struct {
	components      []Component
	shutdownTimeout time.Duration
	log             *logger.Logger
}

func NewApp(log *logger.Logger, shutdownTimeout time.Duration, components ...Component) *App {
	return &App{
		components:      components,
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}
}

// Run blocks until a signal arrives or any component fails.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, len(a.components))
	for _, c := range a.components {
		go func(c Component) {
			a.log.Info("starting component", logger.String("component", c.Name()))
			if err := c.Start(ctx); err != nil {
				errCh <- err
			}
		}(c)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.log.Info("shutting down", logger.String("signal", sig.String()))
	case err := <-errCh:
		a.log.Error("component failed", logger.Error(err))
		runErr = err
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer shutdownCancel()
	for i := len(a.components) - 1; i >= 0; i-- {
		c := a.components[i]
		if err := c.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("component shutdown failed",
				logger.String("component", c.Name()), logger.Error(err))
		}
	}
	return runErr
}
