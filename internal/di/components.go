package di

import (
	"context"

	"SmartFolio/internal/usecase"
	pkghttp "SmartFolio/pkg/http"
	"SmartFolio/pkg/ws"
)

type httpComponent struct {
	srv *pkghttp.Server
}

func (c *httpComponent) Name() string { return "http" }

func (c *httpComponent) Start(context.Context) error {
	return c.srv.Start()
}

func (c *httpComponent) Shutdown(ctx context.Context) error {
	return c.srv.Shutdown(ctx)
}

type schedulerComponent struct {
	scheduler *usecase.Scheduler
}

func (c *schedulerComponent) Name() string { return "scheduler" }

func (c *schedulerComponent) Start(ctx context.Context) error {
	c.scheduler.Start(ctx)
	return nil
}

func (c *schedulerComponent) Shutdown(context.Context) error { return nil }

type hubComponent struct {
	hub *ws.Hub
}

func (c *hubComponent) Name() string { return "websocket-hub" }

func (c *hubComponent) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (c *hubComponent) Shutdown(ctx context.Context) error {
	return c.hub.Shutdown(ctx)
}
