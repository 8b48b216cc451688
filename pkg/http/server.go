package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"SmartFolio/pkg/logger"
)

// Server wraps echo with lifecycle management.
type Server struct {
	echo *echo.Echo
	addr string
	log  *logger.Logger
}

type ServerOptions struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *logger.Logger
}

func NewServer(opts ServerOptions) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = opts.ReadTimeout
	e.Server.WriteTimeout = opts.WriteTimeout

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		echo: e,
		addr: fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		log:  log,
	}
}

// Echo exposes the router for route registration.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.log.Info("http server listening", logger.String("addr", s.addr))
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
