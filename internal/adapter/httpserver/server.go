// Package httpserver serves the bot's operational endpoints: health probes,
// build version, recent errors and Prometheus metrics.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/countbot/internal/app"
)

type statusSource interface {
	Uptime() time.Duration
	Recent(n int) []app.ErrorEntry
}

// Options configures the server. Nil fields disable the matching routes or
// middleware.
type Options struct {
	Port         string
	HealthChecks []HealthCheck
	Status       statusSource
	Metrics      http.Handler
	Middleware   []echo.MiddlewareFunc
	Clock        clockwork.Clock
}

type Server struct {
	echo *echo.Echo
	port string

	healthChecks []HealthCheck
	status       statusSource
	metrics      http.Handler
	clock        clockwork.Clock
	startTime    time.Time
}

func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	srv := &Server{
		echo:         e,
		port:         opts.Port,
		healthChecks: opts.HealthChecks,
		status:       opts.Status,
		metrics:      opts.Metrics,
		clock:        clock,
		startTime:    clock.Now(),
	}
	srv.registerRoutes(opts.Middleware)
	return srv
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.port)
	if err := s.echo.Start(":" + s.port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
