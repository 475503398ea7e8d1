package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	statusRateLimit = 1
	statusBurst     = 5
)

func (s *Server) registerRoutes(extra []echo.MiddlewareFunc) {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(extra...)
	s.echo.Use(ErrorHandlingMiddleware())

	s.registerHealthRoutes()

	if s.status != nil {
		s.echo.GET("/status", s.handleStatus, newRateLimiter(statusRateLimit, statusBurst))
	}
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics))
	}
}

// Probes and scrapes are logged at debug level, everything else at info.
func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}

			level := slog.LevelInfo
			if isQuietPath(c.Path()) {
				level = slog.LevelDebug
			}
			slog.Log(c.Request().Context(), level, "Request", attrs...)
			return nil
		},
	})
}

func isQuietPath(path string) bool {
	switch path {
	case "/metrics", "/health/live", "/health/ready", "/health/startup":
		return true
	}
	return false
}
