package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/countbot/internal/app"
	"github.com/pscheid92/countbot/internal/platform/apperrors"
)

const (
	defaultErrorLimit = 10
	maxErrorLimit     = 50
)

type statusResponse struct {
	Uptime        string        `json:"uptime"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	RecentErrors  []errorRecord `json:"recent_errors"`
}

type errorRecord struct {
	At      time.Time `json:"at"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
}

// handleStatus reports uptime and the newest recorded errors, newest last.
// The optional limit query parameter caps the number of errors.
func (s *Server) handleStatus(c echo.Context) error {
	limit := defaultErrorLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxErrorLimit {
			return apperrors.Validation(fmt.Sprintf("limit must be between 1 and %d", maxErrorLimit)).WithField("limit", raw)
		}
		limit = n
	}

	uptime := s.status.Uptime()
	resp := statusResponse{
		Uptime:        app.FormatUptime(uptime),
		UptimeSeconds: uptime.Seconds(),
		RecentErrors:  []errorRecord{},
	}
	for _, e := range s.status.Recent(limit) {
		resp.RecentErrors = append(resp.RecentErrors, errorRecord{At: e.At, Source: e.Source, Message: e.Message})
	}

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write status response: %w", err)
	}
	return nil
}
