package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/countbot/internal/platform/apperrors"
	"github.com/pscheid92/countbot/internal/platform/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMiddleware(t *testing.T, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := ErrorHandlingMiddleware()(handler)(c)
	return rec, err
}

func TestMiddlewareWithStructuredError(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return apperrors.Validation("invalid input")
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return errors.New("standard error")
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apperrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, rec.Body.String(), "standard error")
}

func TestMiddlewareWithNoError(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddlewarePassesEchoErrors(t *testing.T) {
	_, err := runMiddleware(t, func(c echo.Context) error {
		return echo.ErrNotFound
	})

	assert.ErrorIs(t, err, echo.ErrNotFound)
}

func TestMiddlewareUnavailable(t *testing.T) {
	rec, err := runMiddleware(t, func(c echo.Context) error {
		return apperrors.Unavailable("redis down", errors.New("dial tcp")).WithField("component", "redis")
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"component":"redis"`)
}

func TestCorrelationMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var id string
	err := correlationMiddleware(func(c echo.Context) error {
		id, _ = correlation.ID(c.Request().Context())
		return nil
	})(c)

	require.NoError(t, err)
	assert.Len(t, id, 8)
}
