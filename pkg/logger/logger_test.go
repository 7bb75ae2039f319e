package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware_LogsCompletedRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()

	var fromEcho, fromStd *zap.Logger
	h := Middleware(zap.New(core))(func(c echo.Context) error {
		fromEcho = FromContext(c)
		fromStd = FromStdContext(c.Request().Context())
		return c.NoContent(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))

	assert.Same(t, fromEcho, fromStd)

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, "/api/v1/auth/register", fields["path"])
}

func TestMiddleware_HandlerErrorIsWritten(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()

	h := Middleware(zap.New(core))(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := httptest.NewRecorder()
	err := h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.FilterMessage("HTTP request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusTeapot), entries[0].ContextMap()["status"])
}

func TestFromStdContext_FallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, FromStdContext(context.Background()))

	custom := zap.NewExample()
	assert.Same(t, custom, FromStdContext(WithContext(context.Background(), custom)))
}
