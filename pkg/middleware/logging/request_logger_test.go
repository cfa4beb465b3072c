package loggingmw

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_school/pkg/logging"
)

func TestRequestLogger_PropagatesLoggerAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Use(RequestLogger(base))
	e.GET("/ping", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside")
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inside, done map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inside))
	require.NoError(t, json.Unmarshal(lines[1], &done))
	assert.Equal(t, "rid-1", inside["request_id"])
	assert.Equal(t, "request_completed", done["msg"])
	assert.EqualValues(t, 200, done["status"])
}

func TestRequestLogger_HandlerErrorWritesResponse(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "nope")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
