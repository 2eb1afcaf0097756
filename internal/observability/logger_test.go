package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "mone", false)

	e := echo.New()
	e.Use(RequestLogger(logger, "/healthz"))
	e.GET("/v1/requests/:id", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Zero(t, buf.Len())

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/requests/abc", nil))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/v1/requests/:id", line["route"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "mone", line["service"])
}
