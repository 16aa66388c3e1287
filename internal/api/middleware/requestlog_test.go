package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAPI mounts the routes the server exposes with canned responses.
// ready controls the /readyz answer.
func testAPI(buf *bytes.Buffer, ready *atomic.Bool) *echo.Echo {
	e := echo.New()
	e.Use(RequestLog(slog.New(slog.NewTextHandler(buf, nil))))

	e.GET(pathHealthz, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET(pathReadyz, func(c echo.Context) error {
		if !ready.Load() {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
	e.GET("/api/v1/stock", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"stock": []string{}, "request_id": RequestID(c)})
	})
	e.POST("/api/v1/scrape", func(c echo.Context) error {
		return c.JSON(http.StatusConflict, map[string]string{"detail": "scrape already in progress"})
	})
	return e
}

func serve(e *echo.Echo, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func logLines(buf *bytes.Buffer, path string) []string {
	var out []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "path="+path+" ") {
			out = append(out, line)
		}
	}
	return out
}

func TestRequestLog_RequestID(t *testing.T) {
	t.Parallel()

	t.Run("header is echoed and exposed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ready := &atomic.Bool{}
		rec := serve(testAPI(&buf, ready), http.MethodGet, "/api/v1/stock",
			http.Header{requestIDHeader: {"stock-7"}})

		assert.Equal(t, "stock-7", rec.Header().Get(requestIDHeader))
		assert.Contains(t, rec.Body.String(), `"request_id":"stock-7"`)
		assert.Contains(t, buf.String(), "request_id=stock-7")
	})

	t.Run("missing header gets a uuid", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ready := &atomic.Bool{}
		rec := serve(testAPI(&buf, ready), http.MethodGet, "/api/v1/stock", nil)

		id := rec.Header().Get(requestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Contains(t, rec.Body.String(), id)
		assert.Contains(t, buf.String(), "request_id="+id)
	})
}

func TestRequestLog_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantLevel  string
	}{
		{
			name:       "stock listing",
			method:     http.MethodGet,
			path:       "/api/v1/stock",
			wantStatus: http.StatusOK,
			wantLevel:  "level=INFO",
		},
		{
			name:       "scrape already running",
			method:     http.MethodPost,
			path:       "/api/v1/scrape",
			wantStatus: http.StatusConflict,
			wantLevel:  "level=WARN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			ready := &atomic.Bool{}
			rec := serve(testAPI(&buf, ready), tt.method, tt.path, nil)
			require.Equal(t, tt.wantStatus, rec.Code)

			lines := logLines(&buf, tt.path)
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], tt.wantLevel)
			assert.Contains(t, lines[0], "method="+tt.method)
			assert.Contains(t, lines[0], "duration_ms=")
		})
	}
}

func TestRequestLog_ProbeSuccessLoggedOncePerPath(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ready := &atomic.Bool{}
	ready.Store(true)
	e := testAPI(&buf, ready)

	for range 3 {
		require.Equal(t, http.StatusOK, serve(e, http.MethodGet, pathHealthz, nil).Code)
		require.Equal(t, http.StatusOK, serve(e, http.MethodGet, pathReadyz, nil).Code)
	}

	assert.Len(t, logLines(&buf, pathHealthz), 1)
	assert.Len(t, logLines(&buf, pathReadyz), 1)
}

func TestRequestLog_ProbeFailuresAlwaysLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ready := &atomic.Bool{}
	ready.Store(true)
	e := testAPI(&buf, ready)

	serve(e, http.MethodGet, pathReadyz, nil)
	ready.Store(false)
	serve(e, http.MethodGet, pathReadyz, nil)
	serve(e, http.MethodGet, pathReadyz, nil)
	ready.Store(true)
	serve(e, http.MethodGet, pathReadyz, nil)

	lines := logLines(&buf, pathReadyz)
	require.Len(t, lines, 3, "first success and both failures")
	assert.Contains(t, lines[0], "status=200")
	for _, line := range lines[1:] {
		assert.Contains(t, line, "status=503")
		assert.Contains(t, line, "level=WARN")
	}
}

func TestRequestLog_SeparateMiddlewareInstances(t *testing.T) {
	t.Parallel()

	ready := &atomic.Bool{}
	for range 2 {
		var buf bytes.Buffer
		serve(testAPI(&buf, ready), http.MethodGet, pathHealthz, nil)
		assert.Len(t, logLines(&buf, pathHealthz), 1)
	}
}
