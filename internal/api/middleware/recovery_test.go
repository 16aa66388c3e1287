package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery_LogsRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reqID     string
		value     any
		wantID    string
		wantError string
	}{
		{
			name:      "string panic",
			reqID:     "scrape-1",
			value:     "selector returned nil node",
			wantID:    "request_id=scrape-1",
			wantError: "selector returned nil node",
		},
		{
			name:      "error panic",
			reqID:     "scrape-2",
			value:     errors.New("ledger closed"),
			wantID:    "request_id=scrape-2",
			wantError: "ledger closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))

			e := echo.New()
			e.Use(RequestLog(log), Recovery(log))
			e.POST("/api/v1/scrape", func(echo.Context) error {
				panic(tt.value)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", http.NoBody)
			req.Header.Set(requestIDHeader, tt.reqID)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
			assert.Equal(t, tt.reqID, rec.Header().Get(requestIDHeader))

			lines := logLines(&buf, "/api/v1/scrape")
			require.Len(t, lines, 2, "panic line then request line")
			assert.Contains(t, lines[0], "panic recovered")
			assert.Contains(t, lines[0], tt.wantError)
			assert.Contains(t, lines[0], tt.wantID)
			assert.Contains(t, lines[0], "stack=")
			assert.Contains(t, lines[1], "status=500")
			assert.Contains(t, lines[1], "level=WARN")
			assert.Contains(t, lines[1], tt.wantID)
		})
	}
}

func TestRecovery_WithoutRequestLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(Recovery(slog.New(slog.NewTextHandler(&buf, nil))))
	e.GET("/api/v1/stats", func(echo.Context) error {
		panic("stats unavailable")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `request_id=""`)
}

func TestRecovery_PassesThrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(Recovery(slog.New(slog.NewTextHandler(&buf, nil))))
	e.GET(pathHealthz, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pathHealthz, http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, buf.String())
}
