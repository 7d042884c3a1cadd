package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("open", "GET", "/", 200, 12*time.Millisecond)
	RecordEstimate("open", "ok", 2401, 30*time.Millisecond)
	RecordEstimate("secure", "no_area", 0, 5*time.Millisecond)
	RecordAuth("login", false)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seed_estimator_estimate_total")
	assert.Contains(t, rec.Body.String(), "seed_estimator_auth_events_total")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"chatty", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestInitLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := InitLogger("seed-estimator", LogOptions{Level: "debug", Format: "json", Out: &buf})
	defer closer.Close()

	logger.Debug().Str("k", "v").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "seed-estimator", line["app"])
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "v", line["k"])
}

func TestInitLogger_EnvLevelWins(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	var buf bytes.Buffer
	logger, _ := InitLogger("seed-estimator", LogOptions{Level: "debug", Format: "json", Out: &buf})

	logger.Info().Msg("dropped")
	assert.Empty(t, buf.String())
}

func TestInitLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.log")
	var buf bytes.Buffer
	logger, closer := InitLogger("seed-estimator", LogOptions{Format: "json", File: path, Out: &buf})

	logger.Info().Msg("to both")
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), "to both")
	assert.FileExists(t, path)
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var sawLogger bool
	h := HTTPMiddleware(logger, "open", func(*http.Request) string { return "/home" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawLogger = zerolog.Ctx(r.Context()).GetLevel() != zerolog.Disabled
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, sawLogger)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/home"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestHTTPMiddleware_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := HTTPMiddleware(zerolog.New(&buf), "open", func(r *http.Request) string { return r.URL.Path })(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.True(t, strings.Contains(buf.String(), "handler panicked"))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)), RequestMetricsMiddleware("secure"))
	r.GET("/healthz", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside")
		c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "inside")
	assert.Contains(t, buf.String(), `"path":"/healthz"`)
}
