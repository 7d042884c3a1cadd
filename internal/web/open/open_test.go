package open

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/seed-estimator/internal/estimate"
	"github.com/ironsheep/seed-estimator/internal/upload"
	"github.com/ironsheep/seed-estimator/internal/web"
	"github.com/ironsheep/seed-estimator/internal/web/webtest"
)

type fixture struct {
	srv  *Server
	dir  string
	logs *bytes.Buffer
}

func newFixture(t *testing.T, maxBytes int64) *fixture {
	t.Helper()

	est, err := estimate.New(estimate.DefaultBackend)
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "uploads")
	proc, err := upload.NewProcessor(est, upload.Options{Dir: dir, MaxBytes: maxBytes})
	require.NoError(t, err)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	var logs bytes.Buffer
	srv, err := New(Options{
		Processor:      proc,
		Renderer:       renderer,
		MaxUploadBytes: maxBytes,
		Logger:         zerolog.New(&logs),
	})
	require.NoError(t, err)
	return &fixture{srv: srv, dir: dir, logs: &logs}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) assertNoUploadsLeft(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestForm(t *testing.T) {
	f := newFixture(t, 1<<20)

	for _, path := range []string{"/", "/home"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `name="density"`)
	}
}

func TestSubmit_WhiteSquare(t *testing.T) {
	f := newFixture(t, 1<<20)

	for _, path := range []string{"/", "/home"} {
		rec := f.do(webtest.UploadRequest(t, path,
			webtest.Field{Name: web.FieldDensity, Value: "10"},
			webtest.Field{Name: web.FieldImage, FileName: "plot.png", File: webtest.SquarePNG(t, 100, 25, 50)},
		))

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Total area of the land: 2401.00 square meters<br>")
		assert.Contains(t, rec.Body.String(), "24010.00 seeds/plants")
	}
	f.assertNoUploadsLeft(t)
	assert.Contains(t, f.logs.String(), `"path":"/"`)
}

func TestSubmit_Errors(t *testing.T) {
	img := webtest.SquarePNG(t, 40, 10, 20)

	tests := []struct {
		name   string
		fields []webtest.Field
		status int
		want   string
	}{
		{
			name:   "missing image",
			fields: []webtest.Field{{Name: web.FieldDensity, Value: "10"}},
			status: http.StatusBadRequest,
			want:   upload.MsgMissingImage,
		},
		{
			name:   "missing density",
			fields: []webtest.Field{{Name: web.FieldImage, FileName: "plot.png", File: img}},
			status: http.StatusBadRequest,
			want:   upload.MsgMissingDensity,
		},
		{
			name: "wrong type",
			fields: []webtest.Field{
				{Name: web.FieldDensity, Value: "10"},
				{Name: web.FieldImage, FileName: "photo.png.txt", File: img},
			},
			status: http.StatusBadRequest,
			want:   upload.MsgInvalidFileType,
		},
		{
			name: "black image",
			fields: []webtest.Field{
				{Name: web.FieldDensity, Value: "10"},
				{Name: web.FieldImage, FileName: "black.png", File: webtest.SquarePNG(t, 100, 0, 0)},
			},
			status: http.StatusUnprocessableEntity,
			want:   upload.MsgNoArea,
		},
		{
			name: "too large",
			fields: []webtest.Field{
				{Name: web.FieldDensity, Value: "10"},
				{Name: web.FieldImage, FileName: "huge.png", File: bytes.Repeat([]byte{0}, 8<<10)},
			},
			status: http.StatusRequestEntityTooLarge,
			want:   upload.MsgTooLarge,
		},
		{
			name: "body over form limit",
			fields: []webtest.Field{
				{Name: web.FieldDensity, Value: "10"},
				{Name: web.FieldImage, FileName: "huge.png", File: bytes.Repeat([]byte{0}, web.FormOverhead+8<<10)},
			},
			status: http.StatusRequestEntityTooLarge,
			want:   upload.MsgTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 4<<10)

			rec := f.do(webtest.UploadRequest(t, "/", tt.fields...))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			f.assertNoUploadsLeft(t)
		})
	}
}

func TestSubmit_ImageExactlyAtLimit(t *testing.T) {
	img := webtest.SquarePNG(t, 100, 25, 50)
	f := newFixture(t, int64(len(img)))

	rec := f.do(webtest.UploadRequest(t, "/",
		webtest.Field{Name: web.FieldDensity, Value: "10"},
		webtest.Field{Name: web.FieldImage, FileName: "plot.png", File: img},
	))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "24010.00 seeds/plants")
	f.assertNoUploadsLeft(t)
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t, 1<<20)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seed_estimator_http_requests_total")
	assert.Contains(t, rec.Body.String(), `path="/healthz"`)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, 1<<20)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, f.logs.String(), `"path":"unmatched"`)
}

func TestCORS(t *testing.T) {
	f := newFixture(t, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://plots.example")
	rec := f.do(req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	preflight.Header.Set("Origin", "https://plots.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = f.do(preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
