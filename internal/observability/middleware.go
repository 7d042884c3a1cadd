package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request and makes logger available to
// handlers through zerolog.Ctx(c.Request.Context()).
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logRequest(logger, c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP(), c.Writer.Size())
	}
}

func RequestMetricsMiddleware(variant string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		RecordHTTPRequest(variant, c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// HTTPMiddleware is the net/http counterpart of RequestLogger,
// RequestMetricsMiddleware and gin.Recovery in one wrapper. route names the
// matched route for labels; it should not return raw request paths.
func HTTPMiddleware(logger zerolog.Logger, variant string, route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			r = r.WithContext(logger.WithContext(r.Context()))

			defer func() {
				if p := recover(); p != nil {
					logger.Error().Interface("panic", p).Str("path", r.URL.Path).Msg("handler panicked")
					if !rec.wroteHeader {
						http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}

				path := route(r)
				status := rec.Status()
				duration := time.Since(start)
				logRequest(logger, r.Method, path, status, duration, r.RemoteAddr, rec.size)
				RecordHTTPRequest(variant, r.Method, path, status, duration)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func logRequest(logger zerolog.Logger, method, path string, status int, d time.Duration, client string, size int) {
	event := logger.Info()
	if status >= 500 {
		event = logger.Error()
	} else if status >= 400 {
		event = logger.Warn()
	}

	event.
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", d).
		Str("client_ip", client).
		Int("bytes", size).
		Msg("http_request")
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
