// Package open is the front end without accounts: a goji mux behind CORS
// serving the upload form to anyone.
package open

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"goji.io"
	"goji.io/middleware"
	"goji.io/pat"

	"github.com/ironsheep/seed-estimator/internal/observability"
	"github.com/ironsheep/seed-estimator/internal/upload"
	"github.com/ironsheep/seed-estimator/internal/web"
)

// Variant labels this front end in logs and metrics.
const Variant = "open"

// Options wires the front end.
type Options struct {
	Processor      *upload.Processor
	Renderer       *web.Renderer
	MaxUploadBytes int64
	CORSOrigins    []string
	Logger         zerolog.Logger
}

// Server serves the open front end.
type Server struct {
	opts Options
	mux  *goji.Mux
}

// New builds the mux and its middleware.
func New(opts Options) (*Server, error) {
	if opts.Processor == nil || opts.Renderer == nil {
		return nil, fmt.Errorf("open front end needs a processor and a renderer")
	}

	s := &Server{opts: opts, mux: goji.NewMux()}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})

	s.mux.Use(observability.HTTPMiddleware(opts.Logger, Variant, routeName))
	s.mux.Use(c.Handler)

	s.mux.HandleFunc(pat.Get("/"), s.handleForm)
	s.mux.HandleFunc(pat.Get("/home"), s.handleForm)
	s.mux.HandleFunc(pat.Post("/"), s.handleSubmit)
	s.mux.HandleFunc(pat.Post("/home"), s.handleSubmit)
	s.mux.HandleFunc(pat.Get("/healthz"), web.Healthz)
	s.mux.Handle(pat.Get("/metrics"), observability.MetricsHandler())

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, web.Page{})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, cleanup, err := web.ReadSubmission(w, r, s.opts.MaxUploadBytes)
	defer cleanup()
	if err != nil {
		status, page := web.Failure(r.Context(), Variant, sub.Density, err)
		s.render(w, r, status, page)
		return
	}

	status, page := web.Evaluate(r.Context(), s.opts.Processor, Variant, sub)
	s.render(w, r, status, page)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page web.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.opts.Renderer.Render(w, web.PageHome, page); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
	}
}

// routeName labels a request by the pattern goji matched.
func routeName(r *http.Request) string {
	if p, ok := middleware.Pattern(r.Context()).(fmt.Stringer); ok {
		return p.String()
	}
	return "unmatched"
}
