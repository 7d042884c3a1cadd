// Package secure is the front end with accounts: a gin engine serving
// signup, login and logout, with the upload form behind a session cookie.
package secure

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ironsheep/seed-estimator/internal/auth"
	"github.com/ironsheep/seed-estimator/internal/observability"
	"github.com/ironsheep/seed-estimator/internal/upload"
	"github.com/ironsheep/seed-estimator/internal/web"
)

// Variant labels this front end in logs and metrics.
const Variant = "secure"

// Form fields of the account pages.
const (
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldPass      = "pass"
	FieldPassword1 = "password1"
	FieldPassword2 = "password2"
)

const userKey = "user"

// Options wires the front end.
type Options struct {
	Processor      *upload.Processor
	Renderer       *web.Renderer
	Accounts       *auth.Service
	Sessions       *auth.Sessions
	MaxUploadBytes int64
	CORSOrigins    []string
	Logger         zerolog.Logger
}

// Server serves the secured front end.
type Server struct {
	opts   Options
	router *gin.Engine
}

// New builds the gin engine and registers the routes.
func New(opts Options) (*Server, error) {
	if opts.Processor == nil || opts.Renderer == nil || opts.Accounts == nil || opts.Sessions == nil {
		return nil, errors.New("secure front end needs a processor, a renderer, accounts and sessions")
	}

	cc := corsConfig(opts.CORSOrigins)
	if err := cc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cors origins: %w", err)
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(opts.Logger))
	r.Use(observability.RequestMetricsMiddleware(Variant))
	r.Use(cors.New(cc))
	if err := r.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	s := &Server{opts: opts, router: r}
	s.registerRoutes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/healthz", gin.WrapF(web.Healthz))
	r.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	r.GET("/signup", s.page(web.PageSignup))
	r.POST("/signup", s.signup)
	r.GET("/login", s.page(web.PageLogin))
	r.POST("/login", s.login)
	r.GET("/logout", s.logout)

	home := r.Group("", s.requireLogin)
	home.GET("/", s.form)
	home.GET("/home", s.form)
	home.POST("/", s.submit)
	home.POST("/home", s.submit)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// requireLogin sends visitors without a valid session to the login page.
func (s *Server) requireLogin(c *gin.Context) {
	user, err := s.opts.Sessions.Username(c.Request)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func (s *Server) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.render(c, http.StatusOK, name, web.Page{})
	}
}

func (s *Server) form(c *gin.Context) {
	s.render(c, http.StatusOK, web.PageHome, web.Page{User: c.GetString(userKey)})
}

func (s *Server) submit(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, web.BodyLimit(s.opts.MaxUploadBytes))

	if err := c.Request.ParseMultipartForm(s.router.MaxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		status, page := web.Failure(ctx, Variant, "", web.TranslateBodyError(err))
		page.User = c.GetString(userKey)
		s.render(c, status, web.PageHome, page)
		return
	}
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()

	sub := upload.Submission{Density: c.PostForm(web.FieldDensity)}
	if fh, err := c.FormFile(web.FieldImage); err == nil {
		closeFile, err := web.OpenFileHeader(&sub, fh)
		defer closeFile()
		if err != nil {
			status, page := web.Failure(ctx, Variant, sub.Density, err)
			page.User = c.GetString(userKey)
			s.render(c, status, web.PageHome, page)
			return
		}
	}

	status, page := web.Evaluate(ctx, s.opts.Processor, Variant, sub)
	page.User = c.GetString(userKey)
	s.render(c, status, web.PageHome, page)
}

func (s *Server) signup(c *gin.Context) {
	log := zerolog.Ctx(c.Request.Context())

	u, err := s.opts.Accounts.Signup(
		c.PostForm(FieldUsername),
		c.PostForm(FieldEmail),
		c.PostForm(FieldPassword1),
		c.PostForm(FieldPassword2),
	)
	observability.RecordAuth("signup", err == nil)
	if err != nil {
		status := authStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("signup failed")
		} else {
			log.Warn().Err(err).Msg("signup rejected")
		}
		c.String(status, auth.Message(err))
		return
	}

	log.Info().Str("username", u.Username).Msg("user signed up")
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) login(c *gin.Context) {
	log := zerolog.Ctx(c.Request.Context())

	u, err := s.opts.Accounts.Authenticate(c.PostForm(FieldUsername), c.PostForm(FieldPass))
	if err == nil {
		err = s.opts.Sessions.Issue(c.Writer, u.Username)
	}
	observability.RecordAuth("login", err == nil)
	if err != nil {
		status := authStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("login failed")
		} else {
			log.Warn().Str("username", c.PostForm(FieldUsername)).Msg("login rejected")
		}
		c.String(status, auth.Message(err))
		return
	}

	log.Info().Str("username", u.Username).Msg("user logged in")
	c.Redirect(http.StatusFound, "/home")
}

func (s *Server) logout(c *gin.Context) {
	s.opts.Sessions.Clear(c.Writer)
	observability.RecordAuth("logout", true)
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) render(c *gin.Context, status int, name string, page web.Page) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := s.opts.Renderer.Render(c.Writer, name, page); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to render page")
	}
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch), errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
