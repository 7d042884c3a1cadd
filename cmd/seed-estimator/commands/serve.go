package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ironsheep/seed-estimator/internal/auth"
	"github.com/ironsheep/seed-estimator/internal/config"
	"github.com/ironsheep/seed-estimator/internal/estimate"
	"github.com/ironsheep/seed-estimator/internal/upload"
	"github.com/ironsheep/seed-estimator/internal/web"
	"github.com/ironsheep/seed-estimator/internal/web/open"
	"github.com/ironsheep/seed-estimator/internal/web/secure"
)

func serveCmd(a *app) *cobra.Command {
	var variant, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("variant") {
				a.cfg.Variant = strings.ToLower(strings.TrimSpace(variant))
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			handler, err := a.buildHandler()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, handler)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "front end to run, open or secure (overrides config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// buildHandler wires the estimator, the upload processor and the configured
// front end.
func (a *app) buildHandler() (http.Handler, error) {
	est, err := estimate.New(a.cfg.Backend)
	if err != nil {
		return nil, err
	}
	proc, err := upload.NewProcessor(est.WithMaxPixels(a.cfg.MaxPixels), upload.Options{
		Dir:      a.cfg.UploadDir,
		MaxBytes: a.cfg.MaxUploadBytes,
		Preview:  a.cfg.Preview,
	})
	if err != nil {
		return nil, err
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	switch a.cfg.Variant {
	case config.VariantSecure:
		hashKey, blockKey, err := a.cfg.SessionKeys()
		if err != nil {
			return nil, err
		}
		if hashKey == nil || blockKey == nil {
			a.logger.Warn().Msg("session keys not configured; generated keys end all sessions on restart")
		}

		gin.SetMode(gin.ReleaseMode)
		srv, err := secure.New(secure.Options{
			Processor:      proc,
			Renderer:       renderer,
			Accounts:       auth.NewService(auth.NewFileStore(a.cfg.UsersFile)),
			Sessions:       auth.NewSessions(hashKey, blockKey, a.cfg.SessionMaxAge, a.cfg.CookieSecure),
			MaxUploadBytes: a.cfg.MaxUploadBytes,
			CORSOrigins:    a.cfg.CORSOrigins,
			Logger:         a.logger,
		})
		if err != nil {
			return nil, err
		}
		return srv, nil
	default:
		srv, err := open.New(open.Options{
			Processor:      proc,
			Renderer:       renderer,
			MaxUploadBytes: a.cfg.MaxUploadBytes,
			CORSOrigins:    a.cfg.CORSOrigins,
			Logger:         a.logger,
		})
		if err != nil {
			return nil, err
		}
		return srv, nil
	}
}

// serve runs the HTTP server until ctx is done, then shuts it down within
// the configured timeout.
func (a *app) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("addr", a.cfg.Addr).
			Str("variant", a.cfg.Variant).
			Str("backend", a.cfg.Backend).
			Str("upload_dir", a.cfg.UploadDir).
			Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Dur("timeout", a.cfg.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
