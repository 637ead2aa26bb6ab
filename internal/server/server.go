// Package server exposes the shell over a small JSON HTTP API.
//
// Routes:
//
//	GET  /healthz
//	GET  /fonts                  loads the catalog on first use
//	GET  /fonts/{name}
//	GET  /layout
//	PUT  /layout/preferences
//	PUT  /layout/crazy
//	POST /layout/navigate
//	GET  /visits/{visitor}
//	POST /visits/{visitor}
//	POST /adaptive/pick
//	POST /adaptive/record
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with the
// status from errors.HTTPStatus.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/appshell/pkg/config"
	"github.com/matzehuels/appshell/pkg/shell"
)

// requestTimeout bounds how long a handler waits, including waits on a
// shared catalog load. The load itself is not cancelled.
const requestTimeout = 30 * time.Second

// Server serves the API for one shell.
type Server struct {
	shell  *shell.Shell
	logger *log.Logger
	now    func() time.Time
	router chi.Router
}

// New builds the router. A nil logger discards output.
func New(sh *shell.Shell, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{shell: sh, logger: logger, now: time.Now}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/fonts", func(r chi.Router) {
		r.Get("/", s.handleFonts)
		r.Get("/{name}", s.handleFont)
	})

	r.Route("/layout", func(r chi.Router) {
		r.Get("/", s.handleLayout)
		r.Put("/preferences", s.handleSetPreferences)
		r.Put("/crazy", s.handleSetCrazy)
		r.Post("/navigate", s.handleNavigate)
	})

	r.Route("/visits/{visitor}", func(r chi.Router) {
		r.Get("/", s.handleStreak)
		r.Post("/", s.handleRecordVisit)
	})

	r.Route("/adaptive", func(r chi.Router) {
		r.Post("/pick", s.handlePick)
		r.Post("/record", s.handleRecordAnswer)
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
