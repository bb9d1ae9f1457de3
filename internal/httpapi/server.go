// Package httpapi exposes the hora use cases over HTTP.
//
// The caller identity is taken from the X-Hora-Identity header, which the
// upstream identity provider sets after verifying the caller. This package
// never authenticates on its own.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"github.com/runoshun/hora/internal/app"
	"github.com/runoshun/hora/internal/domain"
)

// IdentityHeader carries the verified caller identity.
const IdentityHeader = "X-Hora-Identity"

const shutdownTimeout = 10 * time.Second

type identityKey struct{}

// Server serves the HTTP API backed by a container.
type Server struct {
	c         *app.Container
	accessLog func(http.Handler) http.Handler
}

// NewServer creates a Server with JSON access logging.
func NewServer(c *app.Container) *Server {
	logger := httplog.NewLogger("hora", httplog.Options{
		JSON:    true,
		Concise: true,
	})
	return &Server{
		c:         c,
		accessLog: httplog.RequestLogger(logger),
	}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.accessLog != nil {
		r.Use(s.accessLog)
	}
	r.Use(middleware.Recoverer)
	r.Use(withIdentity)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", s.createTask)
		r.Get("/", s.listPosted)
		r.Get("/assigned", s.listAssigned)
		r.Get("/done", s.listDone)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getTask)
			r.Patch("/", s.editTask)
			r.Post("/accept", s.acceptTask)
			r.Post("/clock-in", s.clockIn)
			r.Post("/clock-out", s.clockOut)
			r.Get("/worklogs", s.showWorklog)
			r.Get("/worklogs/status", s.worklogStatus)
			r.Post("/complete", s.completeTask)
			r.Get("/cost", s.quoteCost)
		})
	})

	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.c.Logger.Info("", "serve", "listening on "+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.c.Logger.Info("", "serve", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// withIdentity stores the identity header in the request context.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := domain.Identity(r.Header.Get(IdentityHeader))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

// identityFrom returns the caller identity of r, or "" if none was sent.
func identityFrom(r *http.Request) domain.Identity {
	id, _ := r.Context().Value(identityKey{}).(domain.Identity)
	return id
}
