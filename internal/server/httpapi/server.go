// Package httpapi exposes the user service over HTTP/JSON: the auth
// endpoints the client logs in through, the user-data endpoints the sync
// layer pushes to, plus health and metrics.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edavydenko/mylist/internal/logging"
	"github.com/edavydenko/mylist/internal/server/users"
)

type Server struct {
	addr    string
	log     logging.Logger
	service *users.Service
	srv     *http.Server
}

func NewServer(addr string, service *users.Service, log logging.Logger) *Server {
	s := &Server{addr: addr, log: log, service: service}

	r := chi.NewRouter()
	r.Use(requestMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/check-username", s.checkUsername)
		r.Post("/auth/create-user", s.createUser)
		r.Post("/user/save-data", s.saveData)
		r.Get("/user/{username}", s.getUser)
		r.Get("/user/{username}/stats", s.getStats)
		r.Get("/health", s.health)
	})
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info(ctx, "HTTP server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
