// Package controller contains the HTTP API for the import service.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"debtorbatch/internal/controller/handlers"
	"debtorbatch/internal/controller/middleware"
)

// Options configures the server beyond its handler dependencies.
type Options struct {
	Addr           string
	MockIdentity   bool
	RateLimitRPS   rate.Limit
	RateLimitBurst int
	MetricsHandler http.Handler
}

// Server is the HTTP server for the import API.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// New creates a new import API server.
func New(opts Options, h *handlers.Handlers, log *slog.Logger) *Server {
	auth := middleware.Auth(opts.MockIdentity)
	limit := middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst, 5*time.Minute)

	protected := func(handler http.HandlerFunc) http.Handler {
		return middleware.Correlation(auth(limit(handler)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /imports/debtors", protected(h.UploadDebtors))
	mux.Handle("GET /imports/jobs/{id}", protected(h.GetJobStatus))
	mux.Handle("GET /imports/jobs/{id}/errors", protected(h.GetErrorLog))
	mux.Handle("GET /imports/jobs/{id}/errors/download", protected(h.DownloadErrorLog))
	mux.Handle("GET /imports/jobs/{id}/file", protected(h.DownloadSourceFile))

	mux.HandleFunc("GET /healthz", h.Health)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:    opts.Addr,
			Handler: mux,
			// Uploads up to the size limit must fit in the read window.
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		log: log,
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
