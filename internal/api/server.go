// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/livingatlas/internal/core/card"
	"github.com/taibuivan/livingatlas/internal/core/category"
	"github.com/taibuivan/livingatlas/internal/core/favorite"
	"github.com/taibuivan/livingatlas/internal/core/tag"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
	"github.com/taibuivan/livingatlas/internal/platform/config"
	"github.com/taibuivan/livingatlas/internal/platform/constants"
	"github.com/taibuivan/livingatlas/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process runs.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 when all dependencies answer.
	Readiness http.HandlerFunc

	// Cards serves the card writer, the card reader and file links.
	Cards *card.Handler

	// Tags serves the tag vocabulary.
	Tags *tag.Handler

	// Categories serves the category list.
	Categories *category.Handler

	// Favorites serves bookmarks.
	Favorites *favorite.Handler

	// Blobs serves stored objects when the disk backend is active. Optional.
	Blobs http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// Card routes set their own deadlines because submissions stream large
// attachments; every other group shares GlobalRequestTimeout.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context, middleware.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	if h.Blobs != nil {
		r.Mount(blob.DiskMountPath, http.StripPrefix(blob.DiskMountPath, h.Blobs))
	}

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/cards", h.Cards.Routes())

		api.Group(func(short chi.Router) {
			short.Use(chimw.Timeout(constants.GlobalRequestTimeout))

			short.Mount("/files", h.Cards.FileRoutes())
			short.Mount("/tags", h.Tags.Routes())
			short.Mount("/categories", h.Categories.Routes())
			short.Mount("/favorites", h.Favorites.Routes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
