package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyagen/sectionvault/internal/config"
	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/service"
)

// Server holds dependencies for the HTTP API.
type Server struct {
	rec      *service.Reconciler
	sessions *service.Sessions
	cfg      *config.Config
	router   chi.Router
}

// New creates a Server and registers routes.
func New(rec *service.Reconciler, sessions *service.Sessions, cfg *config.Config) *Server {
	srv := &Server{rec: rec, sessions: sessions, cfg: cfg}
	srv.router = srv.routes()
	return srv
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(withLogging)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/collections", func(r chi.Router) {
		r.Get("/", s.handleListCollections)
		r.Get("/{name}", s.handleGetCollection)
		r.Put("/{name}", s.handleSaveCollection)
		r.Delete("/{name}", s.handleResetCollection)
		r.Post("/{name}/preview", s.handlePreviewSave)
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleOpenSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Post("/save", s.handleSaveSession)
			r.Route("/collections/{name}", func(r chi.Router) {
				r.Put("/", s.handleReplaceTree)
				r.Post("/groups", s.handleCreateGroup)
				r.Post("/import", s.handleImport)
				r.Patch("/groups/{group}", s.handleRenameGroup)
				r.Delete("/groups/{group}", s.handleDeleteGroup)
				r.Post("/groups/{group}/sections", s.handleAddSection)
				r.Patch("/sections/{section}", s.handleUpdateSection)
				r.Delete("/sections/{section}", s.handleDeleteSection)
			})
		})
	})

	r.Get("/api/docs", handleSwaggerUI)
	r.Get("/api/docs/openapi.yaml", handleOpenAPISpec)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("server shutdown")
		}
	}()

	logging.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
