package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ugel-ilo/sgd-backend/internal/api/handlers"
	"github.com/ugel-ilo/sgd-backend/internal/config"
	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/core/search"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, obj core.ObjectClient,
	jobs core.JobStore, searchEngine *search.Engine) *Server {

	docHandler := handlers.NewDocumentHandler(db, obj, jobs, cfg)
	searchHandler := handlers.NewSearchHandler(searchEngine)
	taskHandler := handlers.NewTaskHandler(jobs)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id"},
		AllowCredentials: true,
	}))

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/documentos", func(docs chi.Router) {
			docs.Post("/upload", docHandler.UploadDocument)
			docs.Get("/", docHandler.ListDocuments)
			docs.Get("/{id}", docHandler.GetDocument)
			docs.Put("/{id}", docHandler.UpdateDocument)
			docs.Delete("/{id}", docHandler.DeleteDocument)
			docs.Get("/{id}/download", docHandler.DownloadDocument)
			docs.Get("/{id}/historial", docHandler.DocumentAuditHistory)
		})

		api.Post("/busqueda", searchHandler.Search)
		api.Get("/tareas/{id}", taskHandler.GetTask)
		api.Get("/auditoria", docHandler.AuditHistory)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
