package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	custommw "github.com/jcom-dev/zmanim/internal/middleware"
)

// NewRouter assembles the chi router: request-ID and access-log middleware
// adapted from the teacher's internal/middleware, permissive CORS (auth and
// fine-grained CORS policy are out of scope here), and the endpoints
// spec.md §6 fixes as the core's external contract.
func NewRouter(s *Service) *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.Logger)
	r.Use(custommw.Recoverer)
	r.Use(custommw.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/s3/status", s.handleS3Status)
	r.Get("/grid/info", s.handleGridInfo)
	r.Get("/tiles/{z}/{x}/{y}.png", s.handleTile)
	r.Post("/ingest", s.handleIngest)
	r.Post("/ingest_files", s.handleIngestFiles)
	r.Post("/ingest_s3", s.handleIngestS3)

	return r
}
