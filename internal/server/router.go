// Package server exposes the job submission API and the signed file
// retrieval endpoint.
package server

import (
	"context"
	"net/http"

	"soundcrate/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// JobService is the orchestration surface the API consumes.
type JobService interface {
	Submit(ctx context.Context, userID, url string, transliterate bool) (*models.Job, error)
	Job(ctx context.Context, userID, id string) (*models.Job, error)
	Jobs(ctx context.Context, userID string) ([]*models.Job, error)
	Delete(ctx context.Context, userID, id string) error
}

// FileGate validates download tokens and maps storage paths to disk.
type FileGate interface {
	Verify(token string) (string, error)
	Resolve(storagePath string) (string, error)
}

// Server holds the API's collaborators.
type Server struct {
	jobs  JobService
	files FileGate
}

// NewRouter returns the http handler for the full API surface.
func NewRouter(jobs JobService, files FileGate) http.Handler {
	s := &Server{jobs: jobs, files: files}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- API Routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleSubmitJob)
			r.Get("/", s.handleListJobs)
			r.Get("/{id}", s.handleGetJob)
			r.Delete("/{id}", s.handleDeleteJob)
		})
	})

	// Signed artifact retrieval, no user header required: the token is
	// the credential.
	r.Get("/files/{token}", s.handleDownloadFile)

	return r
}
