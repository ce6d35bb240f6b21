package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"soundcrate/internal/blob"
	"soundcrate/internal/models"
	"soundcrate/internal/orchestrator"

	"github.com/go-chi/chi/v5"
)

// userID extracts the authenticated user from the gateway-set header.
// Token verification happens upstream; an absent header means the
// request never passed the gateway.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := r.Header.Get("X-User-ID")
	if uid == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return "", false
	}
	return uid, true
}

type submitRequest struct {
	URL           string `json:"url"`
	Transliterate bool   `json:"transliterate"`
}

// handleSubmitJob accepts a URL and queues a download job.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	job, err := s.jobs.Submit(r.Context(), uid, req.URL, req.Transliterate)
	if errors.Is(err, orchestrator.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusAccepted, job)
}

// handleGetJob returns one job, owner-checked.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	job, err := s.jobs.Job(r.Context(), uid, chi.URLParam(r, "id"))
	if errors.Is(err, orchestrator.ErrNotFound) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// handleListJobs returns all of a user's jobs.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	jobs, err := s.jobs.Jobs(r.Context(), uid)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []*models.Job{}
	}

	respondJSON(w, http.StatusOK, jobs)
}

// handleDeleteJob removes a job and its artifacts, owner-checked.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	err := s.jobs.Delete(r.Context(), uid, chi.URLParam(r, "id"))
	if errors.Is(err, orchestrator.ErrNotFound) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDownloadFile serves a published artifact for a valid token.
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	storagePath, err := s.files.Verify(token)
	if errors.Is(err, blob.ErrTokenExpired) {
		http.Error(w, "download link expired", http.StatusGone)
		return
	}
	if err != nil {
		http.Error(w, "invalid download link", http.StatusForbidden)
		return
	}

	local, err := s.files.Resolve(storagePath)
	if err != nil {
		http.Error(w, "invalid download link", http.StatusForbidden)
		return
	}

	http.ServeFile(w, r, local)
}
