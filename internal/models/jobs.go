// Package models holds the data models shared across the engine.
package models

import (
	"time"

	"soundcrate/internal/domain/consts"
)

// Job is the unit of work and its persisted state.
type Job struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	SourceURL string           `json:"sourceUrl"`
	Source    consts.Source    `json:"catalogSource"`
	Kind      consts.MediaKind `json:"kind"`

	Status   consts.JobStatus `json:"status"`
	Progress float64          `json:"progress"`
	Message  string           `json:"message"`

	Metadata JobMetadata `json:"metadata"`
	Files    []JobFile   `json:"files"`

	ResultURL string    `json:"resultUrl,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	Error     string    `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JobMetadata is populated opportunistically as soon as it is known; it
// may arrive before any file does.
type JobMetadata struct {
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	TrackCount int    `json:"trackCount,omitempty"`
}

// JobFile is one published artifact.
type JobFile struct {
	Name        string `json:"name"`
	StoragePath string `json:"storagePath"`
	Size        int64  `json:"size"`
}

// StatusUpdate models one progress/status mutation of a job record.
type StatusUpdate struct {
	JobID   string
	Status  consts.JobStatus
	Percent float64
	Message string
}
