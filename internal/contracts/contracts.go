// Package contracts defines interfaces that decouple the engine from its
// external collaborators and from each other.
package contracts

import (
	"context"
	"errors"
	"time"

	"soundcrate/internal/domain/consts"
	"soundcrate/internal/models"
)

// ErrJobNotFound is returned by JobStore.Get for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// JobStore persists job records. Implementations must serialize writes
// per job id and provide read-after-write consistency for the same id.
//
// Update operations on a missing id are silent no-ops: an in-flight job
// task may race a user-triggered delete, and the late write must not be
// treated as fatal.
type JobStore interface {
	Create(ctx context.Context, j *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Job, error)

	UpdateStatus(ctx context.Context, u models.StatusUpdate) error
	SetMetadata(ctx context.Context, id string, md models.JobMetadata) error

	// SetResult atomically records the published files, the signed result
	// URL and its expiry, and moves the job to complete at progress 100.
	SetResult(ctx context.Context, id string, files []models.JobFile, resultURL string, expiresAt time.Time) error

	// SetError moves the job to its error terminal state.
	SetError(ctx context.Context, id, msg string) error

	// Delete removes the record. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id string) error
}

// BlobStore is the durable artifact store.
type BlobStore interface {
	Upload(ctx context.Context, localPath, jobID, filename string) (storagePath string, err error)
	SignedURL(storagePath string, ttl time.Duration) (string, error)
	Delete(prefix string) error
}

// ProgressSink receives progress pushed by a fetch as it happens.
type ProgressSink interface {
	OnProgress(status consts.JobStatus, percent float64, message string)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(status consts.JobStatus, percent float64, message string)

func (f ProgressFunc) OnProgress(status consts.JobStatus, percent float64, message string) {
	f(status, percent, message)
}

// AudioFetcher pulls one track's audio from a directly fetchable URL.
type AudioFetcher interface {
	Fetch(ctx context.Context, url, outputDir string, opts models.FetchOptions, sink ProgressSink) models.FetchOutcome
}

// MetadataProvider resolves catalog identifiers into descriptors.
type MetadataProvider interface {
	TrackInfo(ctx context.Context, url string) (*models.TrackDescriptor, error)
	AlbumInfo(ctx context.Context, url string) (*models.AlbumDescriptor, error)
}

// Transliterator converts non-Latin text to a Latin rendering.
type Transliterator interface {
	NeedsTransliteration(text string) bool
	Transliterate(ctx context.Context, text string) (string, error)
}
