// Package orchestrator drives download jobs from submission to a
// terminal state: classify, fetch, aggregate, publish. Every code path
// from queued deterministically reaches complete or error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soundcrate/internal/classify"
	"soundcrate/internal/contracts"
	"soundcrate/internal/domain/consts"
	"soundcrate/internal/models"
	"soundcrate/internal/resolve"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidInput marks an unsafe or unclassifiable URL, rejected
	// before any job record is written.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound covers both a missing job and an owner mismatch, so
	// callers cannot probe for other users' job ids.
	ErrNotFound = errors.New("job not found")
)

// trackCounter is implemented by providers that can cheaply report a
// collection's member count without resolving full metadata.
type trackCounter interface {
	TrackCount(ctx context.Context, url string) (int, error)
}

// Orchestrator is the top-level job state machine.
type Orchestrator struct {
	store     contracts.JobStore
	blobs     contracts.BlobStore
	fetcher   contracts.AudioFetcher
	resolver  *resolve.Resolver
	providers map[consts.Source]contracts.MetadataProvider
	workDir   string
}

// New wires an orchestrator. providers maps each catalog source to its
// metadata provider; sources absent from the map get no metadata.
func New(
	store contracts.JobStore,
	blobs contracts.BlobStore,
	fetcher contracts.AudioFetcher,
	resolver *resolve.Resolver,
	providers map[consts.Source]contracts.MetadataProvider,
	workDir string,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		blobs:     blobs,
		fetcher:   fetcher,
		resolver:  resolver,
		providers: providers,
		workDir:   workDir,
	}
}

// Submit validates and classifies rawURL, persists the queued record,
// and schedules the drive-to-completion without blocking the caller.
// Rejection happens synchronously with no record written.
func (o *Orchestrator) Submit(ctx context.Context, userID, rawURL string, transliterate bool) (*models.Job, error) {
	if !classify.IsSafe(rawURL) {
		return nil, fmt.Errorf("%w: unsafe URL", ErrInvalidInput)
	}

	c := classify.Classify(rawURL)
	if c.Source == consts.SourceUnknown {
		return nil, fmt.Errorf("%w: unsupported URL", ErrInvalidInput)
	}

	job := &models.Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		SourceURL: c.CanonicalURL,
		Source:    c.Source,
		Kind:      c.Kind,
		Status:    consts.JobQueued,
		Message:   "Queued",
	}

	if c.Kind != consts.KindSingle {
		job.Metadata.TrackCount = o.estimateTrackCount(ctx, job)
	}

	if err := o.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	opts := models.FetchOptions{Transliterate: transliterate}
	go o.run(*job, opts)

	return job, nil
}

// estimateTrackCount takes a best-effort look at a collection's size
// for the optimistic submission hint. Failure only costs the hint.
func (o *Orchestrator) estimateTrackCount(ctx context.Context, job *models.Job) int {
	counter, ok := o.providers[job.Source].(trackCounter)
	if !ok {
		return 1
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	n, err := counter.TrackCount(cctx, job.SourceURL)
	if err != nil || n < 1 {
		log.Debug().Err(err).Str("job", job.ID).Msg("track count prefetch failed")
		return 1
	}
	return n
}

// Job returns a job by id, owner-checked.
func (o *Orchestrator) Job(ctx context.Context, userID, id string) (*models.Job, error) {
	j, err := o.store.Get(ctx, id)
	if errors.Is(err, contracts.ErrJobNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		return nil, ErrNotFound
	}
	return j, nil
}

// Jobs lists a user's jobs.
func (o *Orchestrator) Jobs(ctx context.Context, userID string) ([]*models.Job, error) {
	return o.store.ListByUser(ctx, userID)
}

// Delete removes a job's record and published artifacts, owner-checked.
// An in-flight task is not interrupted; its late writes land as silent
// no-ops. Deleting an already-deleted job reports not found.
func (o *Orchestrator) Delete(ctx context.Context, userID, id string) error {
	if _, err := o.Job(ctx, userID, id); err != nil {
		return err
	}
	if err := o.blobs.Delete(id); err != nil {
		log.Warn().Err(err).Str("job", id).Msg("failed to delete job artifacts")
	}
	return o.store.Delete(ctx, id)
}

// run drives one job to a terminal state. It owns the job's working
// directory and always removes it, logging rather than escalating
// cleanup failures.
func (o *Orchestrator) run(job models.Job, opts models.FetchOptions) {
	ctx := context.Background()
	jobDir := filepath.Join(o.workDir, job.ID)

	defer func() {
		if err := os.RemoveAll(jobDir); err != nil {
			log.Warn().Err(err).Str("job", job.ID).Msg("failed to clean working directory")
		}
	}()

	log.Info().
		Str("job", job.ID).
		Str("source", string(job.Source)).
		Str("kind", string(job.Kind)).
		Msg("starting job")

	var paths []string
	var err error
	if job.Kind == consts.KindSingle {
		paths, err = o.runSingle(ctx, &job, jobDir, opts)
	} else {
		paths, err = o.runAlbum(ctx, &job, jobDir, opts)
	}
	if err != nil {
		o.fail(ctx, job.ID, err)
		return
	}

	if err := o.publish(ctx, &job, paths); err != nil {
		o.fail(ctx, job.ID, err)
		return
	}

	log.Info().Str("job", job.ID).Msg("job complete")
}

// runSingle fetches one track. Metadata is opportunistic for direct
// sources; for the metadata-only catalog it rides along with the
// cross-source resolution.
func (o *Orchestrator) runSingle(ctx context.Context, job *models.Job, jobDir string, opts models.FetchOptions) ([]string, error) {
	sink := o.newStatusSink(ctx, job.ID)

	var outcome models.FetchOutcome
	if job.Source == consts.SourceSpotify {
		var td *models.TrackDescriptor
		td, outcome = o.resolver.FetchTrack(ctx, job.SourceURL, jobDir, opts, sink)
		if td != nil {
			o.recordMetadata(ctx, job, models.JobMetadata{
				Title:      td.Title,
				Artist:     td.Artist,
				Album:      td.Album,
				TrackCount: 1,
			})
		}
	} else {
		o.opportunisticMetadata(ctx, job)
		sink.OnProgress(consts.JobDownloading, 0, "Starting download...")
		outcome = o.fetcher.Fetch(ctx, job.SourceURL, jobDir, opts, sink)
	}

	if !outcome.Success {
		return nil, fmt.Errorf("download failed: %w", outcome.Err)
	}
	return []string{outcome.FilePath}, nil
}

// opportunisticMetadata records whatever metadata the source's provider
// can supply. Failure leaves metadata empty and never aborts the job.
func (o *Orchestrator) opportunisticMetadata(ctx context.Context, job *models.Job) {
	provider, ok := o.providers[job.Source]
	if !ok {
		return
	}
	td, err := provider.TrackInfo(ctx, job.SourceURL)
	if err != nil {
		log.Debug().Err(err).Str("job", job.ID).Msg("opportunistic metadata fetch failed")
		return
	}
	if td == nil {
		return
	}
	o.recordMetadata(ctx, job, models.JobMetadata{
		Title:      td.Title,
		Artist:     td.Artist,
		Album:      td.Album,
		TrackCount: 1,
	})
}

// runAlbum downloads a collection track by track, in catalog order. The
// album descriptor is a hard dependency; individual track failures are
// logged and skipped, but zero successes fails the job.
func (o *Orchestrator) runAlbum(ctx context.Context, job *models.Job, jobDir string, opts models.FetchOptions) ([]string, error) {
	provider, ok := o.providers[job.Source]
	if !ok {
		return nil, fmt.Errorf("no metadata provider for source %s", job.Source)
	}

	album, err := provider.AlbumInfo(ctx, job.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve album: %w", err)
	}

	o.recordMetadata(ctx, job, models.JobMetadata{
		Title:      album.Name,
		Artist:     album.Artist,
		Album:      album.Name,
		TrackCount: album.TrackCount,
	})

	total := len(album.Tracks)
	var paths []string
	for i, td := range album.Tracks {
		pct := float64(len(paths)) / float64(total) * consts.AlbumFetchBudget
		o.updateStatus(ctx, job.ID, consts.JobDownloading, pct,
			fmt.Sprintf("Downloading track %d/%d: %s", i+1, total, td.Title))

		trackDir := filepath.Join(jobDir, fmt.Sprintf("track_%03d", i+1))

		// Per-track progress is not forwarded: job progress stays
		// monotonic by advancing only on completed tracks.
		var outcome models.FetchOutcome
		if td.URL != "" {
			outcome = o.fetcher.Fetch(ctx, td.URL, trackDir, opts, nil)
		} else {
			outcome = o.resolver.FetchResolved(ctx, &td, trackDir, opts, nil)
		}
		if !outcome.Success {
			log.Warn().Err(outcome.Err).
				Str("job", job.ID).
				Str("track", td.Title).
				Msg("album track failed, skipping")
			continue
		}
		paths = append(paths, outcome.FilePath)
	}

	if len(paths) == 0 {
		return nil, errors.New("no tracks downloaded")
	}
	return paths, nil
}

// fail moves the job to error, logging the store write failure if even
// that goes wrong.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) {
	log.Error().Err(cause).Str("job", jobID).Msg("job failed")
	if err := o.store.SetError(ctx, jobID, cause.Error()); err != nil {
		log.Error().Err(err).Str("job", jobID).Msg("failed to record job error")
	}
}

func (o *Orchestrator) recordMetadata(ctx context.Context, job *models.Job, md models.JobMetadata) {
	job.Metadata = md
	if err := o.store.SetMetadata(ctx, job.ID, md); err != nil {
		log.Warn().Err(err).Str("job", job.ID).Msg("failed to record metadata")
	}
}

func (o *Orchestrator) updateStatus(ctx context.Context, jobID string, status consts.JobStatus, pct float64, msg string) {
	err := o.store.UpdateStatus(ctx, models.StatusUpdate{
		JobID:   jobID,
		Status:  status,
		Percent: pct,
		Message: msg,
	})
	if err != nil {
		log.Warn().Err(err).Str("job", jobID).Msg("failed to update job status")
	}
}

// archiveName derives the published archive's filename from resolved
// metadata, falling back to the job id.
func archiveName(job *models.Job) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(job.Metadata.Album))
	if name == "" {
		name = job.ID
	}
	return name + ".zip"
}
