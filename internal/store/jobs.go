package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"soundcrate/internal/contracts"
	"soundcrate/internal/domain/consts"
	"soundcrate/internal/models"

	"github.com/Masterminds/squirrel"
)

// JobStore holds a pointer to the sql.DB.
type JobStore struct {
	DB *sql.DB
}

// GetJobStore returns a job store instance with injected database.
func GetJobStore(db *sql.DB) *JobStore {
	return &JobStore{
		DB: db,
	}
}

var jobColumns = []string{
	consts.QJobID,
	consts.QJobUserID,
	consts.QJobSourceURL,
	consts.QJobSource,
	consts.QJobKind,
	consts.QJobStatus,
	consts.QJobProgress,
	consts.QJobMessage,
	consts.QJobMetaTitle,
	consts.QJobMetaArtist,
	consts.QJobMetaAlbum,
	consts.QJobMetaTracks,
	consts.QJobFiles,
	consts.QJobResultURL,
	consts.QJobExpiresAt,
	consts.QJobError,
	consts.QJobCreatedAt,
	consts.QJobUpdatedAt,
}

// Create inserts a new job record, stamping creation/update times.
func (js *JobStore) Create(ctx context.Context, j *models.Job) error {
	if j.ID == "" {
		return errors.New("job must have an id")
	}

	filesJSON, err := json.Marshal(j.Files)
	if err != nil {
		return fmt.Errorf("failed to marshal files for job %q: %w", j.ID, err)
	}

	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now

	var expiresAt any
	if !j.ExpiresAt.IsZero() {
		expiresAt = j.ExpiresAt
	}

	query := squirrel.
		Insert(consts.DBJobs).
		Columns(jobColumns...).
		Values(
			j.ID,
			j.UserID,
			j.SourceURL,
			j.Source,
			j.Kind,
			j.Status,
			j.Progress,
			j.Message,
			j.Metadata.Title,
			j.Metadata.Artist,
			j.Metadata.Album,
			j.Metadata.TrackCount,
			string(filesJSON),
			j.ResultURL,
			expiresAt,
			j.Error,
			j.CreatedAt,
			j.UpdatedAt,
		).
		RunWith(js.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to insert job %q: %w", j.ID, err)
	}
	return nil
}

// Get retrieves a job by id.
func (js *JobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	query := squirrel.
		Select(jobColumns...).
		From(consts.DBJobs).
		Where(squirrel.Eq{consts.QJobID: id}).
		RunWith(js.DB)

	j, err := scanJob(query.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %q: %w", id, err)
	}
	return j, nil
}

// ListByUser returns a user's jobs, newest first.
func (js *JobStore) ListByUser(ctx context.Context, userID string) ([]*models.Job, error) {
	query := squirrel.
		Select(jobColumns...).
		From(consts.DBJobs).
		Where(squirrel.Eq{consts.QJobUserID: userID}).
		OrderBy(consts.QJobCreatedAt + " DESC").
		RunWith(js.DB)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for user %q: %w", userID, err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// UpdateStatus applies one status/progress/message mutation. Updating a
// missing id is a silent no-op: an in-flight task may race a delete.
func (js *JobStore) UpdateStatus(ctx context.Context, u models.StatusUpdate) error {
	query := squirrel.
		Update(consts.DBJobs).
		Set(consts.QJobStatus, u.Status).
		Set(consts.QJobProgress, u.Percent).
		Set(consts.QJobMessage, u.Message).
		Set(consts.QJobUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QJobID: u.JobID}).
		RunWith(js.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to update status for job %q: %w", u.JobID, err)
	}
	return nil
}

// SetMetadata records resolved catalog metadata. No-op on a missing id.
func (js *JobStore) SetMetadata(ctx context.Context, id string, md models.JobMetadata) error {
	query := squirrel.
		Update(consts.DBJobs).
		Set(consts.QJobMetaTitle, md.Title).
		Set(consts.QJobMetaArtist, md.Artist).
		Set(consts.QJobMetaAlbum, md.Album).
		Set(consts.QJobMetaTracks, md.TrackCount).
		Set(consts.QJobUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QJobID: id}).
		RunWith(js.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to set metadata for job %q: %w", id, err)
	}
	return nil
}

// SetResult atomically records the published artifacts and moves the
// job to complete at progress 100.
func (js *JobStore) SetResult(ctx context.Context, id string, files []models.JobFile, resultURL string, expiresAt time.Time) error {
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to marshal files for job %q: %w", id, err)
	}

	query := squirrel.
		Update(consts.DBJobs).
		Set(consts.QJobFiles, string(filesJSON)).
		Set(consts.QJobResultURL, resultURL).
		Set(consts.QJobExpiresAt, expiresAt).
		Set(consts.QJobStatus, consts.JobComplete).
		Set(consts.QJobProgress, consts.ProgressComplete).
		Set(consts.QJobMessage, "Download complete").
		Set(consts.QJobUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QJobID: id}).
		RunWith(js.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to set result for job %q: %w", id, err)
	}
	return nil
}

// SetError moves the job to its error terminal state.
func (js *JobStore) SetError(ctx context.Context, id, msg string) error {
	query := squirrel.
		Update(consts.DBJobs).
		Set(consts.QJobStatus, consts.JobError).
		Set(consts.QJobError, msg).
		Set(consts.QJobMessage, msg).
		Set(consts.QJobUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QJobID: id}).
		RunWith(js.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to set error for job %q: %w", id, err)
	}
	return nil
}

// Delete removes the record. Deleting a missing id is a no-op.
func (js *JobStore) Delete(ctx context.Context, id string) error {
	query := squirrel.
		Delete(consts.DBJobs).
		Where(squirrel.Eq{consts.QJobID: id}).
		RunWith(js.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to delete job %q: %w", id, err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		j         models.Job
		filesJSON string
		expiresAt sql.NullTime
	)

	err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.SourceURL,
		&j.Source,
		&j.Kind,
		&j.Status,
		&j.Progress,
		&j.Message,
		&j.Metadata.Title,
		&j.Metadata.Artist,
		&j.Metadata.Album,
		&j.Metadata.TrackCount,
		&filesJSON,
		&j.ResultURL,
		&expiresAt,
		&j.Error,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		j.ExpiresAt = expiresAt.Time
	}
	if filesJSON != "" && filesJSON != "null" {
		if err := json.Unmarshal([]byte(filesJSON), &j.Files); err != nil {
			return nil, fmt.Errorf("failed to unmarshal files for job %q: %w", j.ID, err)
		}
	}
	return &j, nil
}
