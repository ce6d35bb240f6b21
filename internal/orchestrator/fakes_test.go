package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"soundcrate/internal/contracts"
	"soundcrate/internal/models"
)

// memStore is an in-memory JobStore recording every status update.
type memStore struct {
	mu      sync.Mutex
	jobs    map[string]*models.Job
	updates []models.StatusUpdate
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*models.Job)}
}

func (m *memStore) Create(_ context.Context, j *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, contracts.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Job
	for _, j := range m.jobs {
		if j.UserID == userID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, u models.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, u)
	j, ok := m.jobs[u.JobID]
	if !ok {
		return nil
	}
	j.Status = u.Status
	j.Progress = u.Percent
	j.Message = u.Message
	return nil
}

func (m *memStore) SetMetadata(_ context.Context, id string, md models.JobMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Metadata = md
	}
	return nil
}

func (m *memStore) SetResult(_ context.Context, id string, files []models.JobFile, resultURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil
	}
	j.Files = files
	j.ResultURL = resultURL
	j.ExpiresAt = expiresAt
	j.Status = "complete"
	j.Progress = 100
	return nil
}

func (m *memStore) SetError(_ context.Context, id, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = "error"
		j.Error = msg
		j.Message = msg
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *memStore) history() []models.StatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.StatusUpdate(nil), m.updates...)
}

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu      sync.Mutex
	uploads map[string]string
	deleted []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{uploads: make(map[string]string)}
}

func (b *memBlobs) Upload(_ context.Context, localPath, jobID, filename string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sp := jobID + "/" + filename
	b.uploads[sp] = localPath
	return sp, nil
}

func (b *memBlobs) SignedURL(storagePath string, _ time.Duration) (string, error) {
	return "https://dl.example/files/" + storagePath, nil
}

func (b *memBlobs) Delete(prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, prefix)
	return nil
}

// scriptedFetcher writes a fake audio file per call, failing for URLs
// listed in failFor.
type scriptedFetcher struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]bool
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{failFor: make(map[string]bool)}
}

func (f *scriptedFetcher) Fetch(_ context.Context, url, outputDir string, _ models.FetchOptions, sink contracts.ProgressSink) models.FetchOutcome {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	n := len(f.calls)
	fail := f.failFor[url]
	f.mu.Unlock()

	if fail {
		return models.FetchOutcome{Err: errors.New("extraction tool failed: unavailable")}
	}

	if sink != nil {
		sink.OnProgress("downloading", 50, "Downloading... 50.0%")
		sink.OnProgress("downloading", 100, "Downloading... 100.0%")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return models.FetchOutcome{Err: err}
	}
	path := filepath.Join(outputDir, fmt.Sprintf("track%d.mp3", n))
	if err := os.WriteFile(path, []byte("audio-bytes"), 0o644); err != nil {
		return models.FetchOutcome{Err: err}
	}
	return models.FetchOutcome{Success: true, FilePath: path}
}

// fakeProvider serves canned descriptors.
type fakeProvider struct {
	track    *models.TrackDescriptor
	trackErr error
	album    *models.AlbumDescriptor
	albumErr error
	count    int
	countErr error
}

func (p *fakeProvider) TrackInfo(_ context.Context, _ string) (*models.TrackDescriptor, error) {
	return p.track, p.trackErr
}

func (p *fakeProvider) AlbumInfo(_ context.Context, _ string) (*models.AlbumDescriptor, error) {
	return p.album, p.albumErr
}

func (p *fakeProvider) TrackCount(_ context.Context, _ string) (int, error) {
	return p.count, p.countErr
}
