// Package blob implements the durable artifact store behind time-limited
// retrieval URLs.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalStore keeps published artifacts on the local filesystem and
// signs retrieval URLs served by the engine's own file endpoint.
type LocalStore struct {
	baseDir string
	baseURL string
	signer  *Signer
}

// NewLocalStore returns a store rooted at baseDir. baseURL is the public
// prefix of the signed-file endpoint (e.g. "https://host").
func NewLocalStore(baseDir, baseURL string, signer *Signer) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory %s: %w", baseDir, err)
	}
	return &LocalStore{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		signer:  signer,
	}, nil
}

// Signer exposes the token signer for the serving endpoint.
func (s *LocalStore) Signer() *Signer { return s.signer }

// Verify validates a download token, returning the storage path it
// grants.
func (s *LocalStore) Verify(token string) (string, error) {
	return s.signer.Verify(token)
}

// Resolve maps a storage path back to its on-disk location, rejecting
// paths escaping the blob root.
func (s *LocalStore) Resolve(storagePath string) (string, error) {
	clean := filepath.Clean(storagePath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage path %q", storagePath)
	}
	return filepath.Join(s.baseDir, clean), nil
}

// Upload copies localPath into the store under jobID/filename.
func (s *LocalStore) Upload(ctx context.Context, localPath, jobID, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	storagePath := filepath.ToSlash(filepath.Join(jobID, filename))
	dst := filepath.Join(s.baseDir, jobID, filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob job directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload source %s: %w", localPath, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create blob %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to write blob %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to flush blob %s: %w", dst, err)
	}

	log.Debug().Str("job", jobID).Str("path", storagePath).Msg("uploaded artifact")
	return storagePath, nil
}

// SignedURL returns a retrieval URL valid for ttl.
func (s *LocalStore) SignedURL(storagePath string, ttl time.Duration) (string, error) {
	if storagePath == "" {
		return "", fmt.Errorf("empty storage path")
	}
	token := s.signer.Sign(storagePath, time.Now().Add(ttl))
	return s.baseURL + "/files/" + token, nil
}

// Delete removes everything under prefix (typically a job id).
func (s *LocalStore) Delete(prefix string) error {
	target, err := s.Resolve(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to delete blobs under %s: %w", prefix, err)
	}
	return nil
}
