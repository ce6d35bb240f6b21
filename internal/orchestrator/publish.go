package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"soundcrate/internal/archive"
	"soundcrate/internal/domain/consts"
	"soundcrate/internal/models"
)

// publish turns the fetched files into one durable artifact: multiple
// files are archived first, the single result is uploaded and a signed
// retrieval URL issued. Any failure here is fatal to the job; there is
// no partial-success state once this phase starts.
func (o *Orchestrator) publish(ctx context.Context, job *models.Job, paths []string) error {
	o.updateStatus(ctx, job.ID, consts.JobProcessing, consts.ProgressConverting, "Preparing files...")

	artifact := paths[0]
	if len(paths) > 1 {
		o.updateStatus(ctx, job.ID, consts.JobProcessing, consts.ProgressConverting, "Archiving files...")

		inputs := make([]archive.Input, 0, len(paths))
		for _, p := range paths {
			inputs = append(inputs, archive.Input{
				LocalPath:     p,
				NameInArchive: filepath.Base(p),
			})
		}

		dest := filepath.Join(o.workDir, job.ID, archiveName(job))
		built, err := archive.Build(inputs, dest)
		if err != nil {
			return fmt.Errorf("failed to build archive: %w", err)
		}
		artifact = built
	}

	info, err := os.Stat(artifact)
	if err != nil {
		return fmt.Errorf("failed to stat artifact: %w", err)
	}

	o.updateStatus(ctx, job.ID, consts.JobProcessing, consts.ProgressConverting, "Uploading...")

	filename := filepath.Base(artifact)
	storagePath, err := o.blobs.Upload(ctx, artifact, job.ID, filename)
	if err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}

	resultURL, err := o.blobs.SignedURL(storagePath, consts.ResultTTL)
	if err != nil {
		return fmt.Errorf("failed to sign result URL: %w", err)
	}

	files := []models.JobFile{{
		Name:        filename,
		StoragePath: storagePath,
		Size:        info.Size(),
	}}
	expiresAt := time.Now().Add(consts.ResultTTL)

	if err := o.store.SetResult(ctx, job.ID, files, resultURL, expiresAt); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}
