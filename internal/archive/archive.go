// Package archive bundles multiple output files into one compressed zip.
package archive

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// Input names one file to include in the archive.
type Input struct {
	LocalPath     string
	NameInArchive string
}

// Build writes inputs into a zip at destination using maximum
// compression. Inputs missing from disk at build time are skipped with
// a warning; only a fatal write error to the destination fails the
// build. The archive is fully flushed and closed before returning.
func Build(inputs []Input, destination string) (string, error) {
	out, err := os.Create(destination)
	if err != nil {
		return "", fmt.Errorf("failed to create archive %s: %w", destination, err)
	}

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, in := range inputs {
		if err := addFile(zw, in); err != nil {
			zw.Close()
			out.Close()
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to finalize archive %s: %w", destination, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to flush archive %s: %w", destination, err)
	}
	return destination, nil
}

func addFile(zw *zip.Writer, in Input) error {
	f, err := os.Open(in.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", in.LocalPath).Msg("skipping missing archive input")
			return nil
		}
		return fmt.Errorf("failed to open archive input %s: %w", in.LocalPath, err)
	}
	defer f.Close()

	w, err := zw.Create(in.NameInArchive)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", in.NameInArchive, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s into archive: %w", in.NameInArchive, err)
	}
	return nil
}
