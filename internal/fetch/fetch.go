// Package fetch wraps the external audio-extraction tool to pull one
// track's audio from a direct media source URL.
package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"soundcrate/internal/contracts"
	"soundcrate/internal/domain/command"
	"soundcrate/internal/domain/consts"
	"soundcrate/internal/models"
	"soundcrate/internal/proxy"

	"github.com/rs/zerolog/log"
)

// Config holds the fixed extraction-tool parameters. Retry and sleep
// values are passed through to the tool itself; this package does not
// re-implement retries.
type Config struct {
	Binary           string
	Proxy            *proxy.Rotator
	Retries          int
	FragmentRetries  int
	SleepInterval    int
	MaxSleepInterval int
	Translit         contracts.Transliterator
}

// Fetcher executes one extraction-tool subprocess per Fetch call.
type Fetcher struct {
	cfg Config
}

// New returns a fetcher, filling conservative defaults for unset
// retry/sleep parameters.
func New(cfg Config) *Fetcher {
	if cfg.Binary == "" {
		cfg.Binary = command.YTDLP
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
	}
	if cfg.FragmentRetries == 0 {
		cfg.FragmentRetries = 5
	}
	if cfg.SleepInterval == 0 {
		cfg.SleepInterval = 1
	}
	if cfg.MaxSleepInterval == 0 {
		cfg.MaxSleepInterval = 5
	}
	return &Fetcher{cfg: cfg}
}

// Fetch pulls audio for url into outputDir, pushing progress into sink.
// The subprocess exit code is authoritative for success; on success the
// output directory is re-scanned for the newest matching file, since
// metadata embedding can alter the tool-reported name.
func (f *Fetcher) Fetch(ctx context.Context, url, outputDir string, opts models.FetchOptions, sink contracts.ProgressSink) models.FetchOutcome {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return failure(fmt.Errorf("failed to create output directory: %w", err))
	}

	cmd := f.buildCommand(ctx, url, outputDir)
	log.Debug().Str("url", url).Str("cmd", cmd.String()).Msg("starting audio fetch")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failure(fmt.Errorf("stdout pipe error: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return failure(fmt.Errorf("stderr pipe error: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return failure(fmt.Errorf("extraction tool failed to start: %w", err))
	}

	lineChan := make(chan string, 100)
	go func() {
		defer close(lineChan)
		scanner := bufio.NewScanner(io.MultiReader(stdout, stderr))
		for scanner.Scan() {
			select {
			case lineChan <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	lastError := scanOutput(lineChan, url, sink)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return failure(ctx.Err())
		}
		if lastError != "" {
			return failure(fmt.Errorf("extraction tool failed: %s", lastError))
		}
		return failure(fmt.Errorf("extraction tool failed: %w", err))
	}

	path, err := newestOutput(outputDir, consts.AudioExt)
	if err != nil {
		return failure(err)
	}
	if err := verifyOutput(path); err != nil {
		return failure(err)
	}

	cleanupIntermediates(outputDir, path)

	if opts.Transliterate && f.cfg.Translit != nil {
		path = f.transliterateName(ctx, path)
	}

	log.Info().Str("url", url).Str("file", path).Msg("audio fetch complete")
	return models.FetchOutcome{Success: true, FilePath: path}
}

// scanOutput drains the tool's merged output, forwarding progress to
// sink and returning the last ERROR line seen, if any.
func scanOutput(lineChan <-chan string, url string, sink contracts.ProgressSink) (lastError string) {
	lastPct := -1.0
	converting := false

	for line := range lineChan {
		if line == "" {
			continue
		}
		log.Trace().Str("url", url).Str("line", line).Msg("extraction tool output")

		if strings.HasPrefix(line, "ERROR:") {
			lastError = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
			continue
		}

		if isConversionMarker(line) {
			if !converting && sink != nil {
				sink.OnProgress(consts.JobProcessing, consts.ProgressConverting, "Converting audio...")
			}
			converting = true
			continue
		}

		pct, ok := parseProgressLine(line)
		if !ok || converting {
			continue
		}
		// Only changed values propagate; duplicate lines are common.
		if pct != lastPct {
			lastPct = pct
			if sink != nil {
				sink.OnProgress(consts.JobDownloading, pct, fmt.Sprintf("Downloading... %.1f%%", pct))
			}
		}
	}
	return lastError
}

func failure(err error) models.FetchOutcome {
	return models.FetchOutcome{Err: err}
}

// verifyOutput checks the discovered file exists and is not empty.
func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output file verification failed: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output file is empty: %s", path)
	}
	return nil
}

var errNoOutput = errors.New("no output file found despite successful exit")

// Unwrap-friendly sentinel check for tests.
func IsNoOutput(err error) bool { return errors.Is(err, errNoOutput) }
