package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"soundcrate/internal/domain/consts"

	"github.com/rs/zerolog/log"
)

var progressRe = regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%`)

// parseProgressLine extracts the percentage-complete marker from one
// line of tool output.
func parseProgressLine(line string) (float64, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}

// isConversionMarker reports whether line signals entry into the
// post-download conversion phase.
func isConversionMarker(line string) bool {
	return strings.Contains(line, "[ExtractAudio]") ||
		strings.Contains(line, "[Merger]") ||
		strings.Contains(line, "[EmbedThumbnail]") ||
		strings.Contains(line, "[Metadata]")
}

// newestOutput returns the most recently modified file in dir with the
// expected extension.
func newestOutput(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan output directory: %w", err)
	}

	var (
		newest     string
		newestTime int64 = -1
	)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); t > newestTime {
			newestTime = t
			newest = filepath.Join(dir, e.Name())
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w (dir %s, ext %s)", errNoOutput, dir, ext)
	}
	return newest, nil
}

// cleanupIntermediates removes thumbnails, partial downloads and other
// working files the tool may leave beside the result.
func cleanupIntermediates(dir, keep string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to scan for intermediate files")
		return
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if p == keep {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, junk := range consts.IntermediateExts {
			if ext != junk {
				continue
			}
			if err := os.Remove(p); err != nil {
				log.Warn().Err(err).Str("file", p).Msg("failed to remove intermediate file")
			}
			break
		}
	}
}

var invalidFilenameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// sanitizeFilename strips characters that are invalid in filenames.
func sanitizeFilename(name string) string {
	return strings.TrimSpace(invalidFilenameChars.Replace(name))
}

// transliterateName renames the output file in place when its name
// carries non-Latin script and the transliteration capability succeeds;
// failures keep the original name.
func (f *Fetcher) transliterateName(ctx context.Context, path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if !f.cfg.Translit.NeedsTransliteration(stem) {
		return path
	}

	latin, err := f.cfg.Translit.Transliterate(ctx, stem)
	if err != nil {
		log.Warn().Err(err).Str("file", base).Msg("transliteration failed, keeping original name")
		return path
	}

	renamed := filepath.Join(filepath.Dir(path), sanitizeFilename(latin)+ext)
	if renamed == path {
		return path
	}
	if err := os.Rename(path, renamed); err != nil {
		log.Warn().Err(err).Str("file", base).Msg("failed to rename transliterated file")
		return path
	}
	return renamed
}
