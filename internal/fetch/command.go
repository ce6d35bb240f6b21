package fetch

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"soundcrate/internal/domain/command"
	"soundcrate/internal/domain/consts"
)

// buildCommand assembles the extraction-tool invocation: best audio-only
// stream, mp3 at maximum quality, embedded metadata and artwork, a
// title-derived filename template, and the anti-throttling posture
// (fresh proxy port, browser-like identity, conservative retry flags).
func (f *Fetcher) buildCommand(ctx context.Context, url, outputDir string) *exec.Cmd {
	args := f.buildArgs(url, outputDir)
	return exec.CommandContext(ctx, f.cfg.Binary, args...)
}

func (f *Fetcher) buildArgs(url, outputDir string) []string {
	args := make([]string, 0, 32)

	args = append(args,
		command.Newline,
		command.NoWarnings,
		command.Progress,
		command.Format, command.BestAudio,
		command.ExtractAudio,
		command.AudioFormat, "mp3",
		command.AudioQuality, "0",
		command.EmbedThumbnail,
		command.AddMetadata,
		command.NoPlaylist,
		command.Output, filepath.Join(outputDir, command.FilenameSyntax),
	)

	// Retry posture lives in the tool, not here.
	args = append(args,
		command.Retries, strconv.Itoa(f.cfg.Retries),
		command.FragmentRetries, strconv.Itoa(f.cfg.FragmentRetries),
		command.SleepInterval, strconv.Itoa(f.cfg.SleepInterval),
		command.MaxSleepInterval, strconv.Itoa(f.cfg.MaxSleepInterval),
	)

	// Present a realistic browser identity.
	args = append(args,
		command.UserAgent, consts.BrowserUserAgent,
		command.AddHeader, "Accept-Language: en-US,en;q=0.9",
	)

	// A fresh egress port per invocation; retries of the same logical
	// request draw again rather than reusing a flagged port.
	if f.cfg.Proxy.Enabled() {
		args = append(args, command.Proxy, f.cfg.Proxy.Next())
	}

	// Target URL goes last.
	return append(args, strings.TrimSpace(url))
}
