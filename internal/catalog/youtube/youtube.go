// Package youtube resolves metadata for directly fetchable sources by
// asking the extraction tool for its JSON view of a URL. It covers the
// primary video source plus the secondary audio sources the tool
// already knows how to read, so one provider serves every direct
// source's playlist and track lookups.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"soundcrate/internal/domain/command"
	"soundcrate/internal/models"

	"github.com/rs/zerolog/log"
)

// Provider shells out to the extraction tool for metadata-only reads.
type Provider struct {
	binary string
}

// New returns a provider using binary, defaulting to the tool on PATH.
func New(binary string) *Provider {
	if binary == "" {
		binary = command.YTDLP
	}
	return &Provider{binary: binary}
}

type toolTrack struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	WebpageURL string  `json:"webpage_url"`
	UploadDate string  `json:"upload_date"`
}

type toolPlaylist struct {
	Title    string      `json:"title"`
	Uploader string      `json:"uploader"`
	Entries  []toolTrack `json:"entries"`
}

// TrackInfo asks the tool for a single item's metadata without
// downloading anything.
func (p *Provider) TrackInfo(ctx context.Context, url string) (*models.TrackDescriptor, error) {
	out, err := p.dumpJSON(ctx, url, false)
	if err != nil {
		return nil, err
	}

	var t toolTrack
	if err := json.Unmarshal(out, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tool metadata: %w", err)
	}
	td := descriptorFrom(t)
	return &td, nil
}

// AlbumInfo enumerates a playlist or set through a flat listing, which
// skips per-entry page fetches and so stays cheap for large playlists.
func (p *Provider) AlbumInfo(ctx context.Context, url string) (*models.AlbumDescriptor, error) {
	out, err := p.dumpJSON(ctx, url, true)
	if err != nil {
		return nil, err
	}

	var pl toolPlaylist
	if err := json.Unmarshal(out, &pl); err != nil {
		return nil, fmt.Errorf("failed to parse tool playlist metadata: %w", err)
	}
	if len(pl.Entries) == 0 {
		return nil, fmt.Errorf("no entries found for %s", url)
	}

	album := &models.AlbumDescriptor{
		Name:       pl.Title,
		Artist:     pl.Uploader,
		TrackCount: len(pl.Entries),
		Tracks:     make([]models.TrackDescriptor, 0, len(pl.Entries)),
	}
	for _, e := range pl.Entries {
		album.Tracks = append(album.Tracks, descriptorFrom(e))
	}
	return album, nil
}

// TrackCount reports a playlist's entry count for the submission-time
// hint.
func (p *Provider) TrackCount(ctx context.Context, url string) (int, error) {
	album, err := p.AlbumInfo(ctx, url)
	if err != nil {
		return 0, err
	}
	return album.TrackCount, nil
}

func (p *Provider) dumpJSON(ctx context.Context, url string, flat bool) ([]byte, error) {
	args := []string{command.OutputJSON, command.SkipDownload, command.NoWarnings}
	if flat {
		args = append(args, command.FlatPlaylist)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, p.binary, args...)
	log.Debug().Str("url", url).Str("cmd", cmd.String()).Msg("fetching tool metadata")

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("metadata command failed: %w", err)
	}
	return out, nil
}

// descriptorFrom maps the tool's entry shape onto a descriptor. The
// artist tag wins over the uploader name when the tool extracted one.
func descriptorFrom(t toolTrack) models.TrackDescriptor {
	artist := t.Artist
	if artist == "" {
		artist = t.Uploader
	}
	td := models.TrackDescriptor{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     artist,
		Album:      t.Album,
		DurationMS: int64(t.Duration * 1000),
		ArtworkURL: t.Thumbnail,
		URL:        t.WebpageURL,
	}
	if t.UploadDate != "" {
		if d, err := time.Parse("20060102", t.UploadDate); err == nil {
			td.ReleaseDate = d
		}
	}
	return td
}
