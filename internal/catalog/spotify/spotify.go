// Package spotify resolves track and album metadata from the
// metadata-only streaming catalog. The catalog has no directly
// fetchable audio; callers pair its descriptors with a cross-source
// search to obtain the actual media.
package spotify

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"time"

	"soundcrate/internal/models"
	"soundcrate/internal/proxy"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

// Config holds catalog credentials and the retry posture. Attempt count
// and backoff base are configurable per provider since observed
// rate-limit behavior differs between catalogs.
type Config struct {
	ClientID     string
	ClientSecret string
	MaxAttempts  int
	BackoffBase  time.Duration
	Proxy        *proxy.Rotator
}

// Provider implements contracts.MetadataProvider for the catalog.
type Provider struct {
	cfg    Config
	tokens *tokenManager
	jar    *cookiejar.Jar

	apiBase   string
	embedBase string
}

// New returns a catalog provider, filling defaults for unset retry
// parameters.
func New(cfg Config) (*Provider, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Provider{
		cfg:       cfg,
		tokens:    newTokenManager(cfg.ClientID, cfg.ClientSecret, "https://accounts.spotify.com/api/token"),
		jar:       jar,
		apiBase:   "https://api.spotify.com/v1",
		embedBase: "https://open.spotify.com",
	}, nil
}

// Close releases the provider's background resources.
func (p *Provider) Close() {
	p.tokens.Close()
}

var (
	trackIDRe = regexp.MustCompile(`track[/:]([A-Za-z0-9]+)`)
	albumIDRe = regexp.MustCompile(`album[/:]([A-Za-z0-9]+)`)
)

func extractID(re *regexp.Regexp, rawURL string) (string, bool) {
	m := re.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type trackResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name        string `json:"name"`
		ReleaseDate string `json:"release_date"`
		Images      []struct {
			URL   string `json:"url"`
			Width int    `json:"width"`
		} `json:"images"`
	} `json:"album"`
}

// TrackInfo resolves one track URL or URI into a descriptor.
func (p *Provider) TrackInfo(ctx context.Context, rawURL string) (*models.TrackDescriptor, error) {
	id, ok := extractID(trackIDRe, rawURL)
	if !ok {
		return nil, fmt.Errorf("not a catalog track URL: %s", rawURL)
	}

	var tr trackResponse
	if err := p.getJSON(ctx, p.apiBase+"/tracks/"+id, &tr); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tr.Artists))
	for _, a := range tr.Artists {
		names = append(names, a.Name)
	}

	desc := &models.TrackDescriptor{
		ID:         tr.ID,
		Title:      tr.Name,
		Artist:     strings.Join(names, ", "),
		Album:      tr.Album.Name,
		DurationMS: tr.DurationMS,
		ArtworkURL: artworkURL(tr),
	}
	if desc.ID == "" {
		desc.ID = id
	}
	if tr.Album.ReleaseDate != "" {
		if t, err := dateparse.ParseAny(tr.Album.ReleaseDate); err == nil {
			desc.ReleaseDate = t
		} else {
			log.Debug().Str("release_date", tr.Album.ReleaseDate).Msg("unparseable release date")
		}
	}
	return desc, nil
}

// artworkURL prefers the 300px rendition, falling back to whatever the
// catalog lists first.
func artworkURL(tr trackResponse) string {
	for _, img := range tr.Album.Images {
		if img.Width == 300 {
			return img.URL
		}
	}
	if len(tr.Album.Images) > 0 {
		return tr.Album.Images[0].URL
	}
	return ""
}

// AlbumInfo resolves an album URL into the descriptors of its member
// tracks. Member IDs come from the unauthenticated embed page; each is
// then resolved through the single-track path, and individual track
// failures are logged and skipped rather than aborting the album.
func (p *Provider) AlbumInfo(ctx context.Context, rawURL string) (*models.AlbumDescriptor, error) {
	id, ok := extractID(albumIDRe, rawURL)
	if !ok {
		return nil, fmt.Errorf("not a catalog album URL: %s", rawURL)
	}

	ids, err := p.embedTrackIDs(id)
	if err != nil {
		return nil, err
	}

	album := &models.AlbumDescriptor{TrackCount: len(ids)}
	for _, tid := range ids {
		td, err := p.TrackInfo(ctx, "https://open.spotify.com/track/"+tid)
		if err != nil {
			log.Warn().Err(err).Str("track", tid).Msg("skipping album track that failed to resolve")
			continue
		}
		if album.Name == "" {
			album.Name = td.Album
			album.Artist = td.Artist
		}
		album.Tracks = append(album.Tracks, *td)
	}

	if len(album.Tracks) == 0 {
		return nil, fmt.Errorf("no tracks resolved for album %s", id)
	}
	return album, nil
}

// TrackCount reports an album's member count from the embed page alone,
// without resolving per-track metadata. Used for the optimistic track
// count hint at submission time.
func (p *Provider) TrackCount(ctx context.Context, rawURL string) (int, error) {
	id, ok := extractID(albumIDRe, rawURL)
	if !ok {
		return 0, fmt.Errorf("not a catalog album URL: %s", rawURL)
	}
	ids, err := p.embedTrackIDs(id)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
