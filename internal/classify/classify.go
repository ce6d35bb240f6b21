// Package classify parses raw media URLs into a catalog source, media
// kind and canonical form, and rejects unsafe inputs.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"soundcrate/internal/domain/consts"
)

// Classification is the result of matching a raw URL against the source
// pattern table.
type Classification struct {
	Source       consts.Source
	Kind         consts.MediaKind
	CanonicalURL string
	ID           string
}

// Unknown reports whether the input matched no known source.
func (c Classification) Unknown() bool {
	return c.Source == consts.SourceUnknown
}

type sourcePattern struct {
	source consts.Source
	kind   consts.MediaKind
	re     *regexp.Regexp
	id     *regexp.Regexp
}

// The table is ordered: first match wins. Single-item patterns precede
// collection patterns for the same source so that a video link carrying
// playlist context classifies as a single item.
var patterns = []sourcePattern{
	{consts.SourceYouTube, consts.KindSingle,
		regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtube\.com/watch\?.*v=[\w-]+`),
		regexp.MustCompile(`[?&]v=([\w-]+)`)},
	{consts.SourceYouTube, consts.KindSingle,
		regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtu\.be/[\w-]+`),
		regexp.MustCompile(`youtu\.be/([\w-]+)`)},
	{consts.SourceYouTube, consts.KindSingle,
		regexp.MustCompile(`(?i)^(?:https?://)?music\.youtube\.com/watch\?.*v=[\w-]+`),
		regexp.MustCompile(`[?&]v=([\w-]+)`)},
	{consts.SourceYouTube, consts.KindPlaylist,
		regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtube\.com/playlist\?.*list=[\w-]+`),
		regexp.MustCompile(`[?&]list=([\w-]+)`)},

	{consts.SourceSpotify, consts.KindSingle,
		regexp.MustCompile(`(?i)^(?:https?://)?open\.spotify\.com/track/\w+`),
		regexp.MustCompile(`track[:/](\w+)`)},
	{consts.SourceSpotify, consts.KindAlbum,
		regexp.MustCompile(`(?i)^(?:https?://)?open\.spotify\.com/album/\w+`),
		regexp.MustCompile(`album[:/](\w+)`)},
	{consts.SourceSpotify, consts.KindPlaylist,
		regexp.MustCompile(`(?i)^(?:https?://)?open\.spotify\.com/playlist/\w+`),
		regexp.MustCompile(`playlist[:/](\w+)`)},
	{consts.SourceSpotify, consts.KindSingle,
		regexp.MustCompile(`(?i)^spotify:track:\w+`),
		regexp.MustCompile(`track[:/](\w+)`)},
	{consts.SourceSpotify, consts.KindAlbum,
		regexp.MustCompile(`(?i)^spotify:album:\w+`),
		regexp.MustCompile(`album[:/](\w+)`)},
	{consts.SourceSpotify, consts.KindPlaylist,
		regexp.MustCompile(`(?i)^spotify:playlist:\w+`),
		regexp.MustCompile(`playlist[:/](\w+)`)},

	{consts.SourceSoundCloud, consts.KindPlaylist,
		regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?soundcloud\.com/[\w-]+/sets/[\w-]+`),
		nil},
	{consts.SourceSoundCloud, consts.KindSingle,
		regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?soundcloud\.com/[\w-]+/[\w-]+`),
		nil},

	{consts.SourceBandcamp, consts.KindSingle,
		regexp.MustCompile(`(?i)^(?:https?://)?[\w-]+\.bandcamp\.com/track/[\w-]+`),
		regexp.MustCompile(`/track/([\w-]+)`)},
	{consts.SourceBandcamp, consts.KindAlbum,
		regexp.MustCompile(`(?i)^(?:https?://)?[\w-]+\.bandcamp\.com/album/[\w-]+`),
		regexp.MustCompile(`/album/([\w-]+)`)},
}

// Classify matches raw against the ordered source pattern table. An
// unmatched input yields Source == consts.SourceUnknown, which is a
// valid, non-error outcome.
func Classify(raw string) Classification {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Classification{Source: consts.SourceUnknown}
	}

	for _, p := range patterns {
		if !p.re.MatchString(raw) {
			continue
		}

		c := Classification{
			Source:       p.source,
			Kind:         p.kind,
			CanonicalURL: canonicalize(raw, p.source, p.kind),
		}
		if p.id != nil {
			if m := p.id.FindStringSubmatch(raw); m != nil {
				c.ID = m[1]
			}
		} else {
			// SoundCloud uses the full URL as its identifier.
			c.ID = c.CanonicalURL
		}
		return c
	}

	return Classification{Source: consts.SourceUnknown, CanonicalURL: raw}
}

// canonicalize strips playlist-context parameters from single-item URLs
// on the primary video source, so that a video embedded in a playlist
// link downloads as a single item.
func canonicalize(raw string, source consts.Source, kind consts.MediaKind) string {
	if source != consts.SourceYouTube || kind != consts.KindSingle {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !strings.Contains(u.Host, "youtube.com") {
		return raw
	}

	v := u.Query().Get("v")
	if v == "" {
		return raw
	}

	q := url.Values{}
	q.Set("v", v)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}
