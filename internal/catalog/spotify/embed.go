package spotify

import (
	"fmt"
	"regexp"
	"time"

	"soundcrate/internal/domain/consts"

	"github.com/gocolly/colly"
	"github.com/rs/zerolog/log"
)

var trackURIRe = regexp.MustCompile(`spotify:track:([A-Za-z0-9]+)`)

// embedTrackIDs discovers an album's member track IDs through the
// public embed page. Unlike the authenticated per-collection endpoint,
// the embed lookup is not rate limited per session, so resolving large
// albums does not burn through the token's request budget.
func (p *Provider) embedTrackIDs(albumID string) ([]string, error) {
	collector := p.newCollector()

	var ids []string
	seen := make(map[string]struct{})
	collector.OnResponse(func(r *colly.Response) {
		for _, m := range trackURIRe.FindAllStringSubmatch(string(r.Body), -1) {
			if _, ok := seen[m[1]]; ok {
				continue
			}
			seen[m[1]] = struct{}{}
			ids = append(ids, m[1])
		}
	})

	embedURL := fmt.Sprintf("%s/embed/album/%s", p.embedBase, albumID)
	if err := collector.Visit(embedURL); err != nil {
		return nil, fmt.Errorf("failed to fetch embed page: %w", err)
	}
	collector.Wait()

	if len(ids) == 0 {
		return nil, fmt.Errorf("no tracks found on embed page for album %s", albumID)
	}

	log.Debug().Str("album", albumID).Int("tracks", len(ids)).Msg("resolved album tracks from embed page")
	return ids, nil
}

// newCollector builds a collector presenting the browser identity, with
// the provider's shared cookie jar and a freshly drawn proxy port.
func (p *Provider) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(consts.BrowserUserAgent),
	)
	c.SetRequestTimeout(30 * time.Second)
	c.SetCookieJar(p.jar)
	if p.cfg.Proxy.Enabled() {
		if err := c.SetProxy(p.cfg.Proxy.Next()); err != nil {
			log.Warn().Err(err).Msg("failed to set embed collector proxy")
		}
	}
	return c
}
