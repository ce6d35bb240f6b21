package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// getJSON performs an authenticated catalog GET, decoding the response
// into out. Rate-limit responses are retried with a server-provided
// retry-after when present, otherwise exponential backoff from the
// configured base, capped at the configured attempt count. A fresh
// egress proxy port is drawn before every attempt. All other failures
// propagate immediately.
func (p *Provider) getJSON(ctx context.Context, reqURL string, out any) error {
	var lastStatus int
	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		tok, err := p.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("catalog authentication failed: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to build catalog request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)

		resp, err := p.clientForAttempt().Do(req)
		if err != nil {
			return fmt.Errorf("catalog request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfter(resp, p.cfg.BackoffBase<<attempt)
			resp.Body.Close()
			lastStatus = resp.StatusCode

			log.Warn().
				Str("url", reqURL).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("catalog rate limited, backing off")

			if err := sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("catalog returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode catalog response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("catalog rate limited after %d attempts (last status %d)", p.cfg.MaxAttempts, lastStatus)
}

// clientForAttempt builds the HTTP client for one attempt, routed
// through a freshly drawn proxy port when a rotator is configured.
func (p *Provider) clientForAttempt() *http.Client {
	c := &http.Client{Timeout: 30 * time.Second, Jar: p.jar}
	if p.cfg.Proxy.Enabled() {
		if u, err := url.Parse(p.cfg.Proxy.Next()); err == nil {
			c.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
	return c
}

// retryAfter honors the server's Retry-After header, falling back to
// the caller-supplied delay when absent or unparseable.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
