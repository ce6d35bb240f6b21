// Package translit renames non-Latin text to a Latin rendering via an
// external transliteration capability.
package translit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
)

// Client calls the external transliteration endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient returns a transliteration client. An empty endpoint yields
// a client whose Transliterate is an identity pass-through.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NeedsTransliteration reports whether text contains Hebrew script.
func (c *Client) NeedsTransliteration(text string) bool {
	return strings.ContainsFunc(text, func(r rune) bool {
		return unicode.Is(unicode.Hebrew, r)
	})
}

type translitRequest struct {
	Text string `json:"text"`
}

type translitResponse struct {
	Text string `json:"text"`
}

// Transliterate converts text to a Latin rendering. Failures return the
// original text along with the error so callers can degrade gracefully.
func (c *Client) Transliterate(ctx context.Context, text string) (string, error) {
	if c.endpoint == "" {
		return text, nil
	}

	body, err := json.Marshal(translitRequest{Text: text})
	if err != nil {
		return text, fmt.Errorf("failed to encode transliteration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return text, fmt.Errorf("failed to build transliteration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return text, fmt.Errorf("transliteration request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return text, fmt.Errorf("transliteration endpoint returned status %d", resp.StatusCode)
	}

	var out translitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return text, fmt.Errorf("failed to decode transliteration response: %w", err)
	}

	result := strings.TrimSpace(out.Text)
	if result == "" {
		return text, fmt.Errorf("transliteration endpoint returned empty text")
	}

	log.Debug().Str("from", text).Str("to", result).Msg("transliterated")
	return result, nil
}
