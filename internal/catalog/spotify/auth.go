package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// expiryBuffer is how long before expiry a token stops being served
// from cache. The proactive refresh timer fires at the same boundary.
const expiryBuffer = 60 * time.Second

// tokenManager holds the catalog session token obtained through the
// client-credentials grant. Callers arriving while a refresh is in
// flight await that refresh rather than racing a second one.
type tokenManager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	http         *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	lastErr   error
	inflight  chan struct{}
	refresh   *time.Timer
}

func newTokenManager(clientID, clientSecret, tokenURL string) *tokenManager {
	return &tokenManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns a session token valid for at least expiryBuffer.
func (m *tokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.token != "" && time.Until(m.expiresAt) > expiryBuffer {
		tok := m.token
		m.mu.Unlock()
		return tok, nil
	}

	if m.inflight != nil {
		ch := m.inflight
		m.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		m.mu.Lock()
		tok, err := m.token, m.lastErr
		m.mu.Unlock()
		if err != nil {
			return "", err
		}
		return tok, nil
	}

	ch := make(chan struct{})
	m.inflight = ch
	m.mu.Unlock()

	tok, ttl, err := m.authenticate(ctx)

	m.mu.Lock()
	if err == nil {
		m.token = tok
		m.expiresAt = time.Now().Add(ttl)
		m.scheduleRefreshLocked()
	}
	m.lastErr = err
	m.inflight = nil
	close(ch)
	m.mu.Unlock()

	return tok, err
}

// scheduleRefreshLocked arms a timer that re-authenticates just before
// the current token would stop being served, so steady-state callers
// never pay the authentication round trip.
func (m *tokenManager) scheduleRefreshLocked() {
	if m.refresh != nil {
		m.refresh.Stop()
	}
	d := time.Until(m.expiresAt) - expiryBuffer
	if d < 0 {
		d = 0
	}
	m.refresh = time.AfterFunc(d, func() {
		if _, err := m.Token(context.Background()); err != nil {
			log.Warn().Err(err).Msg("proactive catalog token refresh failed")
		}
	})
}

// Close stops the background refresh timer.
func (m *tokenManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refresh != nil {
		m.refresh.Stop()
		m.refresh = nil
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (m *tokenManager) authenticate(ctx context.Context) (string, time.Duration, error) {
	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build token request: %w", err)
	}

	creds := base64.StdEncoding.EncodeToString([]byte(m.clientID + ":" + m.clientSecret))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("token request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("token response carried no access token")
	}

	log.Debug().Int64("expires_in", tr.ExpiresIn).Msg("obtained catalog session token")
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}
