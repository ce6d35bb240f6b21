package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testTrackJSON = `{
	"id": "6rqhFgbbKwnb9MLmUQDhG6",
	"name": "Breathe",
	"duration_ms": 169534,
	"artists": [{"name": "Pink Floyd"}, {"name": "Roger Waters"}],
	"album": {
		"name": "The Dark Side of the Moon",
		"release_date": "1973-03-01",
		"images": [
			{"url": "https://img.example/640.jpg", "width": 640},
			{"url": "https://img.example/300.jpg", "width": 300}
		]
	}
}`

func tokenHandler(hits *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	}
}

// newTestProvider points a provider at srv for every outbound call.
func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p, err := New(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		MaxAttempts:  3,
		BackoffBase:  time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	p.apiBase = srv.URL + "/v1"
	p.embedBase = srv.URL
	p.tokens.tokenURL = srv.URL + "/api/token"
	return p
}

func TestTrackInfo(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(nil))
	mux.HandleFunc("/v1/tracks/6rqhFgbbKwnb9MLmUQDhG6", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			http.Error(w, "bad auth: "+got, http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, testTrackJSON)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	td, err := p.TrackInfo(context.Background(), "https://open.spotify.com/track/6rqhFgbbKwnb9MLmUQDhG6?si=abc")
	if err != nil {
		t.Fatalf("TrackInfo: %v", err)
	}

	if td.Title != "Breathe" {
		t.Errorf("Title = %q", td.Title)
	}
	if td.Artist != "Pink Floyd, Roger Waters" {
		t.Errorf("Artist = %q, want joined artists", td.Artist)
	}
	if td.Album != "The Dark Side of the Moon" {
		t.Errorf("Album = %q", td.Album)
	}
	if td.ArtworkURL != "https://img.example/300.jpg" {
		t.Errorf("ArtworkURL = %q, want 300px rendition", td.ArtworkURL)
	}
	if td.DurationMS != 169534 {
		t.Errorf("DurationMS = %d", td.DurationMS)
	}
	if td.ReleaseDate.Year() != 1973 {
		t.Errorf("ReleaseDate = %v", td.ReleaseDate)
	}
}

func TestTrackInfoCachesToken(t *testing.T) {
	t.Parallel()

	var tokenHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(&tokenHits))
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testTrackJSON)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	for i := 0; i < 3; i++ {
		if _, err := p.TrackInfo(context.Background(), "spotify:track:abc123"); err != nil {
			t.Fatal(err)
		}
	}
	if got := tokenHits.Load(); got != 1 {
		t.Errorf("token endpoint hit %d times, want 1", got)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	t.Parallel()

	var trackHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(nil))
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		if trackHits.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, testTrackJSON)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	td, err := p.TrackInfo(context.Background(), "spotify:track:abc123")
	if err != nil {
		t.Fatalf("TrackInfo after rate limit: %v", err)
	}
	if td.Title != "Breathe" {
		t.Errorf("Title = %q", td.Title)
	}
	if got := trackHits.Load(); got != 3 {
		t.Errorf("track endpoint hit %d times, want 3", got)
	}
}

func TestRateLimitExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var trackHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(nil))
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		trackHits.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	_, err := p.TrackInfo(context.Background(), "spotify:track:abc123")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if got := trackHits.Load(); got != 3 {
		t.Errorf("track endpoint hit %d times, want 3 (MaxAttempts)", got)
	}
}

func TestNonRateLimitErrorPropagatesImmediately(t *testing.T) {
	t.Parallel()

	var trackHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(nil))
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		trackHits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	_, err := p.TrackInfo(context.Background(), "spotify:track:abc123")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := trackHits.Load(); got != 1 {
		t.Errorf("track endpoint hit %d times, want 1 (no retry on non-429)", got)
	}
}

func TestAlbumInfo(t *testing.T) {
	t.Parallel()

	embedHTML := `<html><script>{"tracks":[
		{"uri":"spotify:track:aaa111"},
		{"uri":"spotify:track:bbb222"},
		{"uri":"spotify:track:aaa111"},
		{"uri":"spotify:track:ccc333"}
	]}</script></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(nil))
	mux.HandleFunc("/embed/album/album99", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, embedHTML)
	})
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v1/tracks/")
		if id == "bbb222" {
			// One member failing must not abort album resolution.
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{
			"id": %q, "name": "Track %s", "duration_ms": 1000,
			"artists": [{"name": "Artist"}],
			"album": {"name": "Album", "release_date": "2020-01-01", "images": []}
		}`, id, id)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	album, err := p.AlbumInfo(context.Background(), "https://open.spotify.com/album/album99")
	if err != nil {
		t.Fatalf("AlbumInfo: %v", err)
	}

	if album.TrackCount != 3 {
		t.Errorf("TrackCount = %d, want 3 (deduplicated embed IDs)", album.TrackCount)
	}
	if len(album.Tracks) != 2 {
		t.Fatalf("resolved %d tracks, want 2 (one member 404s)", len(album.Tracks))
	}
	if album.Name != "Album" || album.Artist != "Artist" {
		t.Errorf("album header = %q / %q", album.Name, album.Artist)
	}
	if album.Tracks[0].ID != "aaa111" || album.Tracks[1].ID != "ccc333" {
		t.Errorf("tracks out of catalog order: %q, %q", album.Tracks[0].ID, album.Tracks[1].ID)
	}
}

func TestTrackCount(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/embed/album/a1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `spotify:track:one spotify:track:two`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	n, err := p.TrackCount(context.Background(), "https://open.spotify.com/album/a1")
	if err != nil {
		t.Fatalf("TrackCount: %v", err)
	}
	if n != 2 {
		t.Errorf("TrackCount = %d, want 2", n)
	}
}

func TestEmbedLookupSharesCookieJar(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(nil))
	mux.HandleFunc("/embed/album/a1", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "xyz", Path: "/"})
		fmt.Fprint(w, `spotify:track:one`)
	})
	mux.HandleFunc("/v1/tracks/one", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "xyz" {
			http.Error(w, "missing session cookie", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, testTrackJSON)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	album, err := p.AlbumInfo(context.Background(), "https://open.spotify.com/album/a1")
	if err != nil {
		t.Fatalf("AlbumInfo: %v", err)
	}
	if len(album.Tracks) != 1 {
		t.Fatalf("resolved %d tracks, want 1 (embed cookie must reach the API client)", len(album.Tracks))
	}
}

func TestExtractID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url    string
		id     string
		wantOK bool
	}{
		{"https://open.spotify.com/track/6rqhFgbbKwnb9MLmUQDhG6", "6rqhFgbbKwnb9MLmUQDhG6", true},
		{"https://open.spotify.com/track/6rqhFgbbKwnb9MLmUQDhG6?si=xyz", "6rqhFgbbKwnb9MLmUQDhG6", true},
		{"spotify:track:6rqhFgbbKwnb9MLmUQDhG6", "6rqhFgbbKwnb9MLmUQDhG6", true},
		{"https://open.spotify.com/album/abc", "", false},
		{"https://example.com/watch?v=abc", "", false},
	}
	for _, tt := range tests {
		id, ok := extractID(trackIDRe, tt.url)
		if ok != tt.wantOK || id != tt.id {
			t.Errorf("extractID(%q) = %q, %v; want %q, %v", tt.url, id, ok, tt.id, tt.wantOK)
		}
	}
}
