package translit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNeedsTransliteration(t *testing.T) {
	t.Parallel()

	c := NewClient("", "")

	tests := []struct {
		text string
		want bool
	}{
		{"Plain English Title", false},
		{"", false},
		{"שיר של יום", true},
		{"Mixed שלום Title", true},
		{"Ümläüts ànd áccents", false},
	}
	for _, tt := range tests {
		if got := c.NeedsTransliteration(tt.text); got != tt.want {
			t.Errorf("NeedsTransliteration(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestTransliterate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req translitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(translitResponse{Text: "Shir Shel Yom"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	got, err := c.Transliterate(context.Background(), "שיר של יום")
	if err != nil {
		t.Fatalf("Transliterate: %v", err)
	}
	if got != "Shir Shel Yom" {
		t.Errorf("got %q", got)
	}
}

func TestTransliterateFailureReturnsOriginal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	got, err := c.Transliterate(context.Background(), "שלום")
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "שלום" {
		t.Errorf("failed transliteration should return original, got %q", got)
	}
}

func TestTransliterateNoEndpoint(t *testing.T) {
	t.Parallel()

	c := NewClient("", "")
	got, err := c.Transliterate(context.Background(), "שלום")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "שלום" {
		t.Errorf("identity pass-through expected, got %q", got)
	}
}
