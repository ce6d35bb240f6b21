package models

import "time"

// TrackDescriptor is resolved catalog metadata for one track. Immutable
// once fetched.
type TrackDescriptor struct {
	ID          string
	Title       string
	Artist      string
	Album       string
	ReleaseDate time.Time
	DurationMS  int64
	ArtworkURL  string

	// URL is a directly fetchable location, when the catalog source has
	// one (empty for metadata-only catalogs).
	URL string
}

// AlbumDescriptor composes the descriptors of an album's member tracks.
type AlbumDescriptor struct {
	Name       string
	Artist     string
	TrackCount int
	Tracks     []TrackDescriptor
}

// FetchOutcome is the ephemeral result of one audio fetch invocation.
// Consumed immediately by the orchestrator, never persisted.
type FetchOutcome struct {
	Success  bool
	FilePath string
	Err      error
}

// FetchOptions carries per-job fetch preferences.
type FetchOptions struct {
	// Transliterate renames output files containing non-Latin script.
	Transliterate bool
}
