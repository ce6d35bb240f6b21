// Package consts holds various global, unchanging values.
package consts

import "time"

// JobStatus is the lifecycle state of a download job.
type JobStatus string

const (
	JobQueued      JobStatus = "queued"
	JobDownloading JobStatus = "downloading"
	JobProcessing  JobStatus = "processing"
	JobComplete    JobStatus = "complete"
	JobError       JobStatus = "error"
)

// Terminal reports whether no further transitions occur from s.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobError
}

// Source is the catalog source a URL was classified as.
type Source string

const (
	SourceYouTube    Source = "youtube"
	SourceSpotify    Source = "spotify"
	SourceSoundCloud Source = "soundcloud"
	SourceBandcamp   Source = "bandcamp"
	SourceUnknown    Source = "unknown"
)

// MediaKind distinguishes a single item from a collection.
type MediaKind string

const (
	KindSingle   MediaKind = "single"
	KindAlbum    MediaKind = "album"
	KindPlaylist MediaKind = "playlist"
)

// Progress phase boundaries.
const (
	// ProgressConverting is reported when the extraction tool enters its
	// post-download conversion step.
	ProgressConverting = 90.0

	// ProgressComplete is only ever set together with JobComplete.
	ProgressComplete = 100.0

	// AlbumFetchBudget is the share of job progress spent on track
	// downloads in an album job; the remainder covers archive + publish.
	AlbumFetchBudget = 90.0

	// ResolveMetadataBudget is the share of progress spent resolving
	// catalog metadata before a cross-source fetch begins.
	ResolveMetadataBudget = 10.0
)

// AudioExt is the fixed target extension of extracted audio.
const AudioExt = ".mp3"

// IntermediateExts are working files the extraction tool may leave behind.
var IntermediateExts = [...]string{".webp", ".jpg", ".jpeg", ".png", ".tmp", ".part", ".ytdl"}

// ResultTTL is the lifetime of a signed result URL.
const ResultTTL = 24 * time.Hour

// BrowserUserAgent is presented on outbound fetches to look like a
// regular browser client.
const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const Interval100ms = 100 * time.Millisecond
