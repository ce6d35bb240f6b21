// Package command holds flag constants for the external extraction tool.
package command

// General
const (
	YTDLP          = "yt-dlp"
	Output         = "-o"
	Format         = "-f"
	BestAudio      = "bestaudio/best"
	ExtractAudio   = "--extract-audio"
	AudioFormat    = "--audio-format"
	AudioQuality   = "--audio-quality"
	EmbedThumbnail = "--embed-thumbnail"
	AddMetadata    = "--add-metadata"
	NoPlaylist     = "--no-playlist"
	Newline        = "--newline"
	NoWarnings     = "--no-warnings"
	Progress       = "--progress"
	FilenameSyntax = "%(title)s.%(ext)s"
)

// Anti-throttling
const (
	Proxy            = "--proxy"
	UserAgent        = "--user-agent"
	AddHeader        = "--add-header"
	Retries          = "--retries"
	FragmentRetries  = "--fragment-retries"
	SleepInterval    = "--sleep-interval"
	MaxSleepInterval = "--max-sleep-interval"
)

// Metadata requests (no download)
const (
	OutputJSON   = "-J"
	SkipDownload = "--skip-download"
	FlatPlaylist = "--flat-playlist"
)

// SearchPrefix limits a query to the first matching result on the
// general video-search capability.
const SearchPrefix = "ytsearch1:"
