// Package keys holds the Viper configuration key constants.
package keys

// Server
const (
	ServerPort string = "server-port"
	PublicURL  string = "public-url"
)

// Storage locations
const (
	WorkDir       string = "work-dir"
	BlobDir       string = "blob-dir"
	DBFilePath    string = "db-file"
	SigningSecret string = "signing-secret"
)

// Audio extraction tool
const (
	YTDLPPath        string = "ytdlp-path"
	DLRetries        string = "dl-retries"
	FragmentRetries  string = "fragment-retries"
	SleepInterval    string = "sleep-interval"
	MaxSleepInterval string = "max-sleep-interval"
)

// Rotating egress proxy
const (
	ProxyHost    string = "proxy-host"
	ProxyPortMin string = "proxy-port-min"
	ProxyPortMax string = "proxy-port-max"
)

// Catalog providers
const (
	SpotifyClientID     string = "spotify-client-id"
	SpotifyClientSecret string = "spotify-client-secret"
	SpotifyMaxAttempts  string = "spotify-max-attempts"
	SpotifyBackoffBase  string = "spotify-backoff-base"
)

// Transliteration
const (
	TranslitEndpoint string = "translit-endpoint"
	TranslitAPIKey   string = "translit-api-key"
)

// Logging and config
const (
	LogLevel string = "log-level"
	TomlPath string = "config-file"
)
