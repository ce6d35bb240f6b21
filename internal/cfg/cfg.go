// Package cfg provides configuration and command-line interface setup.
package cfg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"soundcrate/internal/app"
	"soundcrate/internal/domain/keys"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "soundcrate",
	Short:         "soundcrate downloads, packages and publishes audio from user-submitted URLs.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if file := viper.GetString(keys.TomlPath); file != "" {
			if err := loadConfigFile(file); err != nil {
				return err
			}
		}
		return applyLogLevel()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Run(cmd.Context())
	},
}

// Execute parses flags/env/config and runs the root command.
func Execute(ctx context.Context) error {
	initFlags()
	return rootCmd.ExecuteContext(ctx)
}

func initFlags() {
	f := rootCmd.PersistentFlags()

	f.String(keys.ServerPort, "8791", "API listen port")
	f.String(keys.PublicURL, "http://localhost:8791", "public base URL for signed download links")
	f.String(keys.WorkDir, "/tmp/soundcrate/work", "scratch directory for in-flight jobs")
	f.String(keys.BlobDir, "/var/lib/soundcrate/blobs", "directory for published artifacts")
	f.String(keys.DBFilePath, "/var/lib/soundcrate/soundcrate.db", "SQLite database path")
	f.String(keys.SigningSecret, "", "HMAC secret for download tokens")

	f.String(keys.YTDLPPath, "yt-dlp", "path to the extraction tool binary")
	f.Int(keys.DLRetries, 3, "extraction tool retry count")
	f.Int(keys.FragmentRetries, 5, "extraction tool per-fragment retry count")
	f.Int(keys.SleepInterval, 1, "minimum sleep between tool requests (seconds)")
	f.Int(keys.MaxSleepInterval, 5, "maximum sleep between tool requests (seconds)")

	f.String(keys.ProxyHost, "", "rotating egress proxy host (empty disables proxying)")
	f.Int(keys.ProxyPortMin, 0, "lowest egress proxy port")
	f.Int(keys.ProxyPortMax, 0, "highest egress proxy port")

	f.String(keys.SpotifyClientID, "", "catalog API client id")
	f.String(keys.SpotifyClientSecret, "", "catalog API client secret")
	f.Int(keys.SpotifyMaxAttempts, 5, "catalog rate-limit retry attempts")
	f.Duration(keys.SpotifyBackoffBase, time.Second, "catalog rate-limit backoff base")

	f.String(keys.TranslitEndpoint, "", "transliteration service endpoint (empty disables)")
	f.String(keys.TranslitAPIKey, "", "transliteration service API key")

	f.String(keys.LogLevel, "info", "log level (trace, debug, info, warn, error)")
	f.String(keys.TomlPath, "", "config file path")

	for _, key := range []string{
		keys.ServerPort, keys.PublicURL, keys.WorkDir, keys.BlobDir,
		keys.DBFilePath, keys.SigningSecret,
		keys.YTDLPPath, keys.DLRetries, keys.FragmentRetries,
		keys.SleepInterval, keys.MaxSleepInterval,
		keys.ProxyHost, keys.ProxyPortMin, keys.ProxyPortMax,
		keys.SpotifyClientID, keys.SpotifyClientSecret,
		keys.SpotifyMaxAttempts, keys.SpotifyBackoffBase,
		keys.TranslitEndpoint, keys.TranslitAPIKey,
		keys.LogLevel, keys.TomlPath,
	} {
		if err := viper.BindPFlag(key, f.Lookup(key)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %q: %v", key, err))
		}
	}

	viper.SetEnvPrefix("SOUNDCRATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfigFile loads and normalizes keys from any Viper-supported
// config file.
func loadConfigFile(file string) error {
	viper.SetConfigFile(file)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed loading config file %q: %w", file, err)
	}
	return nil
}

func applyLogLevel() error {
	lvl, err := zerolog.ParseLevel(viper.GetString(keys.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", viper.GetString(keys.LogLevel), err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Debug().Str("level", lvl.String()).Msg("log level applied")
	return nil
}
