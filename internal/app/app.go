// Package app wires the engine's components together from the resolved
// configuration and runs the API server until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"soundcrate/internal/blob"
	"soundcrate/internal/catalog/spotify"
	"soundcrate/internal/catalog/youtube"
	"soundcrate/internal/contracts"
	"soundcrate/internal/domain/consts"
	"soundcrate/internal/domain/keys"
	"soundcrate/internal/fetch"
	"soundcrate/internal/orchestrator"
	"soundcrate/internal/proxy"
	"soundcrate/internal/resolve"
	"soundcrate/internal/server"
	"soundcrate/internal/store"
	"soundcrate/internal/translit"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Run builds the engine and serves the API until ctx is cancelled.
func Run(ctx context.Context) error {
	secret := viper.GetString(keys.SigningSecret)
	if secret == "" {
		return errors.New("signing secret is required")
	}

	db, err := store.Open(viper.GetString(keys.DBFilePath))
	if err != nil {
		return err
	}
	defer db.Close()
	jobs := store.GetJobStore(db)

	signer := blob.NewSigner(secret)
	blobs, err := blob.NewLocalStore(
		viper.GetString(keys.BlobDir),
		viper.GetString(keys.PublicURL),
		signer,
	)
	if err != nil {
		return err
	}

	rotator := proxy.NewRotator(
		viper.GetString(keys.ProxyHost),
		viper.GetInt(keys.ProxyPortMin),
		viper.GetInt(keys.ProxyPortMax),
	)

	translitClient := translit.NewClient(
		viper.GetString(keys.TranslitEndpoint),
		viper.GetString(keys.TranslitAPIKey),
	)

	fetcher := fetch.New(fetch.Config{
		Binary:           viper.GetString(keys.YTDLPPath),
		Proxy:            rotator,
		Retries:          viper.GetInt(keys.DLRetries),
		FragmentRetries:  viper.GetInt(keys.FragmentRetries),
		SleepInterval:    viper.GetInt(keys.SleepInterval),
		MaxSleepInterval: viper.GetInt(keys.MaxSleepInterval),
		Translit:         translitClient,
	})

	spotifyProvider, err := spotify.New(spotify.Config{
		ClientID:     viper.GetString(keys.SpotifyClientID),
		ClientSecret: viper.GetString(keys.SpotifyClientSecret),
		MaxAttempts:  viper.GetInt(keys.SpotifyMaxAttempts),
		BackoffBase:  viper.GetDuration(keys.SpotifyBackoffBase),
		Proxy:        rotator,
	})
	if err != nil {
		return err
	}
	defer spotifyProvider.Close()

	// One tool-backed provider serves every direct source.
	directProvider := youtube.New(viper.GetString(keys.YTDLPPath))

	providers := map[consts.Source]contracts.MetadataProvider{
		consts.SourceSpotify:    spotifyProvider,
		consts.SourceYouTube:    directProvider,
		consts.SourceSoundCloud: directProvider,
		consts.SourceBandcamp:   directProvider,
	}

	resolver := resolve.New(spotifyProvider, fetcher)
	orch := orchestrator.New(jobs, blobs, fetcher, resolver, providers, viper.GetString(keys.WorkDir))

	srv := &http.Server{
		Addr:              ":" + viper.GetString(keys.ServerPort),
		Handler:           server.NewRouter(orch, blobs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("API server listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
