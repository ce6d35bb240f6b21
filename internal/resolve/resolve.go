// Package resolve bridges metadata-only catalog sources to the audio
// fetcher by turning a resolved track descriptor into search queries
// against the general video-search capability.
package resolve

import (
	"context"
	"fmt"

	"soundcrate/internal/contracts"
	"soundcrate/internal/domain/command"
	"soundcrate/internal/domain/consts"
	"soundcrate/internal/models"

	"github.com/rs/zerolog/log"
)

// Resolver converts a catalog track into a fetched audio file.
type Resolver struct {
	provider contracts.MetadataProvider
	fetcher  contracts.AudioFetcher
}

func New(provider contracts.MetadataProvider, fetcher contracts.AudioFetcher) *Resolver {
	return &Resolver{provider: provider, fetcher: fetcher}
}

// searchQueries returns candidate queries in priority order. Topic
// channels carry the catalog-quality art tracks, so they come first;
// "official audio" uploads next; a plain artist+title search last.
func searchQueries(td *models.TrackDescriptor) []string {
	base := td.Artist + " " + td.Title
	if td.Artist == "" {
		base = td.Title
	}
	return []string{
		base + " topic",
		base + " official audio",
		base,
	}
}

// FetchTrack resolves url through the catalog, then fetches audio via
// search. The metadata phase occupies the first 10% of progress; the
// fetch is rescaled into the remaining 90%.
func (r *Resolver) FetchTrack(ctx context.Context, url, outputDir string, opts models.FetchOptions, sink contracts.ProgressSink) (*models.TrackDescriptor, models.FetchOutcome) {
	if sink != nil {
		sink.OnProgress(consts.JobDownloading, 0, "Fetching track metadata...")
	}

	td, err := r.provider.TrackInfo(ctx, url)
	if err != nil {
		return nil, models.FetchOutcome{Err: fmt.Errorf("metadata resolution failed: %w", err)}
	}
	if td == nil {
		return nil, models.FetchOutcome{Err: fmt.Errorf("metadata resolution returned no descriptor for %s", url)}
	}

	if sink != nil {
		sink.OnProgress(consts.JobDownloading, consts.ResolveMetadataBudget,
			fmt.Sprintf("Downloading: %s - %s", td.Artist, td.Title))
	}

	outcome := r.FetchResolved(ctx, td, outputDir, opts, sink)
	return td, outcome
}

// FetchResolved fetches audio for an already-resolved descriptor,
// trying each search tier until one succeeds.
func (r *Resolver) FetchResolved(ctx context.Context, td *models.TrackDescriptor, outputDir string, opts models.FetchOptions, sink contracts.ProgressSink) models.FetchOutcome {
	rescaled := rescaleSink(sink)

	var outcome models.FetchOutcome
	for _, q := range searchQueries(td) {
		if ctx.Err() != nil {
			return models.FetchOutcome{Err: ctx.Err()}
		}
		outcome = r.fetcher.Fetch(ctx, command.SearchPrefix+q, outputDir, opts, rescaled)
		if outcome.Success {
			return outcome
		}
		log.Warn().Err(outcome.Err).Str("query", q).Msg("search tier failed, trying next")
	}

	if outcome.Err == nil {
		outcome.Err = fmt.Errorf("no search tier yielded audio for %s - %s", td.Artist, td.Title)
	}
	return outcome
}

// rescaleSink maps fetcher progress [0,100] into the post-metadata
// budget [10,100]. Conversion-phase updates already sit at the
// processing baseline and pass through unchanged.
func rescaleSink(sink contracts.ProgressSink) contracts.ProgressSink {
	if sink == nil {
		return nil
	}
	return contracts.ProgressFunc(func(status consts.JobStatus, pct float64, msg string) {
		if status == consts.JobDownloading {
			pct = consts.ResolveMetadataBudget + pct*(100-consts.ResolveMetadataBudget)/100
		}
		sink.OnProgress(status, pct, msg)
	})
}
