// Package main is the entrypoint of soundcrate.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soundcrate/internal/cfg"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cfg.Execute(ctx); err != nil {
		log.Error().Err(err).Msg("soundcrate exiting with error")
		os.Exit(1)
	}
}
