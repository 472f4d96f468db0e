// Command bot runs the Telegram front end of the scanner.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"invscan/bot"
	"invscan/config"
	"invscan/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_TOKEN is required")
	}

	scanner, _, err := container.NewScanner(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scanner")
	}
	b, err := bot.NewBot(cfg.TelegramToken, scanner)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Info().Msg("bot is running")
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot error")
	}
}
