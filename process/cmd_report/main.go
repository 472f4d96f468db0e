package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/pkg/store"
	"invscan/process/report"
)

func main() {
	username := flag.String("username", "admin", "username to report for")
	characterID := flag.Uint("character-id", 0, "limit to one character (default: all)")
	list := flag.Bool("list", false, "list recent scans")
	craft := flag.Bool("craft", false, "show crafting suggestions")
	export := flag.Bool("export", false, "print calculator item ids")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	if cfg.DatabaseDSN == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}

	opts := report.Options{Username: *username, List: *list, Craft: *craft, Export: *export}
	if *characterID != 0 {
		opts.CharacterID = characterID
	}
	if err := report.RunReport(context.Background(), store.New(db), os.Stdout, opts); err != nil {
		log.Fatal().Err(err).Msg("report failed")
	}
}
