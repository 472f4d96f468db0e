package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/container"
	"invscan/models"
	"invscan/pkg/store"
	"invscan/process/rescan"
)

func main() {
	status := flag.String("status", models.ScanFailed, "rescan scans in this status (failed, done, pending)")
	username := flag.String("user", "", "limit to one user (default: all)")
	limit := flag.Int("limit", 0, "maximum scans to process (0 = all)")
	dry := flag.Bool("dry", true, "only print what would be rescanned")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("DB_DSN not set in env")
	}
	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	st := store.New(db)
	app, err := container.New(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scanner")
	}

	opts := rescan.Options{BaseDir: cfg.UploadBase, Status: *status, Limit: *limit, Dry: *dry}
	if *username != "" {
		u, err := st.UserByName(*username)
		if err != nil {
			log.Fatal().Err(err).Str("user", *username).Msg("user not found")
		}
		opts.UserID = u.ID
	}
	sum, err := rescan.Run(context.Background(), st, app.Job, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("rescan failed")
	}
	fmt.Printf("rescan: total=%d done=%d failed=%d missing=%d\n", sum.Total, sum.Done, sum.Failed, sum.Missing)
}
