// Command worker consumes queued screenshot scans from Redis.
package main

import (
	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/container"
	"invscan/pkg/queue"
	"invscan/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is required for the worker")
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("DB_DSN is required for the worker")
	}

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open db")
	}
	st := store.New(db)
	if cfg.AutoMigrate {
		st.Migrate()
	}

	app, err := container.New(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scanner")
	}
	defer app.Close()

	srv, mux := queue.NewServer(cfg.RedisAddr, cfg.WorkerConcurrency, &queue.Handler{Job: app.Job})
	log.Info().Str("redis", cfg.RedisAddr).Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")
	// Run blocks until SIGTERM or SIGINT and then drains in-flight tasks.
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
