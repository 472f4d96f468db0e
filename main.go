package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/container"
)

var (
	cfg       *config.Config
	jwtSecret []byte // from JWT_SECRET (dev default in config)
	app       *container.Container
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()
	jwtSecret = []byte(cfg.JWTSecret)

	// `invscan migrate` runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.AutoMigrate = true
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	app, err = container.New(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scanner")
	}
	defer app.Close()
	if app.Enqueuer == nil {
		log.Info().Msg("REDIS_ADDR not set, scans run inside the upload request")
	}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadSize
	setupRoutes(r)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
