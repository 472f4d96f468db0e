package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"invscan/pkg/store"
)

var (
	db *gorm.DB
	st *store.Store
)

func initDB() {
	var err error
	db, err = store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect postgres database")
	}
	st = store.New(db)
	// DB_AUTO_MIGRATE (default true) controls schema migrations; permission errors are logged and ignored.
	if cfg.AutoMigrate {
		st.Migrate()
	}
	seedDB()
}

func seedDB() {
	st.Seed()
	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Error().Err(err).Str("dir", base).Msg("failed to create upload base dir")
	}
}

// uploadBaseDir returns the base directory for stored screenshots (UPLOAD_BASE).
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	if cfg != nil && cfg.UploadBase != "" {
		return cfg.UploadBase
	}
	return "uploads"
}
