// Package container wires the scanning pipeline from configuration.
package container

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"invscan/config"
	"invscan/pkg/imgprep"
	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
	"invscan/pkg/queue"
	"invscan/pkg/store"
)

type Container struct {
	Config   *config.Config
	Table    *inventory.Table
	Scanner  *ocr.Scanner
	Store    *store.Store    // nil when built without a database
	Job      *queue.Job      // nil without Store
	Enqueuer *queue.Enqueuer // nil when REDIS_ADDR is empty
}

// NewScanner builds the preprocess, recognize and interpret chain from cfg.
func NewScanner(cfg *config.Config) (*ocr.Scanner, *inventory.Table, error) {
	table, err := inventory.LoadTable(cfg.RulesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load rules: %w", err)
	}
	var prep ocr.Preprocessor
	switch cfg.Preprocess {
	case config.PreprocessImaging:
		prep = imgprep.New(cfg.PreprocessOptions())
	case config.PreprocessGoCV:
		prep = imgprep.NewCLAHE(cfg.PreprocessOptions())
	case config.PreprocessNone:
		prep = imgprep.Passthrough{}
	}
	scanner := &ocr.Scanner{
		Preprocessor: prep,
		Recognizer:   ocr.NewTesseract(cfg.OCRLanguage, cfg.OCRLevel, cfg.OCRPSM),
		Table:        table,
		Options:      cfg.InterpretOptions(),
	}
	log.Info().
		Str("preprocess", cfg.Preprocess).
		Str("lang", cfg.OCRLanguage).
		Str("level", string(cfg.OCRLevel)).
		Int("rules", len(table.Items())).
		Msg("scanner ready")
	return scanner, table, nil
}

// New assembles the container. st may be nil for tools that never persist.
func New(cfg *config.Config, st *store.Store) (*Container, error) {
	scanner, table, err := NewScanner(cfg)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Table: table, Scanner: scanner, Store: st}
	if st != nil {
		c.Job = &queue.Job{Scanner: scanner, Store: st, Timeout: cfg.ScanTimeout}
	}
	if cfg.RedisAddr != "" {
		c.Enqueuer = queue.NewEnqueuer(cfg.RedisAddr)
	}
	return c, nil
}

// Close releases the queue client.
func (c *Container) Close() {
	if c.Enqueuer != nil {
		if err := c.Enqueuer.Close(); err != nil {
			log.Warn().Err(err).Msg("close enqueuer")
		}
	}
}
