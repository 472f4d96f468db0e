// Package rescan runs stored screenshots through the scanner again, typically after
// the rule table or preprocessing changed.
package rescan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"invscan/models"
	"invscan/pkg/ocr"
)

// Lister finds the scans to retry.
type Lister interface {
	ScansByStatus(ctx context.Context, userID uint, status string, limit int) ([]models.Scan, error)
}

// Runner scans a stored file and records the outcome on the scan row.
type Runner interface {
	Run(ctx context.Context, scanID uint, path string) (*ocr.Result, error)
}

// Options selects the scans to retry.
type Options struct {
	BaseDir string // UPLOAD_BASE; StorePath is relative to it
	Status  string // default failed
	UserID  uint   // 0 means all users
	Limit   int
	Dry     bool // only print what would be rescanned
}

// Summary counts the outcome of a Run.
type Summary struct {
	Total   int
	Done    int
	Failed  int
	Missing int
}

// Run rescans every selected scan whose file is still present.
func Run(ctx context.Context, lister Lister, runner Runner, opts Options) (Summary, error) {
	status := opts.Status
	if status == "" {
		status = models.ScanFailed
	}
	scans, err := lister.ScansByStatus(ctx, opts.UserID, status, opts.Limit)
	if err != nil {
		return Summary{}, fmt.Errorf("list scans: %w", err)
	}
	var sum Summary
	for _, sc := range scans {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.Total++
		path := filepath.Join(opts.BaseDir, filepath.FromSlash(sc.StorePath))
		if _, err := os.Stat(path); err != nil {
			log.Warn().Uint("scan_id", sc.ID).Str("path", path).Msg("file missing")
			sum.Missing++
			continue
		}
		if opts.Dry {
			fmt.Printf("DRY scan=%s file=%s status=%s reason=%q\n", sc.PublicID, sc.FileName, sc.Status, sc.FailedReason)
			continue
		}
		res, err := runner.Run(ctx, sc.ID, path)
		if err != nil {
			sum.Failed++
			continue
		}
		sum.Done++
		log.Info().Uint("scan_id", sc.ID).Int("items", len(res.Snapshot)).Msg("rescanned")
	}
	return sum, nil
}
