package ocr

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"invscan/pkg/inventory"
)

// Scanner runs preprocess, recognize and interpret over one screenshot.
// A nil Preprocessor sends the image to the recognizer untouched.
type Scanner struct {
	Preprocessor Preprocessor
	Recognizer   Recognizer
	Table        *inventory.Table
	Options      inventory.Options
}

// Result is the outcome of one scan.
type Result struct {
	Snapshot  inventory.Snapshot   `json:"items"`
	Matches   []inventory.Match    `json:"matches,omitempty"`
	Fragments []inventory.Fragment `json:"fragments,omitempty"`
	Text      string               `json:"text"`
	Duration  time.Duration        `json:"duration"`
}

// Scan processes an encoded image. Recognizer and preprocessing failures are
// returned wrapped; an image with no recognizable items is not an error.
func (s *Scanner) Scan(ctx context.Context, img []byte) (*Result, error) {
	if s.Recognizer == nil {
		return nil, errors.New("scanner has no recognizer")
	}
	start := time.Now()
	if s.Preprocessor != nil {
		prepped, err := s.Preprocessor.Apply(img)
		if err != nil {
			return nil, errors.Wrap(err, "preprocess")
		}
		img = prepped
	}
	frags, err := s.Recognizer.Recognize(ctx, img)
	if err != nil {
		return nil, errors.Wrap(err, "recognize")
	}
	table := s.Table
	if table == nil {
		table = inventory.DefaultTable()
	}
	snap, matches := inventory.Explain(frags, s.Options, table)
	res := &Result{
		Snapshot:  snap,
		Matches:   matches,
		Fragments: frags,
		Text:      inventory.SearchText(inventory.Filter(frags, s.Options.MinConfidence)),
		Duration:  time.Since(start),
	}
	log.Debug().
		Int("fragments", len(frags)).
		Int("items", len(snap)).
		Dur("took", res.Duration).
		Str("text", snippet(res.Text, 160)).
		Msg("scan finished")
	return res, nil
}

// ScanFile reads path and scans it.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return s.Scan(ctx, data)
}
