//go:build !notesseract
// +build !notesseract

package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"invscan/pkg/inventory"
)

// Tesseract recognizes fragments with a fresh gosseract client per call.
type Tesseract struct {
	Language  string
	PSM       int // tesseract page segmentation mode; 0 keeps the library default
	Level     Level
	Whitelist string
}

// NewTesseract returns a recognizer for lang at the given level.
func NewTesseract(lang string, level Level, psm int) *Tesseract {
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{Language: lang, Level: level, PSM: psm}
}

// Recognize runs tesseract on image and returns one fragment per word or line.
func (t *Tesseract) Recognize(ctx context.Context, img []byte) ([]inventory.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return nil, errors.Wrap(err, "set language")
	}
	if t.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.PSM)); err != nil {
			return nil, errors.Wrap(err, "set page segmentation mode")
		}
	}
	if t.Whitelist != "" {
		if err := client.SetWhitelist(t.Whitelist); err != nil {
			return nil, errors.Wrap(err, "set whitelist")
		}
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return nil, errors.Wrap(err, "set image")
	}

	level := gosseract.RIL_WORD
	if t.Level == LevelLine {
		level = gosseract.RIL_TEXTLINE
	}
	boxes, err := client.GetBoundingBoxes(level)
	if err != nil {
		return nil, errors.Wrap(err, "tesseract")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]inventory.Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		out = append(out, fragmentFromBox(text, b.Box, b.Confidence))
	}
	return out, nil
}

// fragmentFromBox converts a tesseract box; confidence arrives in percent.
func fragmentFromBox(text string, r image.Rectangle, conf float64) inventory.Fragment {
	c := conf / 100
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return inventory.NewFragment(text, float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y), c)
}
