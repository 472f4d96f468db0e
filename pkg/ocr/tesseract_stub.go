//go:build notesseract
// +build notesseract

package ocr

import (
	"context"

	"invscan/pkg/inventory"
)

// Tesseract is unavailable in builds tagged notesseract.
type Tesseract struct {
	Language  string
	PSM       int
	Level     Level
	Whitelist string
}

func NewTesseract(lang string, level Level, psm int) *Tesseract {
	return &Tesseract{Language: lang, Level: level, PSM: psm}
}

func (t *Tesseract) Recognize(ctx context.Context, img []byte) ([]inventory.Fragment, error) {
	return nil, ErrTesseractDisabled
}
