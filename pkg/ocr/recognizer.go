// Package ocr turns screenshots into recognized fragments and inventory snapshots.
package ocr

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"invscan/pkg/inventory"
)

// ErrTesseractDisabled is returned by Tesseract in builds tagged notesseract.
var ErrTesseractDisabled = errors.New("tesseract support not compiled in (built with -tags notesseract)")

// Recognizer reads text fragments with boxes and confidences from an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]inventory.Fragment, error)
}

// Preprocessor prepares an encoded image for recognition and returns it re-encoded.
type Preprocessor interface {
	Apply(image []byte) ([]byte, error)
}

// Level is the granularity of recognized fragments.
type Level string

const (
	LevelWord Level = "word"
	LevelLine Level = "line"
)

// ParseLevel accepts "word" or "line"; empty means word.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelWord:
		return LevelWord, nil
	case LevelLine:
		return LevelLine, nil
	}
	return "", errors.Errorf("unknown recognition level %q", s)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, image []byte) ([]inventory.Fragment, error)

func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) ([]inventory.Fragment, error) {
	return f(ctx, image)
}
