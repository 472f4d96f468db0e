//go:build !notesseract
// +build !notesseract

package ocr

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFragmentFromBox(t *testing.T) {
	f := fragmentFromBox("Starmetal", image.Rect(10, 20, 110, 40), 87)
	require.InDelta(t, 0.87, f.Confidence, 1e-9)
	require.Equal(t, 60.0, f.Center().X)
	require.Equal(t, 30.0, f.Center().Y)

	require.Equal(t, 0.0, fragmentFromBox("x", image.Rect(0, 0, 1, 1), -1).Confidence)
	require.Equal(t, 1.0, fragmentFromBox("x", image.Rect(0, 0, 1, 1), 120).Confidence)
}

func TestTesseractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTesseract("", LevelWord, 0).Recognize(ctx, []byte("png"))
	require.ErrorIs(t, err, context.Canceled)
}
