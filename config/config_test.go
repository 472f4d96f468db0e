package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"invscan/pkg/imgprep"
	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "PREPROCESS", "MIN_CONFIDENCE", "MAX_DISTANCE", "OCR_LEVEL", "CROP_REGION", "THRESHOLD", "DB_AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8081", cfg.HTTPAddr)
	require.Equal(t, PreprocessImaging, cfg.Preprocess)
	require.Equal(t, ocr.LevelWord, cfg.OCRLevel)
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, inventory.DefaultOptions(), cfg.InterpretOptions())
	require.Equal(t, imgprep.Full, cfg.PreprocessOptions().Region)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("MIN_CONFIDENCE", "0.1")
	t.Setenv("MAX_QUANTITY", "5000")
	t.Setenv("CROP_REGION", "0.5,0,1,0.5")
	t.Setenv("OCR_LEVEL", "line")
	t.Setenv("THRESHOLD", "none")
	t.Setenv("DB_AUTO_MIGRATE", "no")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, 0.1, cfg.InterpretOptions().MinConfidence)
	require.Equal(t, 5000, cfg.InterpretOptions().Plausible.Max)
	require.Equal(t, imgprep.Region{X0: 0.5, Y0: 0, X1: 1, Y1: 0.5}, cfg.CropRegion)
	require.Equal(t, ocr.LevelLine, cfg.OCRLevel)
	require.Equal(t, imgprep.ThresholdNone, cfg.Threshold)
	require.False(t, cfg.AutoMigrate)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"PREPROCESS":     "opencv",
		"MIN_CONFIDENCE": "1.5",
		"CROP_REGION":    "0,0,2,1",
		"OCR_LEVEL":      "block",
		"MIN_QUANTITY":   "2000",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
